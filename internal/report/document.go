// Package report turns a saved activity into a printable document and renders
// it as HTML, PDF or a spreadsheet.
package report

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/actreport/internal/domain"
	"github.com/vbonduro/actreport/internal/filestore"
)

const displayDate = "2 January 2006"

// Header is the institution block printed at the top of every report.
type Header struct {
	Institution string
	School      string
	Department  string
}

// Options toggles optional parts of the generated document.
type Options struct {
	IncludePhotos     bool
	IncludeProfiles   bool
	IncludeSignatures bool
	PageNumbers       bool
	Watermark         bool
	WatermarkText     string
}

// DefaultOptions enables everything.
func DefaultOptions() Options {
	return Options{
		IncludePhotos:     true,
		IncludeProfiles:   true,
		IncludeSignatures: true,
		PageNumbers:       true,
		Watermark:         true,
	}
}

// FileSource is the read side of the file store.
type FileSource interface {
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

type Image struct {
	MimeType string
	Data     []byte
}

// DataURI embeds the image inline so the HTML needs no file access.
func (i *Image) DataURI() template.URL {
	return template.URL("data:" + i.MimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data))
}

type Field struct {
	Label string
	Value string
}

type SpeakerView struct {
	Index             int
	Name              string
	Designation       string
	Contact           string
	PresentationTitle string
	Profile           []string
	Image             *Image
}

type ParticipantView struct {
	Label string
	Count int
}

type Block struct {
	Title      string
	Paragraphs []string
}

type PhotoView struct {
	Index     int
	Caption   string
	TypeLabel string
	Image     *Image
}

type PreparerView struct {
	Name        string
	Designation string
	Signature   *Image
}

// Document is the render-ready view of one activity report.
type Document struct {
	ActivityID        int64
	Header            Header
	Options           Options
	Title             string
	General           []Field
	Speakers          []SpeakerView
	Participants      []ParticipantView
	TotalParticipants int
	Synopsis          []Block
	Photos            []PhotoView
	Preparers         []PreparerView
	GeneratedOn       string
}

// HasProfiles reports whether any speaker has a profile to print.
func (d *Document) HasProfiles() bool {
	for _, s := range d.Speakers {
		if len(s.Profile) > 0 || s.Image != nil {
			return true
		}
	}
	return false
}

// Filename is the name the generated PDF is written under.
func Filename(activityID int64) string {
	return fmt.Sprintf("activity_report_%d.pdf", activityID)
}

// Build prepares the document for r, loading referenced images from files.
// Images whose files have gone missing are left out with a warning.
func Build(ctx context.Context, r *domain.Report, files FileSource, header Header, opts Options) (*Document, error) {
	a := &r.Activity
	doc := &Document{
		ActivityID:  a.ID,
		Header:      header,
		Options:     opts,
		Title:       "Activity Report",
		GeneratedOn: time.Now().Format(displayDate),
	}

	doc.General = generalFields(a)

	for i, s := range r.Speakers {
		sv := SpeakerView{
			Index:             i + 1,
			Name:              s.Name,
			Designation:       s.FullDesignation(),
			Contact:           s.ContactInfo,
			PresentationTitle: s.PresentationTitle,
		}
		if opts.IncludeProfiles {
			sv.Profile = Paragraphs(s.ProfileText)
			img, err := loadImage(ctx, files, s.ProfileImageKey)
			if err != nil {
				return nil, err
			}
			sv.Image = img
		}
		doc.Speakers = append(doc.Speakers, sv)
	}

	for _, p := range r.Participants {
		doc.Participants = append(doc.Participants, ParticipantView{Label: p.DisplayType(), Count: p.Count})
	}
	doc.TotalParticipants = r.TotalParticipants()

	for _, b := range []Block{
		{Title: "Highlights of the Activity", Paragraphs: Paragraphs(a.Highlights)},
		{Title: "Key Takeaways", Paragraphs: Paragraphs(a.KeyTakeaway)},
		{Title: "Summary of the Activity", Paragraphs: Paragraphs(a.Summary)},
		{Title: "Follow-up Plan", Paragraphs: Paragraphs(a.FollowUpPlan)},
	} {
		if len(b.Paragraphs) > 0 {
			doc.Synopsis = append(doc.Synopsis, b)
		}
	}

	if opts.IncludePhotos {
		for i, p := range r.Photos {
			img, err := loadImage(ctx, files, p.StorageKey)
			if err != nil {
				return nil, err
			}
			if img == nil {
				continue
			}
			doc.Photos = append(doc.Photos, PhotoView{
				Index:     i + 1,
				Caption:   p.Caption,
				TypeLabel: photoTypeLabel(p.PhotoType),
				Image:     img,
			})
		}
	}

	for _, p := range r.Preparers {
		pv := PreparerView{Name: p.Name, Designation: p.Designation}
		if opts.IncludeSignatures {
			img, err := loadImage(ctx, files, p.SignatureKey)
			if err != nil {
				return nil, err
			}
			pv.Signature = img
		}
		doc.Preparers = append(doc.Preparers, pv)
	}

	return doc, nil
}

func generalFields(a *domain.Activity) []Field {
	fields := []Field{{Label: "Type of Activity", Value: a.ActivityType}}
	if sub := a.SubCategoryLabel(); sub != "" {
		fields = append(fields, Field{Label: "Sub Category", Value: sub})
	}
	fields = append(fields, Field{Label: "Date", Value: dateRange(a.StartDate, a.EndDate)})
	if a.StartTime != "" {
		t := a.StartTime
		if a.EndTime != "" {
			t += " - " + a.EndTime
		}
		fields = append(fields, Field{Label: "Time", Value: t})
	}
	if days := a.DurationDays(); days > 1 {
		fields = append(fields, Field{Label: "Duration", Value: fmt.Sprintf("%d days", days)})
	}
	if a.Venue != "" {
		fields = append(fields, Field{Label: "Venue", Value: a.Venue})
	}
	if a.CollaborationSponsor != "" {
		fields = append(fields, Field{Label: "Collaboration/Sponsor", Value: a.CollaborationSponsor})
	}
	return fields
}

// FormatDate renders an ISO date as "2 January 2006", returning the input
// unchanged when it does not parse.
func FormatDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format(displayDate)
}

func dateRange(start, end string) string {
	if end == "" || end == start {
		return FormatDate(start)
	}
	return FormatDate(start) + " to " + FormatDate(end)
}

// Paragraphs splits text on blank lines, joining wrapped lines inside a
// paragraph with a single space.
func Paragraphs(text string) []string {
	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

func photoTypeLabel(v string) string {
	for _, o := range domain.PhotoTypes {
		if o.Value == v {
			return o.Label
		}
	}
	return ""
}

func loadImage(ctx context.Context, files FileSource, key string) (*Image, error) {
	if key == "" || files == nil {
		return nil, nil
	}
	rc, mimeType, err := files.Get(ctx, key)
	if errors.Is(err, filestore.ErrNotFound) {
		slog.Warn("report image missing", "key", key)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", key, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			slog.Error("failed to close image", "key", key, "error", cerr)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", key, err)
	}
	return &Image{MimeType: mimeType, Data: data}, nil
}
