// Package fpdf lays the report out natively with gofpdf, for machines
// without a Chrome install.
package fpdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/vbonduro/actreport/internal/report"
)

const (
	marginMM   = 25.4
	fontFamily = "Times"
	// 12pt body text at 1.2 line height, in millimetres.
	lineHeight = 12 * 1.2 * 25.4 / 72
)

type Renderer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger}
}

func (r *Renderer) Render(ctx context.Context, doc *report.Document, w io.Writer) error {
	l := newLayout(doc)
	l.header()
	l.general()
	l.speakers()
	l.participants()
	l.synopsis()
	l.profiles()
	l.photos()
	l.preparers()
	l.generated()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	r.logger.Debug("fpdf rendered report", "activity_id", doc.ActivityID, "pages", l.pdf.PageCount())
	return nil
}

type layout struct {
	pdf    *gofpdf.Fpdf
	doc    *report.Document
	tr     func(string) string
	width  float64
	height float64
	images int
}

func newLayout(doc *report.Document) *layout {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("actreport", true)

	l := &layout{pdf: pdf, doc: doc, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	l.width, l.height = pdf.GetPageSize()

	if doc.Options.Watermark && doc.Options.WatermarkText != "" {
		pdf.SetHeaderFunc(l.watermark)
	}
	if doc.Options.PageNumbers {
		pdf.AliasNbPages("")
		pdf.SetFooterFunc(func() {
			pdf.SetY(-marginMM + 8)
			pdf.SetFont(fontFamily, "", 10)
			pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		})
	}
	pdf.AddPage()
	return l
}

func (l *layout) contentWidth() float64 {
	return l.width - 2*marginMM
}

// ensureSpace starts a new page unless h millimetres fit above the bottom margin.
func (l *layout) ensureSpace(h float64) {
	if l.pdf.GetY()+h > l.height-marginMM {
		l.pdf.AddPage()
	}
}

func (l *layout) watermark() {
	pdf := l.pdf
	text := l.tr(l.doc.Options.WatermarkText)
	pdf.SetFont(fontFamily, "B", 48)
	pdf.SetTextColor(180, 180, 180)
	pdf.SetAlpha(0.25, "Normal")
	pdf.TransformBegin()
	pdf.TransformRotate(45, l.width/2, l.height/2)
	pdf.Text((l.width-pdf.GetStringWidth(text))/2, l.height/2, text)
	pdf.TransformEnd()
	pdf.SetAlpha(1, "Normal")
	pdf.SetTextColor(0, 0, 0)
}

func (l *layout) header() {
	pdf := l.pdf
	pdf.SetFont(fontFamily, "B", 14)
	for _, line := range []string{l.doc.Header.Institution, l.doc.Header.School, l.doc.Header.Department} {
		if line != "" {
			pdf.CellFormat(0, 7, l.tr(line), "", 1, "C", false, 0, "")
		}
	}
	pdf.Ln(12)
	pdf.SetFont(fontFamily, "BU", 16)
	pdf.CellFormat(0, 8, l.tr(strings.ToUpper(l.doc.Title)), "", 1, "C", false, 0, "")
	pdf.Ln(6)
}

func (l *layout) sectionTitle(title string) {
	l.ensureSpace(20)
	l.pdf.Ln(4)
	l.pdf.SetFont(fontFamily, "BU", 14)
	l.pdf.CellFormat(0, 7, l.tr(title), "", 1, "C", false, 0, "")
	l.pdf.Ln(3)
}

func (l *layout) label(text string) {
	l.ensureSpace(2 * lineHeight)
	l.pdf.SetFont(fontFamily, "B", 12)
	l.pdf.MultiCell(0, lineHeight, l.tr(text), "", "L", false)
}

func (l *layout) value(text string) {
	l.pdf.SetFont(fontFamily, "", 12)
	l.pdf.MultiCell(0, lineHeight, l.tr(text), "", "L", false)
	l.pdf.Ln(1.5)
}

func (l *layout) paragraph(text string) {
	l.pdf.SetFont(fontFamily, "", 12)
	l.pdf.MultiCell(0, lineHeight, l.tr(text), "", "J", false)
	l.pdf.Ln(1.5)
}

func (l *layout) general() {
	l.sectionTitle("General Information")
	for _, f := range l.doc.General {
		l.label(f.Label + ":")
		l.value(f.Value)
	}
}

func (l *layout) speakers() {
	if len(l.doc.Speakers) == 0 {
		return
	}
	l.sectionTitle("Speaker Details")
	for _, s := range l.doc.Speakers {
		l.label(fmt.Sprintf("%d. %s", s.Index, s.Name))
		if s.Designation != "" {
			l.value(s.Designation)
		}
		if s.PresentationTitle != "" {
			l.value("Title of Presentation: " + s.PresentationTitle)
		}
		if s.Contact != "" {
			l.value("Contact: " + s.Contact)
		}
		l.pdf.Ln(2)
	}
}

func (l *layout) participants() {
	if len(l.doc.Participants) == 0 {
		return
	}
	l.sectionTitle("Participants Profile")
	for _, p := range l.doc.Participants {
		l.value(fmt.Sprintf("%d %s", p.Count, p.Label))
	}
	l.label(fmt.Sprintf("Total Participants: %d", l.doc.TotalParticipants))
}

func (l *layout) synopsis() {
	if len(l.doc.Synopsis) == 0 {
		return
	}
	l.sectionTitle("Synopsis of the Activity")
	for _, b := range l.doc.Synopsis {
		l.label(b.Title + ":")
		for _, p := range b.Paragraphs {
			l.paragraph(p)
		}
	}
}

func (l *layout) profiles() {
	if !l.doc.Options.IncludeProfiles || !l.doc.HasProfiles() {
		return
	}
	l.sectionTitle("Speaker Profile")
	for _, s := range l.doc.Speakers {
		if len(s.Profile) == 0 && s.Image == nil {
			continue
		}
		if s.Image != nil {
			l.image(s.Image, 40, 50, "C")
		}
		l.label(s.Name)
		for _, p := range s.Profile {
			l.paragraph(p)
		}
		l.pdf.Ln(2)
	}
}

func (l *layout) photos() {
	if len(l.doc.Photos) == 0 {
		return
	}
	l.sectionTitle("Activity Photos")
	for _, p := range l.doc.Photos {
		l.image(p.Image, l.contentWidth(), 90, "C")
		if p.Caption != "" {
			l.pdf.SetFont(fontFamily, "I", 11)
			l.pdf.MultiCell(0, 5, l.tr(p.Caption), "", "C", false)
		}
		l.pdf.Ln(5)
	}
}

func (l *layout) preparers() {
	if len(l.doc.Preparers) == 0 {
		return
	}
	l.sectionTitle("Report Prepared By")
	for _, p := range l.doc.Preparers {
		if p.Signature != nil {
			l.image(p.Signature, 50, 20, "L")
		}
		l.label(p.Name)
		l.value(p.Designation)
		l.pdf.Ln(3)
	}
}

func (l *layout) generated() {
	l.pdf.Ln(6)
	l.pdf.SetFont(fontFamily, "", 10)
	l.pdf.CellFormat(0, 5, l.tr("Report generated on "+l.doc.GeneratedOn), "", 1, "R", false, 0, "")
}

// image places img scaled to fit maxW x maxH, aligned "L" or "C", and moves
// the cursor below it.
func (l *layout) image(img *report.Image, maxW, maxH float64, align string) {
	pdf := l.pdf
	imgType := "JPG"
	data := img.Data
	if img.MimeType == "image/png" {
		imgType = "PNG"
		var err error
		if data, err = flattenPNG(data); err != nil {
			pdf.SetError(err)
			return
		}
	}
	l.images++
	name := fmt.Sprintf("img%d", l.images)
	opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if info == nil || pdf.Err() {
		return
	}

	w, h := info.Width(), info.Height()
	if w <= 0 || h <= 0 {
		return
	}
	scale := min(maxW/w, maxH/h, 1)
	w, h = w*scale, h*scale

	l.ensureSpace(h + 2)
	x := marginMM
	if align == "C" {
		x = (l.width - w) / 2
	}
	pdf.ImageOptions(name, x, pdf.GetY(), w, h, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + h + 2)
}

// flattenPNG re-encodes 16-bit and interlaced PNGs as 8-bit NRGBA, the only
// forms gofpdf can embed. Other PNGs are returned unchanged.
func flattenPNG(data []byte) ([]byte, error) {
	// IHDR follows the 8-byte signature: length, type, width, height, then
	// bit depth at 24 and interlace method at 28.
	if len(data) < 29 || (data[24] != 16 && data[28] == 0) {
		return data, nil
	}
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
