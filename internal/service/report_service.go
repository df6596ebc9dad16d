package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/vbonduro/actreport/internal/caption"
	"github.com/vbonduro/actreport/internal/domain"
	"github.com/vbonduro/actreport/internal/draft"
	"github.com/vbonduro/actreport/internal/filestore"
	"github.com/vbonduro/actreport/internal/report"
	"github.com/vbonduro/actreport/internal/validate"
)

// reportRepository is the subset of store.ReportStore that ReportService requires.
type reportRepository interface {
	Save(ctx context.Context, r *domain.Report) (int64, error)
	Load(ctx context.Context, activityID int64) (*domain.Report, error)
	List(ctx context.Context) ([]*domain.ActivitySummary, error)
	Delete(ctx context.Context, activityID int64) error
}

// Settings are the output options fixed at startup.
type Settings struct {
	OutputDir     string
	Header        report.Header
	WatermarkText string
}

type ReportService struct {
	reports   reportRepository
	collector *draft.Collector
	files     filestore.FileStore
	renderer  report.Renderer
	captioner caption.Suggester
	settings  Settings
	logger    *slog.Logger

	// saveMu keeps a manual save, the autosaver and a discard from touching
	// the same draft concurrently.
	saveMu sync.Mutex
}

// NewReportService wires the service. captioner may be nil when no caption
// backend is configured.
func NewReportService(
	reports reportRepository,
	collector *draft.Collector,
	files filestore.FileStore,
	renderer report.Renderer,
	captioner caption.Suggester,
	settings Settings,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		reports:   reports,
		collector: collector,
		files:     files,
		renderer:  renderer,
		captioner: captioner,
		settings:  settings,
		logger:    logger,
	}
}

func (s *ReportService) NewDraft() *draft.Draft {
	d := s.collector.New()
	s.logger.Debug("draft created", "draft_id", d.ID)
	return d
}

// OpenActivity loads a saved activity into a draft for editing.
func (s *ReportService) OpenActivity(ctx context.Context, activityID int64) (*draft.Draft, error) {
	r, err := s.reports.Load(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return s.collector.Open(r), nil
}

func (s *ReportService) Draft(draftID string) (*draft.Draft, error) {
	return s.collector.Get(draftID)
}

// UpdateSection applies the submitted form values and validates the section.
// The values are kept even when they fail validation so nothing typed is lost.
func (s *ReportService) UpdateSection(draftID string, section domain.Section, apply func(r *domain.Report) error) (*draft.Draft, validate.Result, error) {
	if !section.Valid() {
		return nil, validate.Result{}, fmt.Errorf("unknown section %q", section)
	}
	d, err := s.collector.Update(draftID, func(r *domain.Report) error {
		if err := apply(r); err != nil {
			return err
		}
		validate.SanitizeReport(r)
		return nil
	})
	if err != nil {
		return nil, validate.Result{}, err
	}
	return d, validate.Section(section, d.Report), nil
}

// SaveDraft writes the draft to the database, creating the activity on the
// first save, and removes files the saved report no longer references.
func (s *ReportService) SaveDraft(ctx context.Context, draftID string) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	d, err := s.collector.Get(draftID)
	if err != nil {
		return err
	}
	if res := validate.Saveable(d.Report); !res.Valid() {
		return &ValidationError{Result: res}
	}

	var previous []string
	if d.ActivityID != 0 {
		prev, err := s.reports.Load(ctx, d.ActivityID)
		if err != nil {
			return fmt.Errorf("failed to load saved activity: %w", err)
		}
		if prev != nil {
			previous = prev.FileKeys()
		}
	}

	id, err := s.reports.Save(ctx, d.Report)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	if err := s.collector.MarkSaved(d.ID, id, d.Version); err != nil {
		return err
	}

	current := d.Report.FileKeys()
	for _, key := range previous {
		if !slices.Contains(current, key) {
			s.deleteFile(ctx, key)
		}
	}

	s.logger.Info("activity saved", "draft_id", d.ID, "activity_id", id, "version", d.Version)
	return nil
}

// DiscardDraft drops a draft and deletes uploads that were never saved.
func (s *ReportService) DiscardDraft(ctx context.Context, draftID string) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	d, err := s.collector.Get(draftID)
	if err != nil {
		return err
	}

	var saved []string
	if d.ActivityID != 0 {
		prev, err := s.reports.Load(ctx, d.ActivityID)
		if err != nil {
			return fmt.Errorf("failed to load saved activity: %w", err)
		}
		if prev != nil {
			saved = prev.FileKeys()
		}
	}

	s.collector.Discard(draftID)
	for _, key := range d.Report.FileKeys() {
		if !slices.Contains(saved, key) {
			s.deleteFile(ctx, key)
		}
	}
	return nil
}

// AttachFile validates and stores an upload, then references it from the
// draft: a new activity photo, or the profile image of speaker index, or
// the signature of preparer index.
func (s *ReportService) AttachFile(ctx context.Context, draftID string, kind domain.FileKind, index int, data []byte) (*draft.Draft, error) {
	if !kind.Valid() {
		return nil, ErrUnknownFileKind
	}
	d, err := s.collector.Get(draftID)
	if err != nil {
		return nil, err
	}

	mimeType, err := validate.Image(data, kind)
	if err != nil {
		return nil, invalid(err.Error())
	}
	if err := checkAttachTarget(d.Report, kind, index); err != nil {
		return nil, err
	}

	key, err := s.files.Save(ctx, kind, filePrefix(d, kind), mimeType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	s.logger.Debug("file stored", "draft_id", draftID, "kind", kind, "key", key, "bytes", len(data))

	updated, err := s.collector.Update(draftID, func(r *domain.Report) error {
		if err := checkAttachTarget(r, kind, index); err != nil {
			return err
		}
		switch kind {
		case domain.FileActivityPhoto:
			r.Photos = append(r.Photos, domain.Photo{
				StorageKey: key,
				MimeType:   mimeType,
				PhotoType:  domain.PhotoTypeActivity,
			})
		case domain.FileSpeakerProfile:
			r.Speakers[index].ProfileImageKey = key
		case domain.FileSignature:
			r.Preparers[index].SignatureKey = key
		}
		return nil
	})
	if err != nil {
		s.deleteFile(ctx, key)
		return nil, err
	}
	return updated, nil
}

func checkAttachTarget(r *domain.Report, kind domain.FileKind, index int) error {
	switch kind {
	case domain.FileActivityPhoto:
		if len(r.Photos) >= domain.MaxPhotos {
			return ErrTooManyPhotos
		}
	case domain.FileSpeakerProfile:
		if index < 0 || index >= len(r.Speakers) {
			return ErrIndexOutOfRange
		}
	case domain.FileSignature:
		if index < 0 || index >= len(r.Preparers) {
			return ErrIndexOutOfRange
		}
	}
	return nil
}

func filePrefix(d *draft.Draft, kind domain.FileKind) string {
	switch kind {
	case domain.FileSpeakerProfile:
		return "speaker"
	case domain.FileSignature:
		return "signature"
	}
	if d.ActivityID != 0 {
		return fmt.Sprintf("activity_%d", d.ActivityID)
	}
	return "draft_" + d.ID[:8]
}

// OpenFile streams a stored file.
func (s *ReportService) OpenFile(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.files.Get(ctx, key)
}

func (s *ReportService) ListActivities(ctx context.Context) ([]*domain.ActivitySummary, error) {
	return s.reports.List(ctx)
}

// DeleteActivity removes the activity, its open draft and every file it
// references.
func (s *ReportService) DeleteActivity(ctx context.Context, activityID int64) error {
	r, err := s.reports.Load(ctx, activityID)
	if err != nil {
		return fmt.Errorf("failed to load activity: %w", err)
	}
	if r == nil {
		return ErrNotFound
	}

	if err := s.reports.Delete(ctx, activityID); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	s.collector.DiscardActivity(activityID)
	for _, key := range r.FileKeys() {
		s.deleteFile(ctx, key)
	}

	s.logger.Info("activity deleted", "activity_id", activityID)
	return nil
}

// Validate runs the final validation on the saved activity.
func (s *ReportService) Validate(ctx context.Context, activityID int64) (validate.Result, error) {
	r, err := s.load(ctx, activityID)
	if err != nil {
		return validate.Result{}, err
	}
	return validate.Report(r), nil
}

func (s *ReportService) load(ctx context.Context, activityID int64) (*domain.Report, error) {
	r, err := s.reports.Load(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

// document loads the activity and builds its printable document.
func (s *ReportService) document(ctx context.Context, activityID int64, opts report.Options) (*report.Document, error) {
	r, err := s.load(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, r, opts)
}

func (s *ReportService) build(ctx context.Context, r *domain.Report, opts report.Options) (*report.Document, error) {
	if opts.WatermarkText == "" {
		opts.WatermarkText = s.settings.WatermarkText
	}
	doc, err := report.Build(ctx, r, s.files, s.settings.Header, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare report: %w", err)
	}
	return doc, nil
}

// PreviewHTML writes the report HTML, the same markup the PDF is printed from.
func (s *ReportService) PreviewHTML(ctx context.Context, activityID int64, opts report.Options, w io.Writer) error {
	doc, err := s.document(ctx, activityID, opts)
	if err != nil {
		return err
	}
	return report.WriteHTML(w, doc)
}

// ExportSpreadsheet writes the report data as an XLSX workbook.
func (s *ReportService) ExportSpreadsheet(ctx context.Context, activityID int64, w io.Writer) error {
	doc, err := s.document(ctx, activityID, report.DefaultOptions())
	if err != nil {
		return err
	}
	return report.WriteSpreadsheet(doc, w)
}

// SuggestCaption asks the caption backend to describe photo index of the draft.
func (s *ReportService) SuggestCaption(ctx context.Context, draftID string, index int) (string, error) {
	if s.captioner == nil {
		return "", ErrCaptionsDisabled
	}
	d, err := s.collector.Get(draftID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(d.Report.Photos) {
		return "", ErrIndexOutOfRange
	}

	photo := d.Report.Photos[index]
	rc, mimeType, err := s.files.Get(ctx, photo.StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to open photo: %w", err)
	}
	defer closeWithLog(rc, s.logger)

	text, err := s.captioner.Suggest(ctx, rc, mimeType)
	if err != nil {
		return "", fmt.Errorf("failed to suggest caption: %w", err)
	}
	s.logger.Info("caption suggested", "draft_id", draftID, "photo", index+1)
	return text, nil
}

func (s *ReportService) deleteFile(ctx context.Context, key string) {
	if err := s.files.Delete(ctx, key); err != nil && !errors.Is(err, filestore.ErrNotFound) {
		s.logger.Error("failed to delete file", "key", key, "error", err)
	}
}

func closeWithLog(c io.Closer, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close", "error", err)
	}
}

// ensureOutputDir creates the directory generated reports are written to.
func (s *ReportService) ensureOutputDir() error {
	if err := os.MkdirAll(s.settings.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// OutputPath is where the PDF for activityID is written.
func (s *ReportService) OutputPath(activityID int64) string {
	return filepath.Join(s.settings.OutputDir, report.Filename(activityID))
}

// CaptionsEnabled reports whether a caption backend is configured.
func (s *ReportService) CaptionsEnabled() bool {
	return s.captioner != nil
}

// OpenReport opens the last PDF generated for activityID.
func (s *ReportService) OpenReport(activityID int64) (*os.File, error) {
	f, err := os.Open(s.OutputPath(activityID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}
