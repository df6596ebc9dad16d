package service

import (
	"context"
	"fmt"
	"os"

	"github.com/vbonduro/actreport/internal/report"
	"github.com/vbonduro/actreport/internal/validate"
)

// Stage names a step of PDF generation, reported to stream listeners.
type Stage string

const (
	StageLoading    Stage = "loading"
	StageValidating Stage = "validating"
	StagePreparing  Stage = "preparing"
	StageRendering  Stage = "rendering"
	StageWriting    Stage = "writing"
	StageDone       Stage = "done"
)

// ProgressEvent is one update from GenerateReportStream. The final event has
// Stage done with Path set, or carries Err.
type ProgressEvent struct {
	Stage    Stage
	Path     string
	Warnings []string
	Err      error
}

// GenerateReport validates the saved activity, renders it and writes
// activity_report_<id>.pdf to the output directory, returning its path.
func (s *ReportService) GenerateReport(ctx context.Context, activityID int64, opts report.Options) (string, []string, error) {
	return s.generate(ctx, activityID, opts, func(Stage) {})
}

// GenerateReportStream runs GenerateReport in the background and reports each
// stage on the returned channel, which is closed after the final event.
func (s *ReportService) GenerateReportStream(ctx context.Context, activityID int64, opts report.Options) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 8)
	go func() {
		defer close(ch)
		send := func(ev ProgressEvent) {
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		}

		path, warnings, err := s.generate(ctx, activityID, opts, func(st Stage) {
			send(ProgressEvent{Stage: st})
		})
		if err != nil {
			send(ProgressEvent{Err: err})
			return
		}
		send(ProgressEvent{Stage: StageDone, Path: path, Warnings: warnings})
	}()
	return ch
}

func (s *ReportService) generate(ctx context.Context, activityID int64, opts report.Options, progress func(Stage)) (string, []string, error) {
	s.logger.Info("report generation started", "activity_id", activityID)

	progress(StageLoading)
	r, err := s.load(ctx, activityID)
	if err != nil {
		return "", nil, err
	}

	progress(StageValidating)
	res := validate.Report(r)
	if !res.Valid() {
		return "", res.Warnings, &ValidationError{Result: res}
	}

	progress(StagePreparing)
	doc, err := s.build(ctx, r, opts)
	if err != nil {
		return "", nil, err
	}

	if err := s.ensureOutputDir(); err != nil {
		return "", nil, err
	}
	tmp, err := os.CreateTemp(s.settings.OutputDir, ".activity_report_*.pdf.tmp")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
				s.logger.Error("failed to remove temp report", "path", tmpName, "error", err)
			}
		}
	}()

	progress(StageRendering)
	if err := s.renderer.Render(ctx, doc, tmp); err != nil {
		_ = tmp.Close()
		return "", nil, fmt.Errorf("failed to render report: %w", err)
	}

	progress(StageWriting)
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", nil, fmt.Errorf("failed to flush report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", nil, fmt.Errorf("failed to close report: %w", err)
	}
	path := s.OutputPath(activityID)
	if err := os.Rename(tmpName, path); err != nil {
		return "", nil, fmt.Errorf("failed to move report into place: %w", err)
	}
	committed = true

	s.logger.Info("report generated", "activity_id", activityID, "path", path, "warnings", len(res.Warnings))
	return path, res.Warnings, nil
}
