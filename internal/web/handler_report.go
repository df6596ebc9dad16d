package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vbonduro/actreport/internal/report"
	"github.com/vbonduro/actreport/internal/service"
)

// handleGenerateReport generates the PDF and sends it as a download. When the
// activity fails final validation the problems are rendered instead.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	_, _, err = s.service.GenerateReport(r.Context(), id, reportOptions(r.URL.Query()))
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		if err := s.renderPartial(w, "partials/validation.html", verr.Result); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}
	if err != nil {
		s.serviceError(w, err, "failed to generate report")
		return
	}
	s.serveReport(w, r, id)
}

// handleReportFile sends the last generated PDF without regenerating it.
func (s *Server) handleReportFile(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}
	s.serveReport(w, r, id)
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, id int64) {
	f, err := s.service.OpenReport(id)
	if err != nil {
		s.serviceError(w, err, "failed to open report")
		return
	}
	defer closeWithLog(f, "report file", s.logger)

	info, err := f.Stat()
	if err != nil {
		s.serviceError(w, err, "failed to open report")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(id)))
	http.ServeContent(w, r, report.Filename(id), info.ModTime(), f)
}

// handleReportStream generates the PDF and reports progress as server-sent
// events. Each progress event carries {"stage":"..."}; the stream ends with a
// "done" event holding the download URL or an "error" event with messages.
func (s *Server) handleReportStream(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	// Generation runs to completion even if the client goes away.
	events := s.service.GenerateReportStream(context.WithoutCancel(r.Context()), id, reportOptions(r.URL.Query()))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher, canFlush := w.(http.Flusher)

	for ev := range events {
		if r.Context().Err() != nil {
			continue
		}
		var err error
		switch {
		case ev.Err != nil:
			err = writeEvent(w, "error", map[string]any{"errors": eventErrors(ev.Err)})
			if !isValidation(ev.Err) {
				s.logger.Error("report stream failed", "activity_id", id, "error", ev.Err)
			}
		case ev.Stage == service.StageDone:
			err = writeEvent(w, "done", map[string]any{
				"url":      fmt.Sprintf("/activities/%d/report/file", id),
				"warnings": ev.Warnings,
			})
		default:
			err = writeEvent(w, "progress", map[string]string{"stage": string(ev.Stage)})
		}
		if err != nil {
			s.logger.Error("write event failed", "activity_id", id, "error", err)
			continue
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

func isValidation(err error) bool {
	var verr *service.ValidationError
	return errors.As(err, &verr)
}

// eventErrors lists the messages shown to the user for a failed generation.
func eventErrors(err error) []string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Result.Errors
	case errors.Is(err, service.ErrNotFound):
		return []string{"Activity not found"}
	default:
		return []string{"The report could not be generated, please try again"}
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := s.service.PreviewHTML(r.Context(), id, reportOptions(r.URL.Query()), &buf); err != nil {
		s.serviceError(w, err, "failed to render preview")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write preview failed", "activity_id", id, "error", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := s.service.ExportSpreadsheet(r.Context(), id, &buf); err != nil {
		s.serviceError(w, err, "failed to export activity")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="activity_report_%d.xlsx"`, id))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write export failed", "activity_id", id, "error", err)
	}
}
