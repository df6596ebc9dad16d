package web

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/actreport/internal/draft"
	"github.com/vbonduro/actreport/internal/service"
)

type Server struct {
	service   *service.ReportService
	templates embed.FS
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
}

func NewServer(svc *service.ReportService, tmpl embed.FS, logger *slog.Logger) *Server {
	s := &Server{
		service:   svc,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"inc":        func(i int) int { return i + 1 },
			"sectionURL": sectionURL,
			"formatDate": formatDate,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/activities", http.StatusSeeOther)
	})
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.mux.HandleFunc("GET /activities", s.handleListActivities)
	s.mux.HandleFunc("POST /activities", s.handleNewActivity)
	s.mux.HandleFunc("GET /activities/{id}/edit", s.handleEditActivity)
	s.mux.HandleFunc("DELETE /activities/{id}", s.handleDeleteActivity)
	s.mux.HandleFunc("GET /activities/{id}/validation", s.handleValidation)
	s.mux.HandleFunc("GET /activities/{id}/report.pdf", s.handleGenerateReport)
	s.mux.HandleFunc("GET /activities/{id}/report/stream", s.handleReportStream)
	s.mux.HandleFunc("GET /activities/{id}/report/file", s.handleReportFile)
	s.mux.HandleFunc("GET /activities/{id}/preview", s.handlePreview)
	s.mux.HandleFunc("GET /activities/{id}/export.xlsx", s.handleExport)

	s.mux.HandleFunc("GET /drafts/{draft}/sections/{section}", s.handleGetSection)
	s.mux.HandleFunc("POST /drafts/{draft}/sections/{section}", s.handleUpdateSection)
	s.mux.HandleFunc("DELETE /drafts/{draft}", s.handleDiscardDraft)
	s.mux.HandleFunc("POST /drafts/{draft}/uploads/{kind}", s.handleUpload)
	s.mux.HandleFunc("POST /drafts/{draft}/photos/{index}/caption", s.handleSuggestCaption)

	s.mux.HandleFunc("GET /files/{key...}", s.handleGetFile)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses streaming through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for addr. PDF rendering can take a while,
// hence the long write timeout.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses and executes a single named partial template.
// The file must contain exactly one {{define "name"}}...{{end}} block.
func (s *Server) renderPartial(w http.ResponseWriter, file string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	basename := file
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		basename = file[idx+1:]
	}
	for _, t := range tmpl.Templates() {
		if n := t.Name(); n != "" && n != basename {
			return t.Execute(w, data)
		}
	}
	return tmpl.ExecuteTemplate(w, basename, data)
}

// serviceError maps service errors onto HTTP status codes. Unexpected errors
// are logged and reported as 500 with msg.
func (s *Server) serviceError(w http.ResponseWriter, err error, msg string) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, draft.ErrDraftNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &verr):
		http.Error(w, strings.Join(verr.Result.Errors, "\n"), http.StatusUnprocessableEntity)
	case errors.Is(err, service.ErrIndexOutOfRange),
		errors.Is(err, service.ErrTooManyPhotos),
		errors.Is(err, service.ErrUnknownFileKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrCaptionsDisabled):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, msg, http.StatusInternalServerError)
		s.logger.Error(msg, "error", err)
	}
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
