package web

import (
	"net/http"

	"github.com/vbonduro/actreport/internal/domain"
)

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := s.service.ListActivities(r.Context())
	if err != nil {
		s.serviceError(w, err, "failed to list activities")
		return
	}

	if err := s.renderPage(w,
		map[string]any{"Activities": activities, "ActiveNav": "activities"},
		"base.html", "pages/activities.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleNewActivity starts an empty draft and sends the browser to its first
// section.
func (s *Server) handleNewActivity(w http.ResponseWriter, r *http.Request) {
	d := s.service.NewDraft()
	http.Redirect(w, r, sectionURL(d.ID, domain.SectionGeneralInfo), http.StatusSeeOther)
}

func (s *Server) handleEditActivity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	d, err := s.service.OpenActivity(r.Context(), id)
	if err != nil {
		s.serviceError(w, err, "failed to open activity")
		return
	}
	http.Redirect(w, r, sectionURL(d.ID, domain.SectionGeneralInfo), http.StatusSeeOther)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	if err := s.service.DeleteActivity(r.Context(), id); err != nil {
		s.serviceError(w, err, "failed to delete activity")
		return
	}

	w.Header().Set("HX-Redirect", "/activities")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	res, err := s.service.Validate(r.Context(), id)
	if err != nil {
		s.serviceError(w, err, "failed to validate activity")
		return
	}
	if err := s.renderPartial(w, "partials/validation.html", res); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}
