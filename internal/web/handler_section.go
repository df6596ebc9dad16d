package web

import (
	"errors"
	"net/http"
	"slices"

	"github.com/vbonduro/actreport/internal/domain"
	"github.com/vbonduro/actreport/internal/draft"
	"github.com/vbonduro/actreport/internal/service"
	"github.com/vbonduro/actreport/internal/validate"
)

// sectionPage is the data behind the section form.
type sectionPage struct {
	Draft    *draft.Draft
	Report   *domain.Report
	Section  domain.Section
	Sections []domain.Section
	Result   validate.Result
	Message  string
	Captions bool

	ActivityTypes    []string
	SubCategories    []string
	ParticipantTypes []domain.Option
	PhotoTypes       []domain.Option
	MaxSpeakers      int
	MaxParticipants  int
	MaxPreparers     int
	MaxPhotos        int
	ActiveNav        string
}

func (s *Server) newSectionPage(d *draft.Draft, section domain.Section, res validate.Result) *sectionPage {
	return &sectionPage{
		Draft:            d,
		Report:           d.Report,
		Section:          section,
		Sections:         domain.Sections,
		Result:           res,
		Captions:         s.service.CaptionsEnabled(),
		ActivityTypes:    domain.ActivityTypes,
		SubCategories:    domain.SubCategories,
		ParticipantTypes: domain.ParticipantTypes,
		PhotoTypes:       domain.PhotoTypes,
		MaxSpeakers:      domain.MaxSpeakers,
		MaxParticipants:  domain.MaxParticipants,
		MaxPreparers:     domain.MaxPreparers,
		MaxPhotos:        domain.MaxPhotos,
		ActiveNav:        "activities",
	}
}

func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	section := domain.Section(r.PathValue("section"))
	if !section.Valid() {
		http.NotFound(w, r)
		return
	}
	d, err := s.service.Draft(r.PathValue("draft"))
	if err != nil {
		s.serviceError(w, err, "failed to load draft")
		return
	}

	// Only the final section shows problems up front; the others wait for input.
	var res validate.Result
	if section == domain.SectionGeneratePDF {
		res = validate.Section(section, d.Report)
	}

	if err := s.renderPage(w, s.newSectionPage(d, section, res),
		"base.html", "pages/section.html", "partials/section_form.html",
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

// handleUpdateSection stores the submitted fields in the draft and re-renders
// the section with its validation result. The op field selects a row change,
// a save or a move to the neighbouring section.
func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	section := domain.Section(r.PathValue("section"))
	if !section.Valid() {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	op := r.PostForm.Get("op")

	d, res, err := s.service.UpdateSection(r.PathValue("draft"), section, func(rep *domain.Report) error {
		return applyForm(section, r.PostForm, op, rep)
	})
	if err != nil {
		s.serviceError(w, err, "failed to update section")
		return
	}

	var message string
	switch op {
	case opNext, opPrev:
		target := section.Next()
		if op == opPrev {
			target = section.Prev()
		}
		if target != "" {
			w.Header().Set("HX-Redirect", sectionURL(d.ID, target))
			w.WriteHeader(http.StatusOK)
			return
		}
	case opSave:
		message, res = s.save(r, d.ID, res)
		if d, err = s.service.Draft(d.ID); err != nil {
			s.serviceError(w, err, "failed to load draft")
			return
		}
	}

	page := s.newSectionPage(d, section, res)
	page.Message = message
	if err := s.renderPartial(w, "partials/section_form.html", page); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

// save writes the draft and folds any refusal into the section result.
func (s *Server) save(r *http.Request, draftID string, res validate.Result) (string, validate.Result) {
	err := s.service.SaveDraft(r.Context(), draftID)
	var verr *service.ValidationError
	switch {
	case err == nil:
		return "Saved", res
	case errors.As(err, &verr):
		for _, msg := range verr.Result.Errors {
			if !slices.Contains(res.Errors, msg) {
				res.Errors = append(res.Errors, msg)
			}
		}
		return "Not saved", res
	default:
		s.logger.Error("save draft failed", "draft_id", draftID, "error", err)
		res.Errors = append(res.Errors, "The report could not be saved, please try again")
		return "Not saved", res
	}
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DiscardDraft(r.Context(), r.PathValue("draft")); err != nil {
		s.serviceError(w, err, "failed to discard draft")
		return
	}
	w.Header().Set("HX-Redirect", "/activities")
	w.WriteHeader(http.StatusOK)
}
