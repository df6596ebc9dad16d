package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vbonduro/actreport/internal/domain"
	"github.com/vbonduro/actreport/internal/report"
	"github.com/vbonduro/actreport/internal/service"
)

// Form ops submitted by the section buttons.
const (
	opAdd    = "add"
	opRemove = "remove:"
	opSave   = "save"
	opNext   = "next"
	opPrev   = "prev"
)

func sectionURL(draftID string, section domain.Section) string {
	return fmt.Sprintf("/drafts/%s/sections/%s", url.PathEscape(draftID), section)
}

func formatDate(iso string) string {
	return report.FormatDate(iso)
}

// formValue returns the i-th value submitted for name, or "".
func formValue(form url.Values, name string, i int) string {
	if v := form[name]; i < len(v) {
		return v[i]
	}
	return ""
}

// applyForm copies the submitted section fields into r, then applies the row
// operation named by op. Repeated rows arrive as parallel value lists, one
// entry per row in display order.
func applyForm(section domain.Section, form url.Values, op string, r *domain.Report) error {
	switch section {
	case domain.SectionGeneralInfo:
		a := &r.Activity
		a.ActivityType = form.Get("activity_type")
		a.SubCategory = form.Get("sub_category")
		a.SubCategoryOther = form.Get("sub_category_other")
		a.StartDate = form.Get("start_date")
		a.EndDate = form.Get("end_date")
		a.StartTime = form.Get("start_time")
		a.EndTime = form.Get("end_time")
		a.Venue = form.Get("venue")
		a.CollaborationSponsor = form.Get("collaboration_sponsor")
	case domain.SectionSpeakerDetails:
		n := len(form["speaker_name"])
		speakers := make([]domain.Speaker, n)
		for i := range speakers {
			if i < len(r.Speakers) {
				speakers[i] = r.Speakers[i]
			}
			sp := &speakers[i]
			sp.Name = formValue(form, "speaker_name", i)
			sp.TitlePosition = formValue(form, "speaker_title", i)
			sp.Organization = formValue(form, "speaker_organization", i)
			sp.ContactInfo = formValue(form, "speaker_contact", i)
			sp.PresentationTitle = formValue(form, "speaker_presentation", i)
		}
		r.Speakers = speakers
	case domain.SectionParticipants:
		n := len(form["participant_type"])
		list := make([]domain.Participant, n)
		for i := range list {
			if i < len(r.Participants) {
				list[i] = r.Participants[i]
			}
			list[i].Type = formValue(form, "participant_type", i)
			list[i].Count = parseCount(formValue(form, "participant_count", i))
		}
		r.Participants = list
	case domain.SectionSynopsis:
		a := &r.Activity
		a.Highlights = form.Get("highlights")
		a.KeyTakeaway = form.Get("key_takeaway")
		a.Summary = form.Get("summary")
		a.FollowUpPlan = form.Get("follow_up_plan")
	case domain.SectionReportPreparedBy:
		n := len(form["preparer_name"])
		list := make([]domain.Preparer, n)
		for i := range list {
			if i < len(r.Preparers) {
				list[i] = r.Preparers[i]
			}
			list[i].Name = formValue(form, "preparer_name", i)
			list[i].Designation = formValue(form, "preparer_designation", i)
		}
		r.Preparers = list
	case domain.SectionSpeakerProfile:
		for i := range r.Speakers {
			if v, ok := form["speaker_profile"]; ok && i < len(v) {
				r.Speakers[i].ProfileText = v[i]
			}
		}
	case domain.SectionActivityPhotos:
		for i := range r.Photos {
			if v, ok := form["photo_type"]; ok && i < len(v) {
				r.Photos[i].PhotoType = v[i]
			}
			if v, ok := form["photo_caption"]; ok && i < len(v) {
				r.Photos[i].Caption = v[i]
			}
		}
	}
	return applyRowOp(section, op, r)
}

// parseCount reads a participant count; anything unparsable becomes 0 and
// fails validation.
func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func applyRowOp(section domain.Section, op string, r *domain.Report) error {
	switch {
	case op == opAdd:
		switch section {
		case domain.SectionSpeakerDetails:
			if len(r.Speakers) < domain.MaxSpeakers {
				r.Speakers = append(r.Speakers, domain.Speaker{})
			}
		case domain.SectionParticipants:
			if len(r.Participants) < domain.MaxParticipants {
				r.Participants = append(r.Participants, domain.Participant{})
			}
		case domain.SectionReportPreparedBy:
			if len(r.Preparers) < domain.MaxPreparers {
				r.Preparers = append(r.Preparers, domain.Preparer{})
			}
		}
	case strings.HasPrefix(op, opRemove):
		i, err := strconv.Atoi(strings.TrimPrefix(op, opRemove))
		if err != nil {
			return service.ErrIndexOutOfRange
		}
		switch section {
		case domain.SectionSpeakerDetails:
			return removeRow(&r.Speakers, i)
		case domain.SectionParticipants:
			return removeRow(&r.Participants, i)
		case domain.SectionReportPreparedBy:
			return removeRow(&r.Preparers, i)
		case domain.SectionActivityPhotos:
			return removeRow(&r.Photos, i)
		}
	}
	return nil
}

func removeRow[T any](rows *[]T, i int) error {
	if i < 0 || i >= len(*rows) {
		return service.ErrIndexOutOfRange
	}
	*rows = append((*rows)[:i], (*rows)[i+1:]...)
	return nil
}

// reportOptions reads the exclusion flags of the generate form.
func reportOptions(q url.Values) report.Options {
	opts := report.DefaultOptions()
	opts.IncludePhotos = !q.Has("no_photos")
	opts.IncludeProfiles = !q.Has("no_profiles")
	opts.IncludeSignatures = !q.Has("no_signatures")
	opts.Watermark = !q.Has("no_watermark")
	opts.PageNumbers = !q.Has("no_page_numbers")
	return opts
}
