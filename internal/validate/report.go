package validate

import (
	"fmt"
	"strings"

	"github.com/vbonduro/actreport/internal/domain"
)

var (
	generalFields = []string{
		"ActivityType", "SubCategory", "SubCategoryOther", "StartDate", "EndDate",
		"StartTime", "EndTime", "Venue", "CollaborationSponsor",
	}
	synopsisFields = []string{"Highlights", "KeyTakeaway", "Summary", "FollowUpPlan"}
	speakerFields  = []string{"Name", "TitlePosition", "Organization", "ContactInfo", "PresentationTitle"}
	speakerProfile = []string{"ProfileText"}
)

// Section validates the fields one form section is responsible for. The
// generate_pdf section runs the full report validation.
func Section(section domain.Section, r *domain.Report) Result {
	var res Result
	switch section {
	case domain.SectionGeneralInfo:
		generalInfo(&res, &r.Activity)
	case domain.SectionSpeakerDetails:
		speakerDetails(&res, r.Speakers)
	case domain.SectionParticipants:
		participants(&res, r.Participants)
	case domain.SectionSynopsis:
		synopsis(&res, &r.Activity)
		if !r.Activity.HasSynopsis() {
			res.errorf("At least one of highlights, key takeaway, summary or follow-up plan is required")
		}
	case domain.SectionReportPreparedBy:
		preparers(&res, r.Preparers)
	case domain.SectionSpeakerProfile:
		speakerProfiles(&res, r.Speakers)
	case domain.SectionActivityPhotos:
		photos(&res, r.Photos)
	case domain.SectionGeneratePDF:
		return Report(r)
	default:
		res.errorf("Unknown section %q", section)
	}
	return res
}

// Report is the final validation run before a PDF is generated.
func Report(r *domain.Report) Result {
	var res Result
	generalInfo(&res, &r.Activity)
	speakerDetails(&res, r.Speakers)
	speakerProfiles(&res, r.Speakers)
	participants(&res, r.Participants)
	synopsis(&res, &r.Activity)
	preparers(&res, r.Preparers)
	photos(&res, r.Photos)

	a := &r.Activity
	if strings.TrimSpace(a.Venue) == "" {
		res.Warnings = append(res.Warnings, "Venue not specified - recommended for complete report")
	}
	if strings.TrimSpace(a.Highlights) == "" && strings.TrimSpace(a.Summary) == "" {
		res.Warnings = append(res.Warnings, "No highlights or summary provided - recommended for complete report")
	}
	if strings.TrimSpace(a.KeyTakeaway) == "" {
		res.Warnings = append(res.Warnings, "No key takeaways provided - recommended for complete report")
	}
	return res
}

func generalInfo(res *Result, a *domain.Activity) {
	check(res, "", a, generalFields...)

	if a.SubCategory == domain.SubCategoryOther && strings.TrimSpace(a.SubCategoryOther) == "" {
		res.errorf("Please specify sub category when 'Other' is selected")
	}
	if isDate(a.StartDate) && isDate(a.EndDate) && a.EndDate < a.StartDate {
		res.errorf("End date cannot be before start date")
	}
	sameDay := a.EndDate == "" || a.EndDate == a.StartDate
	if sameDay && isClock(a.StartTime) && isClock(a.EndTime) && a.EndTime < a.StartTime {
		res.errorf("End time cannot be before start time")
	}
}

func speakerDetails(res *Result, speakers []domain.Speaker) {
	countBetween(res, len(speakers), domain.MinSpeakers, domain.MaxSpeakers, "speaker")
	for i := range speakers {
		check(res, fmt.Sprintf("Speaker %d: ", i+1), &speakers[i], speakerFields...)
	}
}

func speakerProfiles(res *Result, speakers []domain.Speaker) {
	for i := range speakers {
		check(res, fmt.Sprintf("Speaker %d: ", i+1), &speakers[i], speakerProfile...)
	}
}

func participants(res *Result, list []domain.Participant) {
	countBetween(res, len(list), domain.MinParticipants, domain.MaxParticipants, "participant type")
	seen := make(map[string]bool, len(list))
	for i := range list {
		p := &list[i]
		prefix := fmt.Sprintf("Participant Type %d: ", i+1)
		check(res, prefix, p)
		if p.Type == "" {
			continue
		}
		if seen[p.Type] {
			res.errorf("%s%s is listed more than once", prefix, p.DisplayType())
		}
		seen[p.Type] = true
	}
}

func synopsis(res *Result, a *domain.Activity) {
	check(res, "", a, synopsisFields...)
}

func preparers(res *Result, list []domain.Preparer) {
	countBetween(res, len(list), domain.MinPreparers, domain.MaxPreparers, "report preparer")
	for i := range list {
		check(res, fmt.Sprintf("Report Preparer %d: ", i+1), &list[i])
	}
}

func photos(res *Result, list []domain.Photo) {
	if len(list) < domain.MinPhotos {
		res.errorf("Minimum %d photos required, %d uploaded", domain.MinPhotos, len(list))
	} else if len(list) > domain.MaxPhotos {
		res.errorf("No more than %d photos are allowed", domain.MaxPhotos)
	}
	for i := range list {
		check(res, fmt.Sprintf("Photo %d: ", i+1), &list[i])
	}
}

func countBetween(res *Result, n, min, max int, noun string) {
	switch {
	case n < min:
		res.errorf("At least %d %s is required", min, noun)
	case n > max:
		res.errorf("No more than %d %ss are allowed", max, noun)
	}
}

// Saveable checks the minimum a draft needs before it can be written to the
// database: a known activity type and a valid start date.
func Saveable(r *domain.Report) Result {
	var res Result
	check(&res, "", &r.Activity, "ActivityType", "StartDate")
	return res
}
