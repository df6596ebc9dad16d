package domain

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Activity is the central record of one reportable event. Dates are kept as
// ISO strings (YYYY-MM-DD) and times as HH:MM, the way the form inputs submit them.
type Activity struct {
	ID                   int64
	ActivityType         string `validate:"required,max=50,activitytype" label:"Activity type"`
	SubCategory          string `validate:"omitempty,subcategory" label:"Sub category"`
	SubCategoryOther     string `validate:"max=200" label:"Sub category (other)"`
	StartDate            string `validate:"required,isodate" label:"Start date"`
	EndDate              string `validate:"omitempty,isodate" label:"End date"`
	StartTime            string `validate:"omitempty,clock" label:"Start time"`
	EndTime              string `validate:"omitempty,clock" label:"End time"`
	Venue                string `validate:"max=200" label:"Venue"`
	CollaborationSponsor string `validate:"max=500" label:"Collaboration/Sponsor"`
	Highlights           string `validate:"max=2000" label:"Highlights"`
	KeyTakeaway          string `validate:"max=2000" label:"Key takeaway"`
	Summary              string `validate:"max=3000" label:"Summary"`
	FollowUpPlan         string `validate:"max=2000" label:"Follow-up plan"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DurationDays is the inclusive number of days the activity spans. It is 1 when
// no (or an unparsable) end date is set.
func (a *Activity) DurationDays() int {
	start, err := time.Parse(dateLayout, a.StartDate)
	if err != nil {
		return 1
	}
	end, err := time.Parse(dateLayout, a.EndDate)
	if err != nil || end.Before(start) {
		return 1
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// SubCategoryLabel returns the free-text sub category when "Other" was chosen.
func (a *Activity) SubCategoryLabel() string {
	if a.SubCategory == SubCategoryOther && a.SubCategoryOther != "" {
		return a.SubCategoryOther
	}
	return a.SubCategory
}

// HasSynopsis reports whether any of the synopsis fields carries content.
func (a *Activity) HasSynopsis() bool {
	for _, s := range []string{a.Highlights, a.KeyTakeaway, a.Summary, a.FollowUpPlan} {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

type Speaker struct {
	ID                int64
	ActivityID        int64
	Name              string `validate:"required,max=100" label:"Name"`
	TitlePosition     string `validate:"max=100" label:"Title/Position"`
	Organization      string `validate:"max=150" label:"Organization"`
	ContactInfo       string `validate:"omitempty,max=200,email|phone" label:"Contact information"`
	PresentationTitle string `validate:"max=200" label:"Presentation title"`
	ProfileText       string `validate:"max=1000" label:"Speaker profile"`
	ProfileImageKey   string
}

// FullDesignation joins title and organization, skipping empty parts.
func (s *Speaker) FullDesignation() string {
	parts := make([]string, 0, 2)
	if s.TitlePosition != "" {
		parts = append(parts, s.TitlePosition)
	}
	if s.Organization != "" {
		parts = append(parts, s.Organization)
	}
	return strings.Join(parts, ", ")
}

type Participant struct {
	ID         int64
	ActivityID int64
	Type       string `validate:"required,participanttype" label:"Participant type"`
	Count      int    `validate:"gte=1,lte=9999" label:"Participant count"`
}

// DisplayType is the plural label used in the report.
func (p *Participant) DisplayType() string {
	switch p.Type {
	case ParticipantFaculty:
		return "Faculty"
	case ParticipantStudent:
		return "Students"
	case ParticipantResearchScholar:
		return "Research Scholars"
	default:
		if p.Type == "" {
			return ""
		}
		return strings.ToUpper(p.Type[:1]) + p.Type[1:]
	}
}

type Preparer struct {
	ID           int64
	ActivityID   int64
	Name         string `validate:"required,max=100" label:"Name"`
	Designation  string `validate:"required,max=100" label:"Designation"`
	SignatureKey string
}

type Photo struct {
	ID         int64
	ActivityID int64
	StorageKey string `validate:"required" label:"Photo file"`
	MimeType   string
	PhotoType  string `validate:"required,phototype" label:"Photo type"`
	Caption    string `validate:"max=100" label:"Caption"`
}

// Report is an activity together with every record that belongs to it.
type Report struct {
	Activity     Activity
	Speakers     []Speaker
	Participants []Participant
	Preparers    []Preparer
	Photos       []Photo
}

// Clone returns a deep copy so snapshots can be handed out without sharing slices.
func (r *Report) Clone() *Report {
	c := &Report{Activity: r.Activity}
	c.Speakers = append([]Speaker(nil), r.Speakers...)
	c.Participants = append([]Participant(nil), r.Participants...)
	c.Preparers = append([]Preparer(nil), r.Preparers...)
	c.Photos = append([]Photo(nil), r.Photos...)
	return c
}

// TotalParticipants sums the participant counts.
func (r *Report) TotalParticipants() int {
	total := 0
	for _, p := range r.Participants {
		total += p.Count
	}
	return total
}

// FileKeys lists every file store key referenced by the report.
func (r *Report) FileKeys() []string {
	var keys []string
	for _, s := range r.Speakers {
		if s.ProfileImageKey != "" {
			keys = append(keys, s.ProfileImageKey)
		}
	}
	for _, p := range r.Preparers {
		if p.SignatureKey != "" {
			keys = append(keys, p.SignatureKey)
		}
	}
	for _, p := range r.Photos {
		if p.StorageKey != "" {
			keys = append(keys, p.StorageKey)
		}
	}
	return keys
}

// ActivitySummary is the row shown in the activity list.
type ActivitySummary struct {
	ID           int64
	ActivityType string
	StartDate    string
	Venue        string
	CreatedAt    time.Time
}
