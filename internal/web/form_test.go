package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/actreport/internal/domain"
	"github.com/vbonduro/actreport/internal/service"
)

func TestApplyFormGeneralInfo(t *testing.T) {
	form := url.Values{
		"activity_type":         {"Workshop"},
		"sub_category":          {"Other"},
		"sub_category_other":    {"Hackathon"},
		"start_date":            {"2025-03-10"},
		"end_date":              {"2025-03-11"},
		"start_time":            {"09:30"},
		"end_time":              {"16:00"},
		"venue":                 {"Block A"},
		"collaboration_sponsor": {"IEEE"},
	}
	r := &domain.Report{Activity: domain.Activity{ID: 4, Highlights: "kept"}}

	require.NoError(t, applyForm(domain.SectionGeneralInfo, form, "", r))
	assert.Equal(t, "Workshop", r.Activity.ActivityType)
	assert.Equal(t, "Hackathon", r.Activity.SubCategoryLabel())
	assert.Equal(t, "2025-03-11", r.Activity.EndDate)
	assert.Equal(t, "16:00", r.Activity.EndTime)
	assert.Equal(t, "IEEE", r.Activity.CollaborationSponsor)
	assert.Equal(t, "kept", r.Activity.Highlights)
	assert.Equal(t, int64(4), r.Activity.ID)
}

func TestApplyFormSpeakersKeepsProfile(t *testing.T) {
	r := &domain.Report{Speakers: []domain.Speaker{
		{ID: 1, Name: "Old", ProfileText: "Bio", ProfileImageKey: "images/speakers/a.jpg"},
	}}
	form := url.Values{
		"speaker_name":         {"Dr. Ada", "Mr. Bo"},
		"speaker_title":        {"Professor", ""},
		"speaker_organization": {"IISc", "ACME"},
		"speaker_contact":      {"ada@example.com"},
		"speaker_presentation": {"AI Today", "Tools"},
	}

	require.NoError(t, applyForm(domain.SectionSpeakerDetails, form, "", r))
	require.Len(t, r.Speakers, 2)
	assert.Equal(t, "Dr. Ada", r.Speakers[0].Name)
	assert.Equal(t, "Bio", r.Speakers[0].ProfileText)
	assert.Equal(t, "images/speakers/a.jpg", r.Speakers[0].ProfileImageKey)
	assert.Equal(t, "Mr. Bo", r.Speakers[1].Name)
	assert.Empty(t, r.Speakers[1].ContactInfo)
}

func TestApplyFormRowOps(t *testing.T) {
	r := &domain.Report{}
	form := url.Values{}

	require.NoError(t, applyForm(domain.SectionParticipants, form, opAdd, r))
	require.Len(t, r.Participants, 1)

	form = url.Values{
		"participant_type":  {"student", "faculty"},
		"participant_count": {"40", "x"},
	}
	require.NoError(t, applyForm(domain.SectionParticipants, form, "", r))
	require.Len(t, r.Participants, 2)
	assert.Equal(t, 40, r.Participants[0].Count)
	assert.Equal(t, 0, r.Participants[1].Count, "unparsable counts become zero")

	require.NoError(t, applyForm(domain.SectionParticipants, form, "remove:0", r))
	require.Len(t, r.Participants, 1)
	assert.Equal(t, "faculty", r.Participants[0].Type)

	err := applyForm(domain.SectionParticipants, url.Values{"participant_type": {"faculty"}}, "remove:3", r)
	assert.ErrorIs(t, err, service.ErrIndexOutOfRange)
	err = applyForm(domain.SectionParticipants, url.Values{"participant_type": {"faculty"}}, "remove:x", r)
	assert.ErrorIs(t, err, service.ErrIndexOutOfRange)
}

func TestApplyFormAddStopsAtLimit(t *testing.T) {
	r := &domain.Report{Preparers: make([]domain.Preparer, domain.MaxPreparers)}
	form := url.Values{"preparer_name": make([]string, domain.MaxPreparers)}

	require.NoError(t, applyForm(domain.SectionReportPreparedBy, form, opAdd, r))
	assert.Len(t, r.Preparers, domain.MaxPreparers)
}

func TestApplyFormPhotos(t *testing.T) {
	r := &domain.Report{Photos: []domain.Photo{
		{StorageKey: "a.jpg", PhotoType: "activity"},
		{StorageKey: "b.jpg", PhotoType: "activity"},
	}}
	form := url.Values{
		"photo_type":    {"speaker", "other"},
		"photo_caption": {"Keynote", "Group photo"},
	}

	require.NoError(t, applyForm(domain.SectionActivityPhotos, form, "remove:0", r))
	require.Len(t, r.Photos, 1)
	assert.Equal(t, "b.jpg", r.Photos[0].StorageKey)
	assert.Equal(t, "other", r.Photos[0].PhotoType)
	assert.Equal(t, "Group photo", r.Photos[0].Caption)
}

func TestApplyFormSpeakerProfile(t *testing.T) {
	r := &domain.Report{Speakers: []domain.Speaker{{Name: "A"}, {Name: "B", ProfileText: "old"}}}

	require.NoError(t, applyForm(domain.SectionSpeakerProfile, url.Values{"speaker_profile": {"Bio A"}}, "", r))
	assert.Equal(t, "Bio A", r.Speakers[0].ProfileText)
	assert.Equal(t, "old", r.Speakers[1].ProfileText)
}

func TestReportOptions(t *testing.T) {
	opts := reportOptions(url.Values{})
	assert.True(t, opts.IncludePhotos)
	assert.True(t, opts.PageNumbers)

	opts = reportOptions(url.Values{"no_photos": {"1"}, "no_watermark": {"1"}})
	assert.False(t, opts.IncludePhotos)
	assert.False(t, opts.Watermark)
	assert.True(t, opts.IncludeSignatures)
}

func TestSectionURL(t *testing.T) {
	assert.Equal(t, "/drafts/abc/sections/synopsis", sectionURL("abc", domain.SectionSynopsis))
}
