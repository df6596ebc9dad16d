package domain

// Section is one of the eight form screens, in the order they are filled in.
type Section string

const (
	SectionGeneralInfo      Section = "general_info"
	SectionSpeakerDetails   Section = "speaker_details"
	SectionParticipants     Section = "participants"
	SectionSynopsis         Section = "synopsis"
	SectionReportPreparedBy Section = "report_prepared_by"
	SectionSpeakerProfile   Section = "speaker_profile"
	SectionActivityPhotos   Section = "activity_photos"
	SectionGeneratePDF      Section = "generate_pdf"
)

var Sections = []Section{
	SectionGeneralInfo,
	SectionSpeakerDetails,
	SectionParticipants,
	SectionSynopsis,
	SectionReportPreparedBy,
	SectionSpeakerProfile,
	SectionActivityPhotos,
	SectionGeneratePDF,
}

var sectionTitles = map[Section]string{
	SectionGeneralInfo:      "General Information",
	SectionSpeakerDetails:   "Speaker Details",
	SectionParticipants:     "Participants",
	SectionSynopsis:         "Synopsis",
	SectionReportPreparedBy: "Report Prepared By",
	SectionSpeakerProfile:   "Speaker Profile",
	SectionActivityPhotos:   "Activity Photos",
	SectionGeneratePDF:      "Generate PDF",
}

func (s Section) Title() string { return sectionTitles[s] }

func (s Section) Valid() bool {
	_, ok := sectionTitles[s]
	return ok
}

// Index is the zero-based position of s, or -1.
func (s Section) Index() int {
	for i, v := range Sections {
		if v == s {
			return i
		}
	}
	return -1
}

// Next returns the following section, or "" for the last one.
func (s Section) Next() Section {
	i := s.Index()
	if i < 0 || i+1 >= len(Sections) {
		return ""
	}
	return Sections[i+1]
}

// Prev returns the preceding section, or "" for the first one.
func (s Section) Prev() Section {
	i := s.Index()
	if i <= 0 {
		return ""
	}
	return Sections[i-1]
}
