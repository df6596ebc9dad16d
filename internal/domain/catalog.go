package domain

// ActivityTypes is the list offered in the general information section.
var ActivityTypes = []string{
	"Seminar",
	"Workshop",
	"Conference",
	"Technical Talk",
	"Guest Talk",
	"Industry Visit",
	"Sports",
	"Cultural Competition",
	"Technical fest/ Academic fests",
	"CAADS",
	"Research Clubs / or any other Clubs",
	"Newsletter",
	"Alumni",
	"Faculty Development Program",
	"Quality Improvement Program",
	"Refresher Course",
	"MoU",
	"Outreach Activity",
	"International Event",
}

const SubCategoryOther = "Other"

var SubCategories = []string{
	"Competitive Exam",
	"Career Guidance",
	"Skill Development",
	"Communication Skills",
	"Women Event",
	"Emerging Trends and Technology",
	"Life Skills",
	"Soft Skills/ Skill Development",
	SubCategoryOther,
}

const (
	ParticipantFaculty         = "faculty"
	ParticipantStudent         = "student"
	ParticipantResearchScholar = "research_scholar"
)

// Option is a value/label pair for select inputs.
type Option struct {
	Value string
	Label string
}

var ParticipantTypes = []Option{
	{ParticipantFaculty, "Faculty"},
	{ParticipantStudent, "Student"},
	{ParticipantResearchScholar, "Research Scholar"},
}

const (
	PhotoTypeActivity = "activity"
	PhotoTypeSpeaker  = "speaker"
	PhotoTypeOther    = "other"
)

var PhotoTypes = []Option{
	{PhotoTypeActivity, "Activity Photo"},
	{PhotoTypeSpeaker, "Speaker Photo"},
	{PhotoTypeOther, "Other"},
}

// Section limits.
const (
	MinSpeakers     = 1
	MaxSpeakers     = 10
	MinParticipants = 1
	MaxParticipants = 10
	MinPreparers    = 1
	MaxPreparers    = 5
	MinPhotos       = 2
	MaxPhotos       = 10
)

// FileKind identifies what an uploaded file is used for.
type FileKind string

const (
	FileActivityPhoto  FileKind = "activity_photo"
	FileSpeakerProfile FileKind = "speaker_profile"
	FileSignature      FileKind = "signature"
)

// MaxBytes is the upload size limit for the kind.
func (k FileKind) MaxBytes() int64 {
	switch k {
	case FileSignature:
		return 2 << 20
	default:
		return 5 << 20
	}
}

// Valid reports whether k is a known kind.
func (k FileKind) Valid() bool {
	switch k {
	case FileActivityPhoto, FileSpeakerProfile, FileSignature:
		return true
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsOption(list []Option, v string) bool {
	for _, o := range list {
		if o.Value == v {
			return true
		}
	}
	return false
}

func IsActivityType(v string) bool    { return contains(ActivityTypes, v) }
func IsSubCategory(v string) bool     { return contains(SubCategories, v) }
func IsParticipantType(v string) bool { return containsOption(ParticipantTypes, v) }
func IsPhotoType(v string) bool       { return containsOption(PhotoTypes, v) }
