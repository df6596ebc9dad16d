// Package validate checks report drafts section by section and as a whole
// before a PDF is generated.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vbonduro/actreport/internal/domain"
)

// Result collects user-facing messages. Errors block progress; warnings do not.
type Result struct {
	Errors   []string
	Warnings []string
}

func (r Result) Valid() bool { return len(r.Errors) == 0 }

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

var (
	v = newValidator()

	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
	phoneDigits     = regexp.MustCompile(`^[0-9]{10,15}$`)
)

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})

	custom := map[string]func(string) bool{
		"activitytype":    domain.IsActivityType,
		"subcategory":     domain.IsSubCategory,
		"participanttype": domain.IsParticipantType,
		"phototype":       domain.IsPhotoType,
		"isodate":         isDate,
		"clock":           isClock,
		"phone":           IsPhone,
	}
	for tag, fn := range custom {
		fn := fn
		if err := val.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return val
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// IsPhone accepts 10 to 15 digits once spaces, dashes and parentheses are removed.
func IsPhone(s string) bool {
	return phoneDigits.MatchString(phoneSeparators.ReplaceAllString(s, ""))
}

// check runs the struct rules, restricted to fields when any are given, and
// turns failures into messages prefixed with prefix.
func check(res *Result, prefix string, s any, fields ...string) {
	var err error
	if len(fields) > 0 {
		err = v.StructPartial(s, fields...)
	} else {
		err = v.Struct(s)
	}
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.errorf("%s%v", prefix, err)
		return
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, prefix+message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s exceeds maximum length of %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s cannot exceed %s", fe.Field(), fe.Param())
	case "isodate":
		return fmt.Sprintf("Invalid %s format, expected YYYY-MM-DD", strings.ToLower(fe.Field()))
	case "clock":
		return fmt.Sprintf("Invalid %s format, expected HH:MM", strings.ToLower(fe.Field()))
	case "email|phone":
		return "Contact information should be a valid email address or phone number"
	case "activitytype", "subcategory", "participanttype", "phototype":
		return fmt.Sprintf("%s %q is not one of the available options", fe.Field(), fe.Value())
	default:
		return fe.Field() + " is invalid"
	}
}

// Sanitize trims surrounding whitespace and removes NUL bytes.
func Sanitize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\x00", "")
}

// SanitizeReport applies Sanitize to every free-text field of r in place.
func SanitizeReport(r *domain.Report) {
	a := &r.Activity
	for _, f := range []*string{
		&a.ActivityType, &a.SubCategory, &a.SubCategoryOther, &a.StartDate, &a.EndDate,
		&a.StartTime, &a.EndTime, &a.Venue, &a.CollaborationSponsor, &a.Highlights,
		&a.KeyTakeaway, &a.Summary, &a.FollowUpPlan,
	} {
		*f = Sanitize(*f)
	}
	for i := range r.Speakers {
		s := &r.Speakers[i]
		for _, f := range []*string{&s.Name, &s.TitlePosition, &s.Organization, &s.ContactInfo, &s.PresentationTitle, &s.ProfileText} {
			*f = Sanitize(*f)
		}
	}
	for i := range r.Participants {
		r.Participants[i].Type = Sanitize(r.Participants[i].Type)
	}
	for i := range r.Preparers {
		p := &r.Preparers[i]
		p.Name = Sanitize(p.Name)
		p.Designation = Sanitize(p.Designation)
	}
	for i := range r.Photos {
		r.Photos[i].Caption = Sanitize(r.Photos[i].Caption)
	}
}
