package subject

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bunkguard/core"
)

var (
	statusTag  = "status"
	statusText = "status must be one of present, late, absent or cancelled"

	hhmmTag   = "hhmm"
	hhmmText  = "must be a time formatted as HH:MM"
	hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	endsBeforeStartTag  = "ends_after_start"
	endsBeforeStartText = "ends_at must be later than starts_at"
)

// InitValidators registers the subject validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(hhmmTag, hhmmValidation)
	core.RegisterCustomTranslation(validate, translator, hhmmTag, hhmmText)

	validate.RegisterStructValidation(timetableStructValidation, NewTimetableEntry{})
	core.RegisterCustomTranslation(validate, translator, endsBeforeStartTag, endsBeforeStartText)
}

func statusValidation(fl validator.FieldLevel) bool {
	status := Status(fl.Field().String())
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func hhmmValidation(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

// timetableStructValidation checks that a timetable entry ends after it starts.
func timetableStructValidation(sl validator.StructLevel) {
	ne, ok := sl.Current().Interface().(NewTimetableEntry)
	if !ok {
		return
	}
	// HH:MM strings compare in time order
	if hhmmRegex.MatchString(ne.StartsAt) && hhmmRegex.MatchString(ne.EndsAt) && ne.EndsAt <= ne.StartsAt {
		sl.ReportError(ne.EndsAt, "ends_at", "EndsAt", endsBeforeStartTag, "")
	}
}
