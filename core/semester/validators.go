package semester

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/grading"
)

var (
	gradeTag  = "grade"
	gradeText = "grade must be one of O, A+, A, B+, B, C, P or F"
)

// InitValidators registers the semester validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeTag, gradeValidation)
	core.RegisterCustomTranslation(validate, translator, gradeTag, gradeText)
}

func gradeValidation(fl validator.FieldLevel) bool {
	_, err := grading.ParseGrade(fl.Field().String())
	return err == nil
}
