package preference

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bunkguard/core"
)

var (
	themeTag  = "theme"
	themeText = "theme must be one of light, dark or system"
)

// InitValidators registers the preference validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(themeTag, themeValidation)
	core.RegisterCustomTranslation(validate, translator, themeTag, themeText)
}

func themeValidation(fl validator.FieldLevel) bool {
	theme := Theme(fl.Field().String())
	for _, t := range Themes {
		if t == theme {
			return true
		}
	}
	return false
}
