package preference

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var Themes = []Theme{ThemeLight, ThemeDark, ThemeSystem}

// Preferences are the per-user settings. A user without stored preferences gets Defaults.
type Preferences struct {
	UserID        string    `json:"-"`
	TargetPercent float64   `json:"target_percent"`
	Theme         Theme     `json:"theme"`
	AlertsEnabled bool      `json:"alerts_enabled"`
	UpdatedAt     time.Time `json:"updated_at"` // UTC; zero until saved
}

type UpdatePreferences struct {
	TargetPercent *float64 `json:"target_percent" validate:"omitempty,gt=0,lte=100"`
	Theme         *string  `json:"theme" validate:"omitempty,theme"`
	AlertsEnabled *bool    `json:"alerts_enabled"`
}

func (up *UpdatePreferences) Validate(validate *validator.Validate) error {
	return validate.Struct(up)
}

func (up UpdatePreferences) apply(prefs Preferences) Preferences {
	if up.TargetPercent != nil {
		prefs.TargetPercent = *up.TargetPercent
	}
	if up.Theme != nil {
		prefs.Theme = Theme(*up.Theme)
	}
	if up.AlertsEnabled != nil {
		prefs.AlertsEnabled = *up.AlertsEnabled
	}
	return prefs
}
