package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core/preference"
)

type preferenceRow struct {
	UserID        string    `db:"user_id"`
	TargetPercent float64   `db:"target_percent"`
	Theme         string    `db:"theme"`
	AlertsEnabled bool      `db:"alerts_enabled"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type preferenceRepository struct {
	db *sqlx.DB
}

var _ preference.Repository = (*preferenceRepository)(nil) // interface compliance check

func NewPreferenceRepository(db *sqlx.DB) preference.Repository {
	return &preferenceRepository{db: db}
}

func (repo *preferenceRepository) GetPreferences(ctx context.Context, userID string) (preference.Preferences, error) {
	if !validID(userID) {
		return preference.Preferences{}, preference.ErrNotFound
	}

	var row preferenceRow
	q := `SELECT user_id, target_percent, theme, alerts_enabled, updated_at FROM preference WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, repo.db, &row, q, userID); err != nil {
		return preference.Preferences{}, trapNoRows(err, preference.ErrNotFound, "finding preferences")
	}
	return preference.Preferences{
		UserID:        row.UserID,
		TargetPercent: row.TargetPercent,
		Theme:         preference.Theme(row.Theme),
		AlertsEnabled: row.AlertsEnabled,
		UpdatedAt:     row.UpdatedAt.UTC(),
	}, nil
}

func (repo *preferenceRepository) SavePreferences(ctx context.Context, prefs preference.Preferences) (preference.Preferences, error) {
	row := preferenceRow{
		UserID:        prefs.UserID,
		TargetPercent: prefs.TargetPercent,
		Theme:         string(prefs.Theme),
		AlertsEnabled: prefs.AlertsEnabled,
		UpdatedAt:     prefs.UpdatedAt.UTC(),
	}
	q := `INSERT INTO preference (user_id, target_percent, theme, alerts_enabled, updated_at)
		VALUES (:user_id, :target_percent, :theme, :alerts_enabled, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET target_percent = EXCLUDED.target_percent, theme = EXCLUDED.theme,
			alerts_enabled = EXCLUDED.alerts_enabled, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return preference.Preferences{}, errors.Wrap(err, "saving preferences")
	}
	return prefs, nil
}
