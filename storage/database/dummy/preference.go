package dummydb

import (
	"context"

	"github.com/trezcool/bunkguard/core/preference"
)

type preferenceRepository struct {
	db *DB
}

var _ preference.Repository = (*preferenceRepository)(nil) // interface compliance check

func NewPreferenceRepository(db *DB) preference.Repository {
	return &preferenceRepository{db: db}
}

func (repo *preferenceRepository) GetPreferences(_ context.Context, userID string) (preference.Preferences, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prefs, ok := repo.db.preferences[userID]; ok {
		return *prefs, nil
	}
	return preference.Preferences{}, preference.ErrNotFound
}

func (repo *preferenceRepository) SavePreferences(_ context.Context, prefs preference.Preferences) (preference.Preferences, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[prefs.UserID]; !ok {
		return preference.Preferences{}, errNoOwner
	}
	repo.db.preferences[prefs.UserID] = &prefs
	return prefs, nil
}
