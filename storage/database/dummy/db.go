// Package dummydb implements the repositories in memory. Used by tests and the `memory` database engine.
package dummydb

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core/preference"
	"github.com/trezcool/bunkguard/core/semester"
	"github.com/trezcool/bunkguard/core/subject"
	"github.com/trezcool/bunkguard/core/user"
)

// errNoOwner mimics a foreign key violation on the owner.
var errNoOwner = errors.New("owner does not exist")

// DB holds every table behind a single lock so that cascades stay consistent.
type DB struct {
	sync.RWMutex

	users       map[string]*user.User
	subjects    map[string]*subject.Subject
	logs        map[string]*subject.Log
	timetable   map[string]*subject.TimetableEntry
	semesters   map[string]*semester.Semester
	preferences map[string]*preference.Preferences
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		subjects:    make(map[string]*subject.Subject),
		logs:        make(map[string]*subject.Log),
		timetable:   make(map[string]*subject.TimetableEntry),
		semesters:   make(map[string]*semester.Semester),
		preferences: make(map[string]*preference.Preferences),
	}
}

// deleteOwned drops everything owned by the users. Callers hold the write lock.
func (db *DB) deleteOwned(userIDs map[string]bool) {
	for id, subj := range db.subjects {
		if userIDs[subj.OwnerID] {
			delete(db.subjects, id)
		}
	}
	for id, l := range db.logs {
		if userIDs[l.OwnerID] {
			delete(db.logs, id)
		}
	}
	for id, e := range db.timetable {
		if userIDs[e.OwnerID] {
			delete(db.timetable, id)
		}
	}
	for id, sem := range db.semesters {
		if userIDs[sem.OwnerID] {
			delete(db.semesters, id)
		}
	}
	for id := range userIDs {
		delete(db.preferences, id)
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
