package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/attendance"
	"github.com/trezcool/bunkguard/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(_ context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[subj.OwnerID]; !ok {
		return subject.Subject{}, errNoOwner
	}
	subj.ID = uuid.New().String()
	repo.db.subjects[subj.ID] = &subj
	return subj, nil
}

func (repo *subjectRepository) QuerySubjects(_ context.Context, ownerID string, filter *subject.QueryFilter, ordering []core.DBOrdering) ([]subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]subject.Subject, 0)
	for _, subj := range repo.db.subjects {
		if subj.OwnerID != ownerID {
			continue
		}
		if filter != nil && filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(subj.Name), search) && !strings.Contains(strings.ToLower(subj.Code), search) {
				continue
			}
		}
		subjects = append(subjects, *subj)
	}

	sortSubjects(subjects, ordering)
	return subjects, nil
}

// sortSubjects orders by name unless ordering names known fields.
func sortSubjects(subjects []subject.Subject, ordering []core.DBOrdering) {
	ordering = core.AllowedOrderings(ordering, map[string]string{
		"name": "name", "code": "code", "attended": "attended", "total": "total",
		"created_at": "created_at", "percentage": "percentage",
	})
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}

	sort.SliceStable(subjects, func(i, j int) bool {
		a, b := subjects[i], subjects[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "name":
				cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			case "code":
				cmp = strings.Compare(a.Code, b.Code)
			case "attended":
				cmp = a.Attended - b.Attended
			case "total":
				cmp = a.Total - b.Total
			case "created_at":
				cmp = compareTime(a.CreatedAt, b.CreatedAt)
			case "percentage":
				pa, pb := attendance.Percentage(a.Attended, a.Total), attendance.Percentage(b.Attended, b.Total)
				if pa < pb {
					cmp = -1
				} else if pa > pb {
					cmp = 1
				}
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return false
	})
}

func (repo *subjectRepository) get(ownerID, id string) (*subject.Subject, bool) {
	subj, ok := repo.db.subjects[id]
	if !ok || (ownerID != "" && subj.OwnerID != ownerID) {
		return nil, false
	}
	return subj, true
}

func (repo *subjectRepository) GetSubject(_ context.Context, ownerID, id string) (subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if subj, ok := repo.get(ownerID, id); ok {
		return *subj, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, ownerID, id string, update func(subj *subject.Subject) error) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.get(ownerID, id)
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	subj := *stored
	if err := update(&subj); err != nil {
		return subject.Subject{}, err
	}
	subj.ID, subj.OwnerID = stored.ID, stored.OwnerID
	repo.db.subjects[id] = &subj
	return subj, nil
}

func (repo *subjectRepository) DeleteSubjectsByID(_ context.Context, ownerID string, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	deleted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := repo.get(ownerID, id); ok {
			delete(repo.db.subjects, id)
			deleted[id] = true
		}
	}
	for id, l := range repo.db.logs {
		if deleted[l.SubjectID] {
			delete(repo.db.logs, id)
		}
	}
	for id, e := range repo.db.timetable {
		if deleted[e.SubjectID] {
			delete(repo.db.timetable, id)
		}
	}
	return len(deleted), nil
}

func (repo *subjectRepository) MarkAttendance(_ context.Context, log subject.Log) (subject.Log, subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	subj, ok := repo.get(log.OwnerID, log.SubjectID)
	if !ok {
		return subject.Log{}, subject.Subject{}, subject.ErrNotFound
	}

	da, dt := log.Status.Deltas()
	updated := *subj
	updated.Attended += da
	updated.Total += dt
	updated.UpdatedAt = log.CreatedAt.UTC()

	log.ID = uuid.New().String()
	repo.db.subjects[subj.ID] = &updated
	repo.db.logs[log.ID] = &log
	return log, updated, nil
}

func (repo *subjectRepository) UndoAttendance(_ context.Context, ownerID, subjectID, logID string) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	log, ok := repo.db.logs[logID]
	if !ok || log.SubjectID != subjectID || log.OwnerID != ownerID {
		return subject.Subject{}, subject.ErrLogNotFound
	}
	subj, ok := repo.get(ownerID, subjectID)
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}

	da, dt := log.Status.Deltas()
	updated := *subj
	updated.Total = max0(subj.Total - dt)
	updated.Attended = min(max0(subj.Attended-da), updated.Total)
	updated.UpdatedAt = time.Now().UTC()

	delete(repo.db.logs, logID)
	repo.db.subjects[subjectID] = &updated
	return updated, nil
}

func (repo *subjectRepository) QueryLogs(_ context.Context, filter subject.LogFilter) ([]subject.Log, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	logs := make([]subject.Log, 0)
	for _, l := range repo.db.logs {
		if filter.OwnerID != "" && l.OwnerID != filter.OwnerID {
			continue
		}
		if filter.SubjectID != "" && l.SubjectID != filter.SubjectID {
			continue
		}
		if !filter.From.IsZero() && l.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && l.Date.After(filter.To) {
			continue
		}
		logs = append(logs, *l)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].Date.Equal(logs[j].Date) {
			return logs[i].Date.Before(logs[j].Date)
		}
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs, nil
}

func (repo *subjectRepository) RecountSubjects(_ context.Context, ids ...string) ([]subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	type counters struct{ attended, total int }
	counts := make(map[string]counters, len(repo.db.subjects))
	for _, l := range repo.db.logs {
		da, dt := l.Status.Deltas()
		c := counts[l.SubjectID]
		c.attended += da
		c.total += dt
		counts[l.SubjectID] = c
	}

	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	now := time.Now().UTC()
	subjects := make([]subject.Subject, 0)
	for id, subj := range repo.db.subjects {
		if len(ids) > 0 && !selected[id] {
			continue
		}
		c := counts[id]
		updated := *subj
		updated.Total = max0(subj.BaseTotal + c.total)
		updated.Attended = min(max0(subj.BaseAttended+c.attended), updated.Total)
		updated.UpdatedAt = now
		repo.db.subjects[id] = &updated
		subjects = append(subjects, updated)
	}
	sortSubjects(subjects, nil)
	return subjects, nil
}

func (repo *subjectRepository) CreateTimetableEntry(_ context.Context, entry subject.TimetableEntry) (subject.TimetableEntry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.get(entry.OwnerID, entry.SubjectID); !ok {
		return subject.TimetableEntry{}, subject.ErrNotFound
	}
	entry.ID = uuid.New().String()
	repo.db.timetable[entry.ID] = &entry
	return entry, nil
}

func (repo *subjectRepository) QueryTimetable(_ context.Context, ownerID string, weekday *int) ([]subject.TimetableEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]subject.TimetableEntry, 0)
	for _, e := range repo.db.timetable {
		if e.OwnerID != ownerID || (weekday != nil && e.Weekday != *weekday) {
			continue
		}
		entries = append(entries, *e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weekday != entries[j].Weekday {
			return entries[i].Weekday < entries[j].Weekday
		}
		return entries[i].StartsAt < entries[j].StartsAt
	})
	return entries, nil
}

func (repo *subjectRepository) DeleteTimetableEntry(_ context.Context, ownerID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.timetable[id]
	if !ok || e.OwnerID != ownerID {
		return subject.ErrTimetableNotFound
	}
	delete(repo.db.timetable, id)
	return nil
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
