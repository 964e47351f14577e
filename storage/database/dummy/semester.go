package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/bunkguard/core/semester"
)

type semesterRepository struct {
	db *DB
}

var _ semester.Repository = (*semesterRepository)(nil) // interface compliance check

func NewSemesterRepository(db *DB) semester.Repository {
	return &semesterRepository{db: db}
}

func (repo *semesterRepository) numberTaken(sem semester.Semester) bool {
	for _, s := range repo.db.semesters {
		if s.OwnerID == sem.OwnerID && s.Number == sem.Number && s.ID != sem.ID {
			return true
		}
	}
	return false
}

func withCourseIDs(sem semester.Semester) semester.Semester {
	courses := make([]semester.Course, 0, len(sem.Courses))
	for _, c := range sem.Courses {
		c.ID = uuid.New().String()
		c.SemesterID = sem.ID
		courses = append(courses, c)
	}
	sem.Courses = courses
	return sem
}

// copySemester keeps callers from mutating stored courses.
func copySemester(sem *semester.Semester) semester.Semester {
	cp := *sem
	cp.Courses = append(make([]semester.Course, 0, len(sem.Courses)), sem.Courses...)
	return cp
}

func (repo *semesterRepository) CreateSemester(_ context.Context, sem semester.Semester) (semester.Semester, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[sem.OwnerID]; !ok {
		return semester.Semester{}, errNoOwner
	}
	if repo.numberTaken(sem) {
		return semester.Semester{}, semester.ErrNumberExists
	}
	sem.ID = uuid.New().String()
	sem = withCourseIDs(sem)
	repo.db.semesters[sem.ID] = &sem
	return copySemester(&sem), nil
}

func (repo *semesterRepository) QuerySemesters(_ context.Context, ownerID string) ([]semester.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sems := make([]semester.Semester, 0)
	for _, sem := range repo.db.semesters {
		if sem.OwnerID == ownerID {
			sems = append(sems, copySemester(sem))
		}
	}
	sort.SliceStable(sems, func(i, j int) bool { return sems[i].Number < sems[j].Number })
	return sems, nil
}

func (repo *semesterRepository) GetSemester(_ context.Context, ownerID, id string) (semester.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sem, ok := repo.db.semesters[id]
	if !ok || sem.OwnerID != ownerID {
		return semester.Semester{}, semester.ErrNotFound
	}
	return copySemester(sem), nil
}

func (repo *semesterRepository) UpdateSemester(_ context.Context, sem semester.Semester, replaceCourses bool) (semester.Semester, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.semesters[sem.ID]
	if !ok || orig.OwnerID != sem.OwnerID {
		return semester.Semester{}, semester.ErrNotFound
	}
	if repo.numberTaken(sem) {
		return semester.Semester{}, semester.ErrNumberExists
	}
	if replaceCourses {
		sem = withCourseIDs(sem)
	} else {
		sem.Courses = orig.Courses
	}
	repo.db.semesters[sem.ID] = &sem
	return copySemester(&sem), nil
}

func (repo *semesterRepository) DeleteSemester(_ context.Context, ownerID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sem, ok := repo.db.semesters[id]
	if !ok || sem.OwnerID != ownerID {
		return semester.ErrNotFound
	}
	delete(repo.db.semesters, id)
	return nil
}
