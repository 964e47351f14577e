package semester

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/grading"
)

var (
	// errors
	ErrNotFound     = errors.New("semester not found")
	ErrNumberExists = errors.New("a semester with this number already exists")
)

type (
	Repository interface {
		// CreateSemester stores the semester with its courses. Returns ErrNumberExists when the
		// owner already has a semester with the same number.
		CreateSemester(ctx context.Context, sem Semester) (Semester, error)
		// QuerySemesters lists the owner's semesters with their courses, ordered by number.
		QuerySemesters(ctx context.Context, ownerID string) ([]Semester, error)
		GetSemester(ctx context.Context, ownerID, id string) (Semester, error)
		// UpdateSemester saves the semester; its courses are replaced when replaceCourses is true.
		UpdateSemester(ctx context.Context, sem Semester, replaceCourses bool) (Semester, error)
		DeleteSemester(ctx context.Context, ownerID, id string) error
	}

	Service interface {
		Create(ctx context.Context, ownerID string, ns NewSemester) (Semester, error)
		Query(ctx context.Context, ownerID string) ([]Semester, error)
		Get(ctx context.Context, ownerID, id string) (Semester, error)
		Update(ctx context.Context, sem Semester, us UpdateSemester) (Semester, error)
		Delete(ctx context.Context, ownerID, id string) error
		GPA(ctx context.Context, ownerID string) (GPAReport, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func withSGPA(sem Semester) Semester {
	sem.SGPA = grading.SGPA(sem.Records())
	if sem.Courses == nil {
		sem.Courses = make([]Course, 0)
	}
	return sem
}

func courses(ncs []NewCourse) []Course {
	res := make([]Course, 0, len(ncs))
	for _, nc := range ncs {
		grade, _ := grading.ParseGrade(nc.Grade) // validated
		res = append(res, Course{Name: nc.Name, Code: nc.Code, Credits: nc.Credits, Grade: grade})
	}
	return res
}

func wrapSaveError(err error, msg string) error {
	if errors.Cause(err) == ErrNumberExists {
		return core.NewValidationError(err, core.FieldError{Field: "number", Error: ErrNumberExists.Error()})
	}
	return errors.Wrap(err, msg)
}

func (svc *service) Create(ctx context.Context, ownerID string, ns NewSemester) (Semester, error) {
	now := time.Now().UTC()
	sem, err := svc.repo.CreateSemester(ctx, Semester{
		OwnerID:   ownerID,
		Name:      ns.Name,
		Number:    ns.Number,
		Courses:   courses(ns.Courses),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Semester{}, wrapSaveError(err, "creating semester")
	}
	return withSGPA(sem), nil
}

func (svc *service) Query(ctx context.Context, ownerID string) ([]Semester, error) {
	sems, err := svc.repo.QuerySemesters(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying semesters")
	}
	for i := range sems {
		sems[i] = withSGPA(sems[i])
	}
	return sems, nil
}

func (svc *service) Get(ctx context.Context, ownerID, id string) (Semester, error) {
	sem, err := svc.repo.GetSemester(ctx, ownerID, id)
	if err != nil {
		return Semester{}, err
	}
	return withSGPA(sem), nil
}

func (svc *service) Update(ctx context.Context, sem Semester, us UpdateSemester) (Semester, error) {
	if us.Name != nil {
		sem.Name = *us.Name
	}
	if us.Number != nil {
		sem.Number = *us.Number
	}
	if us.Courses != nil {
		sem.Courses = courses(*us.Courses)
	}
	sem.UpdatedAt = time.Now().UTC()

	sem, err := svc.repo.UpdateSemester(ctx, sem, us.Courses != nil)
	if err != nil {
		return Semester{}, wrapSaveError(err, "updating semester")
	}
	return withSGPA(sem), nil
}

func (svc *service) Delete(ctx context.Context, ownerID, id string) error {
	return svc.repo.DeleteSemester(ctx, ownerID, id)
}

func (svc *service) GPA(ctx context.Context, ownerID string) (GPAReport, error) {
	sems, err := svc.Query(ctx, ownerID)
	if err != nil {
		return GPAReport{}, err
	}
	sort.SliceStable(sems, func(i, j int) bool { return sems[i].Number < sems[j].Number })

	rep := GPAReport{Semesters: make([]GPAEntry, 0, len(sems))}
	averages := make([]float64, 0, len(sems))
	for _, sem := range sems {
		rep.Semesters = append(rep.Semesters, GPAEntry{
			SemesterID: sem.ID,
			Name:       sem.Name,
			Number:     sem.Number,
			Credits:    sem.Credits(),
			SGPA:       sem.SGPA,
		})
		averages = append(averages, sem.SGPA)
	}
	rep.CGPA = grading.CGPA(averages)
	return rep, nil
}
