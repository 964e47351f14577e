package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core/grading"
	"github.com/trezcool/bunkguard/core/semester"
)

const (
	semesterColumns = `id, owner_id, name, number, created_at, updated_at`
	courseColumns   = `id, semester_id, name, code, credits, grade, position`

	uniqueViolation = "23505"
)

type semesterRow struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	Name      string    `db:"name"`
	Number    int       `db:"number"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row semesterRow) semester() semester.Semester {
	return semester.Semester{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Name:      row.Name,
		Number:    row.Number,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type courseRow struct {
	ID         string  `db:"id"`
	SemesterID string  `db:"semester_id"`
	Name       string  `db:"name"`
	Code       string  `db:"code"`
	Credits    float64 `db:"credits"`
	Grade      string  `db:"grade"`
	Position   int     `db:"position"`
}

type semesterRepository struct {
	db *sqlx.DB
}

var _ semester.Repository = (*semesterRepository)(nil) // interface compliance check

func NewSemesterRepository(db *sqlx.DB) semester.Repository {
	return &semesterRepository{db: db}
}

// trapUniqueNumber maps the (owner_id, number) unique violation to semester.ErrNumberExists.
func trapUniqueNumber(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return semester.ErrNumberExists
	}
	return errors.Wrap(err, msg)
}

func insertCourses(ctx context.Context, tx *sqlx.Tx, semesterID string, courses []semester.Course) ([]semester.Course, error) {
	res := make([]semester.Course, 0, len(courses))
	q := `INSERT INTO course (` + courseColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, c := range courses {
		c.ID = uuid.New().String()
		c.SemesterID = semesterID
		if _, err := tx.ExecContext(ctx, q, c.ID, c.SemesterID, c.Name, c.Code, c.Credits, string(c.Grade), i); err != nil {
			return nil, errors.Wrap(err, "inserting course")
		}
		res = append(res, c)
	}
	return res, nil
}

func (repo *semesterRepository) CreateSemester(ctx context.Context, sem semester.Semester) (semester.Semester, error) {
	sem.ID = uuid.New().String()
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO semester (` + semesterColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, q,
			sem.ID, sem.OwnerID, sem.Name, sem.Number, sem.CreatedAt.UTC(), sem.UpdatedAt.UTC(),
		); err != nil {
			return trapUniqueNumber(err, "inserting semester")
		}
		courses, err := insertCourses(ctx, tx, sem.ID, sem.Courses)
		sem.Courses = courses
		return err
	})
	if err != nil {
		return semester.Semester{}, err
	}
	return sem, nil
}

// loadCourses attaches their courses to sems.
func (repo *semesterRepository) loadCourses(ctx context.Context, sems []semester.Semester) error {
	if len(sems) == 0 {
		return nil
	}
	ids := make([]string, 0, len(sems))
	idx := make(map[string]int, len(sems))
	for i, sem := range sems {
		ids = append(ids, sem.ID)
		idx[sem.ID] = i
		sems[i].Courses = make([]semester.Course, 0)
	}

	var rows []courseRow
	q := `SELECT ` + courseColumns + ` FROM course WHERE semester_id::text = ANY($1) ORDER BY position`
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "querying courses")
	}
	for _, row := range rows {
		i := idx[row.SemesterID]
		sems[i].Courses = append(sems[i].Courses, semester.Course{
			ID:         row.ID,
			SemesterID: row.SemesterID,
			Name:       row.Name,
			Code:       row.Code,
			Credits:    row.Credits,
			Grade:      grading.Grade(row.Grade),
		})
	}
	return nil
}

func (repo *semesterRepository) QuerySemesters(ctx context.Context, ownerID string) ([]semester.Semester, error) {
	var rows []semesterRow
	q := `SELECT ` + semesterColumns + ` FROM semester WHERE owner_id = $1 ORDER BY number`
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, ownerID); err != nil {
		return nil, errors.Wrap(err, "querying semesters")
	}

	sems := make([]semester.Semester, 0, len(rows))
	for _, row := range rows {
		sems = append(sems, row.semester())
	}
	if err := repo.loadCourses(ctx, sems); err != nil {
		return nil, err
	}
	return sems, nil
}

func (repo *semesterRepository) GetSemester(ctx context.Context, ownerID, id string) (semester.Semester, error) {
	if !validID(id) {
		return semester.Semester{}, semester.ErrNotFound
	}

	var row semesterRow
	q := `SELECT ` + semesterColumns + ` FROM semester WHERE id = $1 AND owner_id = $2`
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id, ownerID); err != nil {
		return semester.Semester{}, trapNoRows(err, semester.ErrNotFound, "finding semester")
	}

	sems := []semester.Semester{row.semester()}
	if err := repo.loadCourses(ctx, sems); err != nil {
		return semester.Semester{}, err
	}
	return sems[0], nil
}

func (repo *semesterRepository) UpdateSemester(ctx context.Context, sem semester.Semester, replaceCourses bool) (semester.Semester, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE semester SET name = $1, number = $2, updated_at = $3 WHERE id = $4 AND owner_id = $5`
		res, err := tx.ExecContext(ctx, q, sem.Name, sem.Number, sem.UpdatedAt.UTC(), sem.ID, sem.OwnerID)
		if err != nil {
			return trapUniqueNumber(err, "updating semester")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return semester.ErrNotFound
		}
		if !replaceCourses {
			return nil
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM course WHERE semester_id = $1`, sem.ID); err != nil {
			return errors.Wrap(err, "deleting courses")
		}
		courses, err := insertCourses(ctx, tx, sem.ID, sem.Courses)
		sem.Courses = courses
		return err
	})
	if err != nil {
		return semester.Semester{}, err
	}
	return sem, nil
}

func (repo *semesterRepository) DeleteSemester(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return semester.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM semester WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return errors.Wrap(err, "deleting semester")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return semester.ErrNotFound
	}
	return nil
}
