package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/subject"
)

var (
	subjectColumns = []string{
		"id", "owner_id", "name", "code", "attended", "total", "base_attended", "base_total",
		"target_percent", "created_at", "updated_at",
	}
	logColumns       = `id, subject_id, owner_id, date, status, note, created_at`
	timetableColumns = `id, owner_id, subject_id, weekday, starts_at, ends_at, room, created_at`

	subjectOrderings = map[string]string{
		"name":       "LOWER(name)",
		"code":       "code",
		"attended":   "attended",
		"total":      "total",
		"created_at": "created_at",
		"percentage": "CASE WHEN total = 0 THEN 0 ELSE attended * 100.0 / total END",
	}
)

func columns(cols []string, prefix string) string {
	if prefix == "" {
		return strings.Join(cols, ", ")
	}
	prefixed := make([]string, 0, len(cols))
	for _, col := range cols {
		prefixed = append(prefixed, prefix+"."+col)
	}
	return strings.Join(prefixed, ", ")
}

type subjectRow struct {
	ID            string       `db:"id"`
	OwnerID       string       `db:"owner_id"`
	Name          string       `db:"name"`
	Code          string       `db:"code"`
	Attended      int          `db:"attended"`
	Total         int          `db:"total"`
	BaseAttended  int          `db:"base_attended"`
	BaseTotal     int          `db:"base_total"`
	TargetPercent null.Float64 `db:"target_percent"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

func toSubjectRow(subj subject.Subject) subjectRow {
	return subjectRow{
		ID:            subj.ID,
		OwnerID:       subj.OwnerID,
		Name:          subj.Name,
		Code:          subj.Code,
		Attended:      subj.Attended,
		Total:         subj.Total,
		BaseAttended:  subj.BaseAttended,
		BaseTotal:     subj.BaseTotal,
		TargetPercent: null.Float64FromPtr(subj.TargetPercent),
		CreatedAt:     subj.CreatedAt.UTC(),
		UpdatedAt:     subj.UpdatedAt.UTC(),
	}
}

func (row subjectRow) subject() subject.Subject {
	return subject.Subject{
		ID:            row.ID,
		OwnerID:       row.OwnerID,
		Name:          row.Name,
		Code:          row.Code,
		Attended:      row.Attended,
		Total:         row.Total,
		BaseAttended:  row.BaseAttended,
		BaseTotal:     row.BaseTotal,
		TargetPercent: row.TargetPercent.Ptr(),
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

type logRow struct {
	ID        string    `db:"id"`
	SubjectID string    `db:"subject_id"`
	OwnerID   string    `db:"owner_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
}

func (row logRow) log() subject.Log {
	d := row.Date
	return subject.Log{
		ID:        row.ID,
		SubjectID: row.SubjectID,
		OwnerID:   row.OwnerID,
		Date:      time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		Status:    subject.Status(row.Status),
		Note:      row.Note,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type timetableRow struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	SubjectID string    `db:"subject_id"`
	Weekday   int       `db:"weekday"`
	StartsAt  string    `db:"starts_at"`
	EndsAt    string    `db:"ends_at"`
	Room      string    `db:"room"`
	CreatedAt time.Time `db:"created_at"`
}

func (row timetableRow) entry() subject.TimetableEntry {
	return subject.TimetableEntry{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		SubjectID: row.SubjectID,
		Weekday:   row.Weekday,
		StartsAt:  row.StartsAt,
		EndsAt:    row.EndsAt,
		Room:      row.Room,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	subj.ID = uuid.New().String()
	row := toSubjectRow(subj)
	q := `INSERT INTO subject (` + columns(subjectColumns, "") + `) VALUES
		(:id, :owner_id, :name, :code, :attended, :total, :base_attended, :base_total,
		:target_percent, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return row.subject(), nil
}

func (repo *subjectRepository) QuerySubjects(ctx context.Context, ownerID string, filter *subject.QueryFilter, ordering []core.DBOrdering) ([]subject.Subject, error) {
	var w where
	w.add("owner_id = ?", ownerID)
	if filter != nil && filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add("name ILIKE ? OR code ILIKE ?", val, val)
	}

	q := `SELECT ` + columns(subjectColumns, "") + ` FROM subject` + w.String() +
		orderBy(core.AllowedOrderings(ordering, subjectOrderings), "LOWER(name) ASC")
	var rows []subjectRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}

	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.subject())
	}
	return subjects, nil
}

func (repo *subjectRepository) GetSubject(ctx context.Context, ownerID, id string) (subject.Subject, error) {
	if !validID(id) {
		return subject.Subject{}, subject.ErrNotFound
	}
	var w where
	w.add("id = ?", id)
	if ownerID != "" {
		w.add("owner_id = ?", ownerID)
	}

	var row subjectRow
	q := `SELECT ` + columns(subjectColumns, "") + ` FROM subject` + w.String()
	if err := sqlx.GetContext(ctx, repo.db, &row, repo.db.Rebind(q), w.args...); err != nil {
		return subject.Subject{}, trapNoRows(err, subject.ErrNotFound, "finding subject")
	}
	return row.subject(), nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, ownerID, id string, update func(subj *subject.Subject) error) (subject.Subject, error) {
	if !validID(id) {
		return subject.Subject{}, subject.ErrNotFound
	}

	var row subjectRow
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `SELECT ` + columns(subjectColumns, "") + ` FROM subject WHERE id = $1 AND owner_id = $2 FOR UPDATE`
		if err := tx.GetContext(ctx, &row, q, id, ownerID); err != nil {
			return trapNoRows(err, subject.ErrNotFound, "locking subject")
		}
		subj := row.subject()
		if err := update(&subj); err != nil {
			return err
		}
		subj.ID, subj.OwnerID = row.ID, row.OwnerID

		row = toSubjectRow(subj)
		q = `UPDATE subject SET name = :name, code = :code, attended = :attended, total = :total,
			base_attended = :base_attended, base_total = :base_total, target_percent = :target_percent,
			updated_at = :updated_at
			WHERE id = :id AND owner_id = :owner_id`
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrap(err, "updating subject")
		}
		return nil
	})
	if err != nil {
		return subject.Subject{}, err
	}
	return row.subject(), nil
}

func (repo *subjectRepository) DeleteSubjectsByID(ctx context.Context, ownerID string, ids ...string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE owner_id = $1 AND id::text = ANY($2)`,
		ownerID, pq.StringArray(valid))
	if err != nil {
		return 0, errors.Wrap(err, "deleting subjects")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting subjects")
	}
	return int(cnt), nil
}

func (repo *subjectRepository) MarkAttendance(ctx context.Context, log subject.Log) (subject.Log, subject.Subject, error) {
	log.ID = uuid.New().String()
	da, dt := log.Status.Deltas()

	var subjRow subjectRow
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE subject SET attended = attended + $1, total = total + $2, updated_at = $3
			WHERE id = $4 AND owner_id = $5
			RETURNING ` + columns(subjectColumns, "")
		if err := tx.GetContext(ctx, &subjRow, q, da, dt, log.CreatedAt.UTC(), log.SubjectID, log.OwnerID); err != nil {
			return trapNoRows(err, subject.ErrNotFound, "updating counters")
		}

		q = `INSERT INTO attendance_log (` + logColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := tx.ExecContext(ctx, q,
			log.ID, log.SubjectID, log.OwnerID, log.Date.UTC(), string(log.Status), log.Note, log.CreatedAt.UTC(),
		); err != nil {
			return errors.Wrap(err, "inserting attendance log")
		}
		return nil
	})
	if err != nil {
		return subject.Log{}, subject.Subject{}, err
	}
	return log, subjRow.subject(), nil
}

func (repo *subjectRepository) UndoAttendance(ctx context.Context, ownerID, subjectID, logID string) (subject.Subject, error) {
	if !validID(logID) || !validID(subjectID) {
		return subject.Subject{}, subject.ErrLogNotFound
	}

	var subjRow subjectRow
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var status string
		q := `DELETE FROM attendance_log WHERE id = $1 AND subject_id = $2 AND owner_id = $3 RETURNING status`
		if err := tx.GetContext(ctx, &status, q, logID, subjectID, ownerID); err != nil {
			return trapNoRows(err, subject.ErrLogNotFound, "deleting attendance log")
		}

		// counters never go below zero nor attended above total
		da, dt := subject.Status(status).Deltas()
		q = `UPDATE subject SET
				attended = LEAST(GREATEST(attended - $1, 0), GREATEST(total - $2, 0)),
				total = GREATEST(total - $2, 0),
				updated_at = $3
			WHERE id = $4
			RETURNING ` + columns(subjectColumns, "")
		if err := tx.GetContext(ctx, &subjRow, q, da, dt, time.Now().UTC(), subjectID); err != nil {
			return trapNoRows(err, subject.ErrNotFound, "updating counters")
		}
		return nil
	})
	if err != nil {
		return subject.Subject{}, err
	}
	return subjRow.subject(), nil
}

func (repo *subjectRepository) QueryLogs(ctx context.Context, filter subject.LogFilter) ([]subject.Log, error) {
	var w where
	if filter.OwnerID != "" {
		w.add("owner_id = ?", filter.OwnerID)
	}
	if filter.SubjectID != "" {
		if !validID(filter.SubjectID) {
			return []subject.Log{}, nil
		}
		w.add("subject_id = ?", filter.SubjectID)
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		w.add("date <= ?", filter.To.UTC())
	}

	q := `SELECT ` + logColumns + ` FROM attendance_log` + w.String() + ` ORDER BY date, created_at`
	var rows []logRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance logs")
	}

	logs := make([]subject.Log, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.log())
	}
	return logs, nil
}

func (repo *subjectRepository) RecountSubjects(ctx context.Context, ids ...string) ([]subject.Subject, error) {
	var w where
	w.add("s.id = c.id")
	if len(ids) > 0 {
		w.add("s.id::text = ANY(?)", pq.StringArray(ids))
	}

	q := `UPDATE subject s SET
			total = GREATEST(s.base_total + c.t, 0),
			attended = LEAST(GREATEST(s.base_attended + c.a, 0), GREATEST(s.base_total + c.t, 0)),
			updated_at = now()
		FROM (
			SELECT sub.id,
				COUNT(l.id) FILTER (WHERE l.status IN ('present', 'late')) AS a,
				COUNT(l.id) FILTER (WHERE l.status IN ('present', 'late', 'absent')) AS t
			FROM subject sub LEFT JOIN attendance_log l ON l.subject_id = sub.id
			GROUP BY sub.id
		) c` + w.String() + `
		RETURNING ` + columns(subjectColumns, "s")

	var rows []subjectRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "recounting subjects")
	}

	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.subject())
	}
	return subjects, nil
}

func (repo *subjectRepository) CreateTimetableEntry(ctx context.Context, entry subject.TimetableEntry) (subject.TimetableEntry, error) {
	entry.ID = uuid.New().String()
	q := `INSERT INTO timetable_entry (` + timetableColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := repo.db.ExecContext(ctx, q,
		entry.ID, entry.OwnerID, entry.SubjectID, entry.Weekday, entry.StartsAt, entry.EndsAt, entry.Room, entry.CreatedAt.UTC(),
	); err != nil {
		return subject.TimetableEntry{}, errors.Wrap(err, "inserting timetable entry")
	}
	return entry, nil
}

func (repo *subjectRepository) QueryTimetable(ctx context.Context, ownerID string, weekday *int) ([]subject.TimetableEntry, error) {
	var w where
	w.add("owner_id = ?", ownerID)
	if weekday != nil {
		w.add("weekday = ?", *weekday)
	}

	q := `SELECT ` + timetableColumns + ` FROM timetable_entry` + w.String() + ` ORDER BY weekday, starts_at`
	var rows []timetableRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying timetable")
	}

	entries := make([]subject.TimetableEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}

func (repo *subjectRepository) DeleteTimetableEntry(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return subject.ErrTimetableNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM timetable_entry WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return errors.Wrap(err, "deleting timetable entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.ErrTimetableNotFound
	}
	return nil
}
