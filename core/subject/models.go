package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/attendance"
)

// Status is the outcome of one session.
type Status string

const (
	StatusPresent   Status = "present"
	StatusLate      Status = "late"
	StatusAbsent    Status = "absent"
	StatusCancelled Status = "cancelled"
)

var Statuses = []Status{StatusPresent, StatusLate, StatusAbsent, StatusCancelled}

// Deltas returns how much a session with this status adds to the attended & total counters.
func (s Status) Deltas() (attended, total int) {
	switch s {
	case StatusPresent, StatusLate:
		return 1, 1
	case StatusAbsent:
		return 0, 1
	default:
		return 0, 0
	}
}

func (s Status) Outcome() attendance.Outcome {
	switch s {
	case StatusPresent, StatusLate:
		return attendance.OutcomePresent
	case StatusAbsent:
		return attendance.OutcomeAbsent
	default:
		return attendance.OutcomeExcluded
	}
}

type Subject struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Attended      int       `json:"attended"`
	Total         int       `json:"total"`
	TargetPercent *float64  `json:"target_percent"` // overrides the owner's preference
	CreatedAt     time.Time `json:"created_at"`     // UTC
	UpdatedAt     time.Time `json:"updated_at"`     // UTC

	// Counters the subject started with, before any log. Recounts start from them.
	BaseAttended int `json:"-"`
	BaseTotal    int `json:"-"`
}

// Log is one marked session.
type Log struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	OwnerID   string    `json:"owner_id"`
	Date      time.Time `json:"date"` // UTC midnight
	Status    Status    `json:"status"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (l Log) Fact() attendance.LogFact {
	return attendance.LogFact{SubjectID: l.SubjectID, Date: l.Date, Outcome: l.Status.Outcome()}
}

type TimetableEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	SubjectID string    `json:"subject_id"`
	Weekday   int       `json:"weekday"`   // 0: Sunday
	StartsAt  string    `json:"starts_at"` // HH:MM
	EndsAt    string    `json:"ends_at"`   // HH:MM
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// View is a Subject along with its computed standing.
type View struct {
	Subject
	Classification attendance.Classification `json:"classification"`
	Projection     attendance.Projection     `json:"projection"`
}

type Dashboard struct {
	Subjects      []View             `json:"subjects"`
	Summary       attendance.Summary `json:"summary"`
	TargetPercent float64            `json:"target_percent"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

type CalendarDay struct {
	Date string `json:"date"` // YYYY-MM-DD
	Logs []Log  `json:"logs"`
}

// SubjectReport breaks a subject's logs down by status.
type SubjectReport struct {
	SubjectID string         `json:"subject_id"`
	Name      string         `json:"name"`
	Counts    map[Status]int `json:"counts"`
}

type Report struct {
	From     string             `json:"from,omitempty"`
	To       string             `json:"to,omitempty"`
	Summary  attendance.Summary `json:"summary"`
	Subjects []SubjectReport    `json:"subjects"`
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Code          string   `json:"code" validate:"max=20"`
	Attended      int      `json:"attended" validate:"gte=0"`
	Total         int      `json:"total" validate:"gte=0"`
	TargetPercent *float64 `json:"target_percent" validate:"omitempty,gt=0,lte=100"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	return validate.Struct(ns)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
// Nil fields are left unchanged.
type UpdateSubject struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Code          *string  `json:"code" validate:"omitempty,max=20"`
	Attended      *int     `json:"attended" validate:"omitempty,gte=0"`
	Total         *int     `json:"total" validate:"omitempty,gte=0"`
	TargetPercent *float64 `json:"target_percent" validate:"omitempty,gt=0,lte=100"`
	// ClearTarget drops the subject's own target in favor of the owner's preference.
	ClearTarget bool `json:"clear_target"`
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	if us.Name != nil {
		name := core.CleanString(*us.Name)
		us.Name = &name
	}
	if us.Code != nil {
		code := core.CleanString(*us.Code)
		us.Code = &code
	}
	return validate.Struct(us)
}

type NewLog struct {
	Date   string `json:"date" validate:"omitempty,date"` // defaults to today (UTC)
	Status Status `json:"status" validate:"required,status"`
	Note   string `json:"note" validate:"max=200"`
}

func (nl *NewLog) Validate(validate *validator.Validate) error {
	nl.Status = Status(core.CleanString(string(nl.Status), true /* lower */))
	nl.Note = core.CleanString(nl.Note)
	return validate.Struct(nl)
}

type NewTimetableEntry struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Weekday   *int   `json:"weekday" validate:"required,gte=0,lte=6"`
	StartsAt  string `json:"starts_at" validate:"required,hhmm"`
	EndsAt    string `json:"ends_at" validate:"required,hhmm"`
	Room      string `json:"room" validate:"max=50"`
}

func (ne *NewTimetableEntry) Validate(validate *validator.Validate) error {
	ne.StartsAt = core.CleanString(ne.StartsAt)
	ne.EndsAt = core.CleanString(ne.EndsAt)
	ne.Room = core.CleanString(ne.Room)
	return validate.Struct(ne)
}

type QueryFilter struct {
	Search string `query:"search"`
	Tier   string `query:"tier"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Tier = core.CleanString(qf.Tier, true /* lower */)
}

type LogFilter struct {
	OwnerID   string
	SubjectID string
	From      time.Time // inclusive, zero for no bound
	To        time.Time // inclusive, zero for no bound
}
