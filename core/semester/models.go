package semester

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/grading"
)

type Semester struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Number    int       `json:"number"`
	Courses   []Course  `json:"courses"`
	SGPA      float64   `json:"sgpa"` // computed on read
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (s Semester) Records() []grading.Record {
	recs := make([]grading.Record, 0, len(s.Courses))
	for _, c := range s.Courses {
		recs = append(recs, grading.Record{Credits: c.Credits, Grade: c.Grade})
	}
	return recs
}

func (s Semester) Credits() float64 {
	var credits float64
	for _, c := range s.Courses {
		credits += c.Credits
	}
	return credits
}

type Course struct {
	ID         string        `json:"id"`
	SemesterID string        `json:"semester_id"`
	Name       string        `json:"name"`
	Code       string        `json:"code"`
	Credits    float64       `json:"credits"`
	Grade      grading.Grade `json:"grade"`
}

// GPAEntry is one semester line of a GPA report.
type GPAEntry struct {
	SemesterID string  `json:"semester_id"`
	Name       string  `json:"name"`
	Number     int     `json:"number"`
	Credits    float64 `json:"credits"`
	SGPA       float64 `json:"sgpa"`
}

type GPAReport struct {
	Semesters []GPAEntry `json:"semesters"`
	CGPA      float64    `json:"cgpa"`
}

type NewCourse struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Code    string  `json:"code" validate:"max=20"`
	Credits float64 `json:"credits" validate:"gt=0,lte=40"`
	Grade   string  `json:"grade" validate:"required,grade"`
}

func (nc *NewCourse) clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.Grade = strings.ToUpper(core.CleanString(nc.Grade))
}

// NewSemester contains information needed to create a new Semester.
type NewSemester struct {
	Name    string      `json:"name" validate:"max=100"`
	Number  int         `json:"number" validate:"gte=1"`
	Courses []NewCourse `json:"courses" validate:"dive"`
}

func (ns *NewSemester) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	for i := range ns.Courses {
		ns.Courses[i].clean()
	}
	return validate.Struct(ns)
}

// UpdateSemester defines what information may be provided to modify an existing Semester.
// A non-nil Courses replaces every course of the semester.
type UpdateSemester struct {
	Name    *string      `json:"name" validate:"omitempty,max=100"`
	Number  *int         `json:"number" validate:"omitempty,gte=1"`
	Courses *[]NewCourse `json:"courses" validate:"omitempty,dive"`
}

func (us *UpdateSemester) Validate(validate *validator.Validate) error {
	if us.Name != nil {
		name := core.CleanString(*us.Name)
		us.Name = &name
	}
	if us.Courses != nil {
		for i := range *us.Courses {
			(*us.Courses)[i].clean()
		}
	}
	return validate.Struct(us)
}
