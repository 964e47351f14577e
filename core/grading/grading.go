// Package grading computes credit-weighted grade point averages.
package grading

import (
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core"
)

type Grade string

const (
	GradeO     Grade = "O"
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeP     Grade = "P"
	GradeF     Grade = "F"
)

var (
	ErrUnknownGrade = errors.New("unknown grade")

	// Grades lists the letter vocabulary from the best grade to the worst.
	Grades = []Grade{GradeO, GradeAPlus, GradeA, GradeBPlus, GradeB, GradeC, GradeP, GradeF}

	points = map[Grade]float64{
		GradeO:     10,
		GradeAPlus: 9,
		GradeA:     8,
		GradeBPlus: 7,
		GradeB:     6,
		GradeC:     5,
		GradeP:     4,
		GradeF:     0,
	}
)

// Point returns the grade point of g. Unknown grades are worth 0, like an F.
func Point(g Grade) float64 {
	return points[g]
}

// ParseGrade is the strict counterpart of Point: unknown letters are rejected.
func ParseGrade(s string) (Grade, error) {
	g := Grade(core.CleanString(s))
	if _, ok := points[g]; !ok {
		return "", errors.Wrapf(ErrUnknownGrade, "%q", s)
	}
	return g, nil
}

type Record struct {
	Credits float64 `json:"credits"`
	Grade   Grade   `json:"grade"`
}

// SGPA is the credit-weighted mean of the records' grade points.
// It is 0 when there is no record or no credit.
func SGPA(records []Record) float64 {
	var weighted, credits float64
	for _, rec := range records {
		weighted += rec.Credits * Point(rec.Grade)
		credits += rec.Credits
	}
	if credits == 0 {
		return 0
	}
	return weighted / credits
}

// CGPA is the mean of the semester averages greater than 0.
// Semesters averaging 0 (e.g. without any course yet) are left out.
func CGPA(averages []float64) float64 {
	var sum float64
	var n int
	for _, avg := range averages {
		if avg > 0 {
			sum += avg
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
