package grading

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPoint(t *testing.T) {
	want := map[Grade]float64{
		GradeO: 10, GradeAPlus: 9, GradeA: 8, GradeBPlus: 7, GradeB: 6, GradeC: 5, GradeP: 4, GradeF: 0,
		"Z": 0, "": 0, "a+": 0,
	}
	for g, pt := range want {
		assert.Equal(t, pt, Point(g), "Point(%q)", g)
	}
}

func TestParseGrade(t *testing.T) {
	for _, g := range Grades {
		got, err := ParseGrade(" " + string(g) + " ")
		assert.NoError(t, err)
		assert.Equal(t, g, got)
	}
	for _, s := range []string{"", "Z", "a+", "A++"} {
		_, err := ParseGrade(s)
		assert.Equal(t, ErrUnknownGrade, errors.Cause(err), s)
	}
}

func TestSGPA(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    float64
	}{
		{name: "no record", want: 0},
		{name: "single O", records: []Record{{Credits: 4, Grade: GradeO}}, want: 10},
		{name: "weighted", records: []Record{{Credits: 4, Grade: GradeO}, {Credits: 2, Grade: GradeF}}, want: 40.0 / 6},
		{name: "zero credits", records: []Record{{Credits: 0, Grade: GradeO}}, want: 0},
		{name: "unknown grade counts as 0", records: []Record{{Credits: 3, Grade: GradeA}, {Credits: 3, Grade: "Z"}}, want: 4},
		{
			name: "mixed",
			records: []Record{
				{Credits: 3, Grade: GradeAPlus},
				{Credits: 4, Grade: GradeBPlus},
				{Credits: 1, Grade: GradeP},
			},
			want: (3*9 + 4*7 + 1*4) / 8.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SGPA(tt.records), 1e-9)
		})
	}
}

func TestCGPA(t *testing.T) {
	tests := []struct {
		name     string
		averages []float64
		want     float64
	}{
		{name: "no semester", want: 0},
		{name: "two semesters", averages: []float64{8.5, 9.0}, want: 8.75},
		{name: "zero semester excluded", averages: []float64{0, 9.0}, want: 9.0},
		{name: "only zeros", averages: []float64{0, 0}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CGPA(tt.averages), 1e-9)
		})
	}
}
