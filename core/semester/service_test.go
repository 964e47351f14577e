package semester_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkguard/core"
	"github.com/trezcool/bunkguard/core/grading"
	"github.com/trezcool/bunkguard/core/semester"
	"github.com/trezcool/bunkguard/storage/database/dummy"
	"github.com/trezcool/bunkguard/tests"
)

func setup(t *testing.T) (semester.Service, string) {
	db := dummydb.Open()
	owner := testutil.CreateUser(t, dummydb.NewUserRepository(db), "Jane Doe", "jane", "jane@example.com", "", nil, true)
	return semester.NewService(dummydb.NewSemesterRepository(db)), owner.ID
}

func newValidator() *validator.Validate {
	validate := validator.New()
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	core.InitValidators(validate, translator)
	semester.InitValidators(validate, translator)
	return validate
}

func TestNewSemester_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name      string
		ns        semester.NewSemester
		wantField string
	}{
		{
			name: "valid",
			ns:   semester.NewSemester{Number: 1, Courses: []semester.NewCourse{{Name: "Maths", Credits: 4, Grade: " a+ "}}},
		},
		{name: "number", ns: semester.NewSemester{Number: 0}, wantField: "number"},
		{
			name:      "unknown grade",
			ns:        semester.NewSemester{Number: 1, Courses: []semester.NewCourse{{Name: "Maths", Credits: 4, Grade: "E"}}},
			wantField: "grade",
		},
		{
			name:      "no credits",
			ns:        semester.NewSemester{Number: 1, Courses: []semester.NewCourse{{Name: "Maths", Grade: "A"}}},
			wantField: "credits",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(validate)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs))
			assert.Equal(t, tt.wantField, vErrs[0].Field())
		})
	}
}

func TestService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc, ownerID := setup(t)

	sem, err := svc.Create(ctx, ownerID, semester.NewSemester{
		Name:   "Fall",
		Number: 1,
		Courses: []semester.NewCourse{
			{Name: "Maths", Credits: 4, Grade: "O"},
			{Name: "Physics", Credits: 3, Grade: "B"},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, (4*10+3*6)/7.0, sem.SGPA, 1e-9)
	require.Len(t, sem.Courses, 2)
	assert.NotEmpty(t, sem.Courses[0].ID)
	assert.Equal(t, grading.GradeO, sem.Courses[0].Grade)

	_, err = svc.Create(ctx, ownerID, semester.NewSemester{Number: 1})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "number", vErr.Fields[0].Field)

	name := "Fall 2024"
	sem, err = svc.Update(ctx, sem, semester.UpdateSemester{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Fall 2024", sem.Name)
	assert.Len(t, sem.Courses, 2)

	courses := []semester.NewCourse{{Name: "Chemistry", Credits: 2, Grade: "F"}}
	sem, err = svc.Update(ctx, sem, semester.UpdateSemester{Courses: &courses})
	require.NoError(t, err)
	require.Len(t, sem.Courses, 1)
	assert.Equal(t, 0.0, sem.SGPA)

	got, err := svc.Get(ctx, ownerID, sem.ID)
	require.NoError(t, err)
	assert.Equal(t, sem.Courses, got.Courses)

	_, err = svc.Get(ctx, "someone-else", sem.ID)
	assert.Equal(t, semester.ErrNotFound, errors.Cause(err))

	require.NoError(t, svc.Delete(ctx, ownerID, sem.ID))
	assert.Equal(t, semester.ErrNotFound, errors.Cause(svc.Delete(ctx, ownerID, sem.ID)))
}

func TestService_GPA(t *testing.T) {
	ctx := context.Background()
	svc, ownerID := setup(t)

	for _, ns := range []semester.NewSemester{
		{Number: 3},
		{Number: 2, Courses: []semester.NewCourse{{Name: "A", Credits: 3, Grade: "A"}, {Name: "B", Credits: 1, Grade: "O"}}},
		{Number: 1, Courses: []semester.NewCourse{{Name: "C", Credits: 4, Grade: "A+"}}},
	} {
		_, err := svc.Create(ctx, ownerID, ns)
		require.NoError(t, err)
	}

	rep, err := svc.GPA(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, rep.Semesters, 3)
	assert.Equal(t, 1, rep.Semesters[0].Number)
	assert.Equal(t, 9.0, rep.Semesters[0].SGPA)
	assert.Equal(t, 2, rep.Semesters[1].Number)
	assert.Equal(t, 8.5, rep.Semesters[1].SGPA)
	assert.Equal(t, 4.0, rep.Semesters[1].Credits)
	assert.Equal(t, 0.0, rep.Semesters[2].SGPA)
	// the empty semester is left out
	assert.Equal(t, 8.75, rep.CGPA)

	rep, err = svc.GPA(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, rep.Semesters)
	assert.Equal(t, 0.0, rep.CGPA)
}
