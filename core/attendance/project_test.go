package attendance

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name          string
		attended      int
		total         int
		target        float64
		wantDirection Direction
		wantCount     int
		wantUnbounded bool
	}{
		{name: "exactly at target", attended: 30, total: 40, target: 75, wantDirection: SafeSkips, wantCount: 0},
		{name: "one skip left", attended: 31, total: 40, target: 75, wantDirection: SafeSkips, wantCount: 1},
		{name: "half attended", attended: 10, total: 20, target: 75, wantDirection: ClassesNeeded, wantCount: 20},
		{name: "perfect record", attended: 20, total: 20, target: 75, wantDirection: SafeSkips, wantCount: 6},
		{name: "no session yet", attended: 0, total: 0, target: 75, wantDirection: ClassesNeeded, wantCount: 1},
		{name: "100% target already met", attended: 5, total: 5, target: 100, wantDirection: SafeSkips, wantCount: 0},
		{name: "100% target missed", attended: 4, total: 5, target: 100, wantDirection: ClassesNeeded, wantUnbounded: true},
		{name: "100% target without session", attended: 0, total: 0, target: 100, wantDirection: ClassesNeeded, wantUnbounded: true},
		{name: "0% target", attended: 0, total: 10, target: 0, wantDirection: SafeSkips, wantUnbounded: true},
		{name: "negative target", attended: 3, total: 10, target: -5, wantDirection: SafeSkips, wantUnbounded: true},
		{name: "tiny target", attended: 1, total: 1, target: 1e-12, wantDirection: SafeSkips, wantCount: 99999999999999},
		{name: "binary fraction target", attended: 1, total: 1, target: math.Ldexp(1, -20), wantDirection: SafeSkips, wantCount: 104857599},
		{name: "target too small to count skips", attended: 1, total: 1, target: 1e-300, wantDirection: SafeSkips, wantUnbounded: true},
		{name: "skips beyond the largest count", attended: 5, total: 10, target: 1e-17, wantDirection: SafeSkips, wantUnbounded: true},
		{name: "smallest positive target", attended: 1, total: 1, target: math.SmallestNonzeroFloat64, wantDirection: SafeSkips, wantUnbounded: true},
		{name: "NaN target", attended: 5, total: 10, target: math.NaN(), wantDirection: ClassesNeeded, wantUnbounded: true},
		{name: "infinite target", attended: 5, total: 10, target: math.Inf(1), wantDirection: ClassesNeeded, wantUnbounded: true},
		{name: "negative infinite target", attended: 5, total: 10, target: math.Inf(-1), wantDirection: SafeSkips, wantUnbounded: true},
		{name: "target just under 100%", attended: 0, total: 1 << 40, target: 100 - 1e-12, wantDirection: ClassesNeeded, wantUnbounded: true},
		{name: "large counters, skips", attended: 1 << 40, total: 1 << 40, target: 75, wantDirection: SafeSkips, wantCount: 366503875925},
		{name: "large counters, classes needed", attended: 0, total: 1 << 40, target: 50, wantDirection: ClassesNeeded, wantCount: 1 << 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := projectWithin(t, tt.attended, tt.total, tt.target)
			if !math.IsNaN(tt.target) {
				assert.Equal(t, tt.target, got.TargetPercent)
			}
			assert.Equal(t, tt.wantDirection, got.Direction)
			assert.Equal(t, tt.wantUnbounded, got.Unbounded)
			if !tt.wantUnbounded {
				assert.Equal(t, tt.wantCount, got.Count)
			}
		})
	}
}

// projectWithin fails the test instead of hanging when Project does not return.
func projectWithin(t *testing.T, attended, total int, target float64) Projection {
	t.Helper()
	done := make(chan Projection, 1)
	go func() { done <- Project(attended, total, target) }()
	select {
	case proj := <-done:
		return proj
	case <-time.After(time.Second):
		t.Fatalf("Project(%d, %d, %v) did not return", attended, total, target)
		return Projection{}
	}
}

// TestProject_boundaries checks that the projected count sits exactly on the boundary:
// `count` keeps (or brings) the percentage at target while one step further does not.
func TestProject_boundaries(t *testing.T) {
	atOrAbove := func(attended, total int, target float64) bool {
		return total > 0 && Classify(attended, total).Percentage+1e-9 >= target
	}

	for _, target := range []float64{0.001, 1, 12.5, 33.3, 50, 60, 66.67, 70, 75, 80, 85, 90, 99, 99.9} {
		for total := 0; total <= 50; total++ {
			for attended := 0; attended <= total; attended++ {
				proj := projectWithin(t, attended, total, target)
				switch proj.Direction {
				case SafeSkips:
					if !atOrAbove(attended, total+proj.Count, target) {
						t.Fatalf("Project(%d, %d, %v) = %d skips: target no longer met", attended, total, target, proj.Count)
					}
					if atOrAbove(attended, total+proj.Count+1, target) {
						t.Fatalf("Project(%d, %d, %v) = %d skips: one more skip still meets target", attended, total, target, proj.Count)
					}
				case ClassesNeeded:
					if !atOrAbove(attended+proj.Count, total+proj.Count, target) {
						t.Fatalf("Project(%d, %d, %v) = %d needed: target not reached", attended, total, target, proj.Count)
					}
					if proj.Count > 0 && atOrAbove(attended+proj.Count-1, total+proj.Count-1, target) {
						t.Fatalf("Project(%d, %d, %v) = %d needed: one less already reaches target", attended, total, target, proj.Count)
					}
				default:
					t.Fatalf("unexpected direction %q", proj.Direction)
				}
			}
		}
	}
}

func TestValidateCounter(t *testing.T) {
	tests := []struct {
		name     string
		attended int
		total    int
		wantErr  bool
	}{
		{name: "empty", attended: 0, total: 0},
		{name: "valid", attended: 3, total: 4},
		{name: "negative attended", attended: -1, total: 4, wantErr: true},
		{name: "negative total", attended: 0, total: -4, wantErr: true},
		{name: "attended > total", attended: 5, total: 4, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCounter(tt.attended, tt.total)
			if tt.wantErr {
				assert.Equal(t, ErrInvalidArgument, errors.Cause(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTarget(t *testing.T) {
	for _, target := range []float64{0.5, 50, 75, 100} {
		assert.NoError(t, ValidateTarget(target), target)
	}
	for _, target := range []float64{-10, 0, 100.01, 150} {
		assert.Equal(t, ErrInvalidArgument, errors.Cause(ValidateTarget(target)), target)
	}
}

// TestProject_largeCounters checks the boundary on counters far beyond any real term.
func TestProject_largeCounters(t *testing.T) {
	atOrAbove := func(attended, total int, target float64) bool {
		return total > 0 && float64(attended)*100 >= target*float64(total)
	}

	for _, target := range []float64{1e-6, 0.5, 33.3, 75, 99.5} {
		for _, c := range []struct{ attended, total int }{
			{0, 1 << 30}, {1 << 29, 1 << 30}, {1<<30 - 1, 1 << 30}, {1 << 30, 1 << 30}, {123456789, 987654321},
		} {
			proj := projectWithin(t, c.attended, c.total, target)
			if proj.Unbounded {
				continue
			}
			switch proj.Direction {
			case SafeSkips:
				assert.True(t, atOrAbove(c.attended, c.total+proj.Count, target), "%v %v", c, target)
				assert.False(t, atOrAbove(c.attended, c.total+proj.Count+1, target), "%v %v", c, target)
			case ClassesNeeded:
				assert.True(t, atOrAbove(c.attended+proj.Count, c.total+proj.Count, target), "%v %v", c, target)
				if proj.Count > 0 {
					assert.False(t, atOrAbove(c.attended+proj.Count-1, c.total+proj.Count-1, target), "%v %v", c, target)
				}
			}
		}
	}
}
