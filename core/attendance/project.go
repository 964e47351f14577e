package attendance

import "math"

// maxCount is the largest count reported. Projections beyond it are Unbounded.
const maxCount = 1 << 52

// Direction tells whether a Projection counts skips left or classes to attend.
type Direction string

const (
	// SafeSkips means the target is met; Count absences in a row keep it met.
	SafeSkips Direction = "safe_skips"
	// ClassesNeeded means the target is missed; Count presences in a row reach it.
	ClassesNeeded Direction = "classes_needed"
)

// Projection is the distance of a counter to its target percentage.
type Projection struct {
	TargetPercent float64   `json:"target_percent"`
	Direction     Direction `json:"direction"`
	Count         int       `json:"count"`
	// Unbounded is set when Count is meaningless: a target of 100% (or more) that
	// can never be reached again, a target of 0% that can never be missed, or a
	// count too large to represent.
	Unbounded bool `json:"unbounded"`
}

// meets compares attended/total to the target without dividing, so exact ties hold.
func meets(attended, total, targetPercent float64) bool {
	return total > 0 && attended*100 >= targetPercent*total
}

// Project computes how many sessions can be skipped while staying at or above
// targetPercent, or how many consecutive sessions must be attended to get back to it.
// Skips are rounded down and classes needed rounded up. It runs in constant time.
func Project(attended, total int, targetPercent float64) Projection {
	proj := Projection{TargetPercent: targetPercent}
	a, n := float64(attended), float64(total)

	switch {
	case math.IsNaN(targetPercent):
		proj.Direction = ClassesNeeded
		proj.Unbounded = true
		return proj
	case targetPercent <= 0:
		proj.Direction = SafeSkips
		proj.Unbounded = true
		return proj
	}

	if meets(a, n, targetPercent) {
		proj.Direction = SafeSkips
		f := math.Floor(a*100/targetPercent - n)
		if !(f < maxCount) {
			proj.Unbounded = true
			return proj
		}
		x := math.Max(f, 0)
		// the closed form is off by at most one step either way
		if x > 0 && !meets(a, n+x, targetPercent) {
			x--
		} else if meets(a, n+x+1, targetPercent) {
			x++
		}
		proj.Count = int(x)
		return proj
	}

	proj.Direction = ClassesNeeded
	if targetPercent >= 100 {
		proj.Unbounded = true
		return proj
	}
	f := math.Ceil((targetPercent*n - a*100) / (100 - targetPercent))
	if !(f < maxCount) {
		proj.Unbounded = true
		return proj
	}
	x := math.Max(f, 0)
	if !meets(a+x, n+x, targetPercent) {
		x++
	} else if x > 0 && meets(a+x-1, n+x-1, targetPercent) {
		x--
	}
	proj.Count = int(x)
	return proj
}
