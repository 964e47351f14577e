package attendance

import (
	"math"

	"github.com/pkg/errors"
)

var ErrInvalidArgument = errors.New("invalid argument")

// ValidateCounter rejects negative counters and attended > total.
func ValidateCounter(attended, total int) error {
	switch {
	case attended < 0:
		return errors.Wrap(ErrInvalidArgument, "attended cannot be negative")
	case total < 0:
		return errors.Wrap(ErrInvalidArgument, "total cannot be negative")
	case attended > total:
		return errors.Wrap(ErrInvalidArgument, "attended cannot exceed total")
	}
	return nil
}

// ValidateTarget rejects targets outside (0, 100].
func ValidateTarget(targetPercent float64) error {
	if math.IsNaN(targetPercent) || targetPercent <= 0 || targetPercent > 100 {
		return errors.Wrapf(ErrInvalidArgument, "target must be within (0, 100], got %v", targetPercent)
	}
	return nil
}
