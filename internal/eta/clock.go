package eta

import (
	"errors"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("invalid clock time")

// FormatError reports a clock string that is not HH:MM.
type FormatError struct {
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("eta: %q is not a HH:MM clock time: %v", e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrInvalidClock }

// TimeOfDay is minutes since midnight in [0, 1440).
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, &FormatError{Value: s, Err: err}
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// Add shifts t by minutes, wrapping across midnight in either direction.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	m := (int(t) + minutes) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return TimeOfDay(m)
}

func (t TimeOfDay) Hour() int { return int(t) / 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
