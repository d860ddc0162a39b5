package booking

import (
	"math"
	"time"
)

// Window is a start/end instant pair at minute precision. Either endpoint
// may be zero while the user is still picking.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) IsComplete() bool {
	return !w.Start.IsZero() && !w.End.IsZero()
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

type Estimate struct {
	DurationHours float64 `json:"duration_hours"`
	Cost          float64 `json:"cost"`
}

// Quote prices a window at the given hourly rate. Billing rounds the
// duration up to the next whole hour (90 minutes bills as 2 hours);
// DurationHours stays fractional for display. An incomplete window quotes
// as zero rather than erroring, since that is the "nothing selected yet"
// state of the booking dialog.
func Quote(w Window, hourlyRate float64) (Estimate, error) {
	if !w.IsComplete() {
		return Estimate{}, nil
	}
	if !w.End.After(w.Start) {
		return Estimate{}, ErrInvertedWindow
	}
	hours := w.Duration().Hours()
	return Estimate{
		DurationHours: hours,
		Cost:          math.Ceil(hours) * hourlyRate,
	}, nil
}
