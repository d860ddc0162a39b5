package booking

import "time"

// Normalize reinterprets the wall-clock fields of t as a UTC instant at
// minute precision. Seconds and below are truncated and the zone is
// dropped, not converted: the instant carries exactly the calendar fields
// the user saw on the picker.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}
