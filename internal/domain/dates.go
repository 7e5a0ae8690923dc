package domain

import "time"

// DateLayout is the calendar date format used in cache keys and on the wire.
const DateLayout = "2006-01-02"

// Day returns t's calendar date as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ValidateRange reports ErrInvalidRange unless checkOut is strictly after checkIn.
func ValidateRange(checkIn, checkOut time.Time) error {
	if !Day(checkOut).After(Day(checkIn)) {
		return ErrInvalidRange
	}
	return nil
}
