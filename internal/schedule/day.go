// Package schedule holds the pure rules for time blocks: which calendar day
// a request addresses, which blocks intersect it, and what a valid block is.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the format of the date query parameter.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date parameter is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// ErrInvalidTimestamp is returned for a timestamp in none of the accepted layouts.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// now is replaced in tests.
var now = time.Now

// timestampLayouts are tried in order after RFC3339.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Day is the closed interval covering one calendar day.
type Day struct {
	Start time.Time // 00:00:00.000
	End   time.Time // 23:59:59.999
}

// ParseDate resolves the date query parameter in loc. An empty string means today.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		y, m, d := now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// DayRange returns the bounds of the calendar day containing date, in date's location.
func DayRange(date time.Time) Day {
	y, m, d := date.Date()
	loc := date.Location()
	return Day{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc),
	}
}

// Overlaps reports whether [start, end] intersects the day at all.
// A block that spans midnight into or out of the day is included.
func (d Day) Overlaps(start, end time.Time) bool {
	return !start.After(d.End) && !end.Before(d.Start)
}

// ParseTimestamp parses a client-supplied instant. Offsets are honoured and the
// result is converted into loc; zone-less values are read as wall-clock time in
// loc. An empty string returns the zero time and no error (absent). Values
// finer than a millisecond are rejected.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := parseTimestamp(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	// Blocks are stored with millisecond precision.
	if t.Nanosecond()%int(time.Millisecond) != 0 {
		return time.Time{}, fmt.Errorf("%w: %q has sub-millisecond precision", ErrInvalidTimestamp, s)
	}
	return t, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
