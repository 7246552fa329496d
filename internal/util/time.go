package util

import "time"

// Clock layouts used on schedule cards. ClockLayout renders "2:00pm",
// ClockLayoutShort renders "2:00" for the first half of a range.
const (
	ClockLayout      = "3:04pm"
	ClockLayoutShort = "3:04"
)

// LoadLocationOr loads an IANA zone, returning fallback when the name is unknown.
func LoadLocationOr(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}

// FormatClock renders t in loc with the full meridiem layout.
func FormatClock(t time.Time, loc *time.Location) string {
	return inLocation(t, loc).Format(ClockLayout)
}

// FormatTimeRange renders a start/end pair for display. Without a distinct end the
// start carries the meridiem and end is empty; otherwise only the end carries it.
func FormatTimeRange(start time.Time, end *time.Time, loc *time.Location) (string, string) {
	if end == nil || end.Equal(start) {
		return FormatClock(start, loc), ""
	}
	return inLocation(start, loc).Format(ClockLayoutShort), FormatClock(*end, loc)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
