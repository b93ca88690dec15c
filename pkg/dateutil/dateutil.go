// Package dateutil formats the current time for the __DATE__, __TIME__, and
// __TIMESTAMP__ built-in tokens.
package dateutil

import "time"

// Stamp carries the calendar fields needed to format a built-in timestamp
// token without redoing a time.Now() call per format request.
type Stamp struct {
	t time.Time
}

// Now captures the current local time.
func Now() Stamp {
	return Stamp{t: time.Now()}
}

// Format renders the stamp using one of the fixed pattern codes consumed by
// the built-in token substitution: "MMM-dd-yyyy", "HH:mm:ss", or
// "ddd MM yyyy HH:mm:ss". Unrecognized patterns are returned unformatted.
func (s Stamp) Format(pattern string) string {
	switch pattern {
	case "MMM-dd-yyyy":
		return s.t.Format("Jan-02-2006")
	case "HH:mm:ss":
		return s.t.Format("15:04:05")
	case "ddd MM yyyy HH:mm:ss":
		return s.t.Format("Mon 01 2006 15:04:05")
	default:
		return pattern
	}
}
