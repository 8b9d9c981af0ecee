// Package timestamp extracts record timestamps from loosely delimited text.
package timestamp

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalid is returned when text does not hold a day-month-year hour-minute-second timestamp.
var ErrInvalid = errors.New("invalid timestamp")

const (
	// parseLayout accepts one- or two-digit fields and a four-digit year.
	parseLayout = "2-1-2006 15-4-5"
	// CanonicalLayout is the form written by Format.
	CanonicalLayout = "02-01-2006 15:04:05"
)

var delimiterRun = regexp.MustCompile(`[.,:;/\\_]+`)

// Normalize rewrites every delimiter run to '-' and squeezes whitespace.
func Normalize(text string) string {
	text = delimiterRun.ReplaceAllString(strings.TrimSpace(text), "-")
	return strings.Join(strings.Fields(text), " ")
}

// Extract parses text as a naive local timestamp, returned in UTC.
func Extract(text string) (time.Time, error) {
	normalized := Normalize(text)
	ts, err := time.ParseInLocation(parseLayout, normalized, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, text)
	}
	return ts, nil
}

// Format renders ts in CanonicalLayout.
func Format(ts time.Time) string {
	return ts.Format(CanonicalLayout)
}
