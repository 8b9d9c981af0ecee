// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// DateLayout is the layout used when printing dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date without a time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate builds a normalized date; out-of-range days roll over like time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Midnight returns 00:00:00 of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	diff := other.Midnight(time.UTC).Unix() - d.Midnight(time.UTC).Unix()
	return int(diff / secondsPerDay)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Entry is one identity's duration on one date.
type Entry struct {
	Date     Date
	Identity string
	Duration time.Duration
}

// Filter selects which dates and identities a report covers. Empty slices mean "all".
type Filter struct {
	Dates []Date
	Names []string
}

// ParseStats summarizes one parse pass.
type ParseStats struct {
	Elements        int
	Records         int
	Accepted        int
	InvalidIdentity int
	InvalidTime     int
	Incomplete      int
	Reversed        int
	Abandoned       int
	ExtraTimestamps int
	Elapsed         time.Duration
}

// Discarded returns the number of records dropped for any reason.
func (s ParseStats) Discarded() int {
	return s.InvalidIdentity + s.InvalidTime + s.Incomplete + s.Reversed + s.Abandoned
}
