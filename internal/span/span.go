// Package span splits a start/end interval into per-calendar-day durations.
package span

import (
	"errors"
	"time"

	"github.com/verte-zerg/tally/internal/model"
)

// ErrReversed is returned when the end of a span precedes its start.
var ErrReversed = errors.New("span ends before it starts")

const (
	fullDay = 24 * time.Hour
	// lastSecond is 23:59:59, the end-of-day mark for a span's first day.
	lastSecond = fullDay - time.Second
)

// Part is the share of a span that falls on one calendar date.
type Part struct {
	Date     model.Date
	Duration time.Duration
}

// Split returns one Part per calendar date touched by [start, end], in date order.
//
// The first day of a multi-day span is measured up to 23:59:59, the last day from
// 00:00:00, and every day in between counts as exactly 24 hours.
func Split(start, end time.Time) ([]Part, error) {
	if end.Before(start) {
		return nil, ErrReversed
	}
	first := model.DateOf(start)
	last := model.DateOf(end)
	if first == last {
		return []Part{{Date: first, Duration: end.Sub(start)}}, nil
	}

	days := first.DaysUntil(last)
	parts := make([]Part, 0, days+1)
	parts = append(parts, Part{
		Date:     first,
		Duration: first.Midnight(start.Location()).Add(lastSecond).Sub(start),
	})
	for i := 1; i < days; i++ {
		parts = append(parts, Part{Date: first.AddDays(i), Duration: fullDay})
	}
	parts = append(parts, Part{
		Date:     last,
		Duration: end.Sub(last.Midnight(end.Location())),
	})
	return parts, nil
}
