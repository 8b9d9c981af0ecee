// Package aggregate holds per-day, per-person durations.
package aggregate

import (
	"sort"
	"time"

	"github.com/verte-zerg/tally/internal/model"
)

// Aggregate maps a date to the durations of every identity seen on it.
// It is not safe for concurrent mutation.
type Aggregate struct {
	days map[model.Date]*day
}

type day struct {
	order     []string
	durations map[string]time.Duration
}

// New returns an empty aggregate.
func New() *Aggregate {
	return &Aggregate{days: map[model.Date]*day{}}
}

// Set stores d for (date, identity), replacing any previous value.
// A replaced identity keeps its original position within the date.
func (a *Aggregate) Set(date model.Date, identity string, d time.Duration) {
	bucket, ok := a.days[date]
	if !ok {
		bucket = &day{durations: map[string]time.Duration{}}
		a.days[date] = bucket
	}
	if _, seen := bucket.durations[identity]; !seen {
		bucket.order = append(bucket.order, identity)
	}
	bucket.durations[identity] = d
}

// Get returns the duration for (date, identity) and whether it exists.
func (a *Aggregate) Get(date model.Date, identity string) (time.Duration, bool) {
	bucket, ok := a.days[date]
	if !ok {
		return 0, false
	}
	d, ok := bucket.durations[identity]
	return d, ok
}

// Has reports whether any identity is recorded on date.
func (a *Aggregate) Has(date model.Date) bool {
	_, ok := a.days[date]
	return ok
}

// Dates returns every recorded date in chronological order.
func (a *Aggregate) Dates() []model.Date {
	dates := make([]model.Date, 0, len(a.days))
	for d := range a.days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// Identities returns the identities recorded on date in first-insertion order.
func (a *Aggregate) Identities(date model.Date) []string {
	bucket, ok := a.days[date]
	if !ok {
		return nil
	}
	return append([]string(nil), bucket.order...)
}

// Total sums the durations of every identity on date.
func (a *Aggregate) Total(date model.Date) time.Duration {
	bucket, ok := a.days[date]
	if !ok {
		return 0
	}
	var total time.Duration
	for _, d := range bucket.durations {
		total += d
	}
	return total
}

// Entries flattens the aggregate in date order, then identity order.
func (a *Aggregate) Entries() []model.Entry {
	var out []model.Entry
	for _, date := range a.Dates() {
		bucket := a.days[date]
		for _, id := range bucket.order {
			out = append(out, model.Entry{Date: date, Identity: id, Duration: bucket.durations[id]})
		}
	}
	return out
}

// Len returns the number of (date, identity) entries.
func (a *Aggregate) Len() int {
	n := 0
	for _, bucket := range a.days {
		n += len(bucket.order)
	}
	return n
}

// FromEntries rebuilds an aggregate by applying entries in order.
func FromEntries(entries []model.Entry) *Aggregate {
	a := New()
	for _, e := range entries {
		a.Set(e.Date, e.Identity, e.Duration)
	}
	return a
}
