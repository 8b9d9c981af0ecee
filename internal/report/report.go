// Package report projects an aggregate into printable per-day summaries.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verte-zerg/tally/internal/aggregate"
	"github.com/verte-zerg/tally/internal/model"
)

const (
	indent       = 5
	separatorLen = 50
)

// Section is the summary of one date.
type Section struct {
	Date    model.Date
	Total   time.Duration
	Entries []model.Entry
}

// Project builds one section per selected date.
//
// With filter.Dates set, dates come in the given order; otherwise every
// aggregate date in chronological order. With filter.Names set, each section
// lists exactly those names (zero when absent) and totals only them; otherwise
// it lists every identity present on the date.
func Project(agg *aggregate.Aggregate, filter model.Filter) []Section {
	dates := filter.Dates
	if len(dates) == 0 {
		dates = agg.Dates()
	}
	sections := make([]Section, 0, len(dates))
	for _, date := range dates {
		names := filter.Names
		if len(names) == 0 {
			if !agg.Has(date) {
				sections = append(sections, Section{Date: date})
				continue
			}
			names = agg.Identities(date)
		}
		sec := Section{Date: date, Entries: make([]model.Entry, 0, len(names))}
		for _, name := range names {
			d, _ := agg.Get(date, name)
			sec.Total += d
			sec.Entries = append(sec.Entries, model.Entry{Date: date, Identity: name, Duration: d})
		}
		sections = append(sections, sec)
	}
	return sections
}

// FormatDuration renders d as H:MM:SS with unbounded hours.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%s%d:%02d:%02d", sign, secs/3600, (secs/60)%60, secs%60)
}

// Lines renders sections as printable lines, one header per date followed by
// one indented line per entry and a dashed separator.
func Lines(sections []Section) []string {
	pad := strings.Repeat(" ", indent)
	sep := strings.Repeat("-", separatorLen)
	var lines []string
	for _, sec := range sections {
		lines = append(lines, fmt.Sprintf("date: %s, total_time: %s", sec.Date, FormatDuration(sec.Total)))
		for _, e := range sec.Entries {
			lines = append(lines, fmt.Sprintf("%s%s: %s", pad, e.Identity, FormatDuration(e.Duration)))
		}
		lines = append(lines, sep)
	}
	return lines
}

// Render writes Lines(sections) to w.
func Render(w io.Writer, sections []Section) error {
	if len(sections) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	for _, line := range Lines(sections) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTable writes sections as an aligned Date/Person/Time table.
func RenderTable(w io.Writer, sections []Section) error {
	if len(sections) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	for _, line := range TableLines(sections) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// TableLines lays sections out as table rows with a total row per date and a
// grand total at the end.
func TableLines(sections []Section) []string {
	tbl := newTextTable("Date", "Person", "Time")
	tbl.alignRight(2)
	var grand time.Duration
	for _, sec := range sections {
		grand += sec.Total
		dateCell := sec.Date.String()
		for _, e := range sec.Entries {
			tbl.add(dateCell, e.Identity, FormatDuration(e.Duration))
			dateCell = ""
		}
		tbl.add(dateCell, "total", FormatDuration(sec.Total))
		tbl.rule()
	}
	tbl.add("", "all dates", FormatDuration(grand))
	return tbl.lines()
}
