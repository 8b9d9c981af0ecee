// Package query validates report filters given on the command line.
package query

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/tally/internal/model"
	"github.com/verte-zerg/tally/internal/namelist"
)

// DateLayout is the accepted form of a date filter (day-month-year).
const DateLayout = "2-1-2006"

// MaxDates is the largest number of dates a filter may name.
const MaxDates = 2

// Sentinel errors, each reported with its own exit code.
var (
	ErrFileNotFound = errors.New("XML file not found, please check path")
	ErrBadDate      = errors.New("wrong date format (use dd-mm-yyyy), check it and try again")
	ErrTooManyDates = errors.New("number of dates should be less than 3")
	ErrBadName      = errors.New("wrong name format, check it and try again")
)

// ExitCode maps a validation error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrBadDate):
		return 2
	case errors.Is(err, ErrTooManyDates):
		return 3
	case errors.Is(err, ErrBadName):
		return 4
	default:
		return 1
	}
}

// CheckInput returns ErrFileNotFound unless path names a readable regular file.
func CheckInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	return nil
}

// ParseDates validates one date (a single day) or two dates (an inclusive
// range, in either order) and returns every day covered.
func ParseDates(raw []string) ([]model.Date, error) {
	raw = splitValues(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw) > MaxDates {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyDates, len(raw))
	}
	dates := make([]model.Date, 0, len(raw))
	for _, value := range raw {
		parsed, err := time.ParseInLocation(DateLayout, value, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadDate, value)
		}
		dates = append(dates, model.DateOf(parsed))
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	if len(dates) == 1 {
		return dates, nil
	}
	first, last := dates[0], dates[1]
	days := first.DaysUntil(last)
	out := make([]model.Date, 0, days+1)
	for i := 0; i <= days; i++ {
		out = append(out, first.AddDays(i))
	}
	return out, nil
}

// ParseNames validates every name and returns them lowercased, in order.
func ParseNames(raw []string) ([]string, error) {
	raw = splitValues(raw)
	if bad := namelist.Invalid(raw); len(bad) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBadName, strings.Join(bad, ", "))
	}
	names := make([]string, len(raw))
	for i, n := range raw {
		names[i] = strings.ToLower(n)
	}
	return names, nil
}

// splitValues trims values, drops empties and splits on commas so that both
// repeated flags and comma lists are accepted.
func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
