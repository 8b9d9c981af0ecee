package report

import (
	"math"
	"strings"
	"time"
)

const sparkChars = " .:-=+*#%@"

// DailyTotal is the summed time of one section.
type DailyTotal struct {
	Label string
	Total time.Duration
}

// DailyTotals returns one total per section, in section order.
func DailyTotals(sections []Section) []DailyTotal {
	out := make([]DailyTotal, len(sections))
	for i, sec := range sections {
		out[i] = DailyTotal{Label: sec.Date.String(), Total: sec.Total}
	}
	return out
}

// Sparkline renders totals as one ASCII character each, scaled from zero to
// the largest total.
func Sparkline(totals []DailyTotal) string {
	if len(totals) == 0 {
		return ""
	}
	var peak time.Duration
	for _, t := range totals {
		peak = max(peak, t.Total)
	}
	if peak <= 0 {
		return strings.Repeat(string(sparkChars[0]), len(totals))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, t := range totals {
		idx := int(math.Round(float64(t.Total) / float64(peak) * float64(last)))
		idx = min(max(idx, 0), last)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Bars renders one labelled horizontal bar per total, at most width cells long.
func Bars(totals []DailyTotal, width int) []string {
	if len(totals) == 0 {
		return nil
	}
	var peak time.Duration
	labelWidth := 0
	for _, t := range totals {
		peak = max(peak, t.Total)
		labelWidth = max(labelWidth, displayWidth(t.Label))
	}
	width = max(width, 1)
	lines := make([]string, 0, len(totals))
	for _, t := range totals {
		n := 0
		if peak > 0 {
			n = int(math.Round(float64(t.Total) / float64(peak) * float64(width)))
		}
		lines = append(lines, padCell(t.Label, labelWidth, false)+" | "+
			strings.Repeat("#", n)+" "+FormatDuration(t.Total))
	}
	return lines
}
