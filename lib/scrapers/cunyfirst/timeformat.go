package cunyfirst

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Timeblock is a recurring weekly time range referenced by id from
// one or more sections.
type Timeblock struct {
	Id    string
	Day   string // Mon..Sun, or Unk
	Start int    // minute of day
	End   int
}

var dayOrder = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun", "Unk"}

func dayAbbr(code string) string {
	switch code {
	case "1":
		return "Mon"
	case "2":
		return "Tue"
	case "3":
		return "Wed"
	case "4":
		return "Thu"
	case "5":
		return "Fri"
	case "6":
		return "Sat"
	case "7":
		return "Sun"
	}
	return "Unk"
}

func dayIndex(day string) int {
	for i, d := range dayOrder {
		if d == day {
			return i
		}
	}
	return len(dayOrder)
}

func formatMinutes(minute int, hour12 bool) string {
	h := minute / 60
	m := minute % 60
	if !hour12 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h = h % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, m, suffix)
}

// buildTimeText renders the weekly meeting times of a section.
// Distinct days sharing an identical time range are grouped together
// ordered Mon through Sun, distinct ranges land on separate lines.
// Ids not present in the timeblock table are skipped, and a section
// with no renderable times reads "TBA".
func buildTimeText(timeblockIds []string, timeblocks map[string]Timeblock, hour12 bool) string {
	type group struct {
		timeRange string
		days      []string
	}
	var groups []*group
	byRange := map[string]*group{}

	for _, id := range timeblockIds {
		tb, ok := timeblocks[id]
		if !ok {
			slog.Warn("section references an unknown timeblock", "id", id)
			continue
		}
		timeRange := fmt.Sprintf(
			"%s to %s",
			formatMinutes(tb.Start, hour12),
			formatMinutes(tb.End, hour12),
		)
		g, ok := byRange[timeRange]
		if !ok {
			g = &group{timeRange: timeRange}
			byRange[timeRange] = g
			groups = append(groups, g)
		}
		if !slices.Contains(g.days, tb.Day) {
			g.days = append(g.days, tb.Day)
		}
	}

	if len(groups) == 0 {
		return "TBA"
	}

	parts := make([]string, len(groups))
	for i, g := range groups {
		slices.SortFunc(g.days, func(a, b string) int {
			return dayIndex(a) - dayIndex(b)
		})
		parts[i] = fmt.Sprintf("%s: %s", strings.Join(g.days, ", "), g.timeRange)
	}
	return strings.Join(parts, "\n")
}
