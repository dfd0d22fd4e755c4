package lifecycle

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var compactYearMonth = regexp.MustCompile(`^\d{6}$`)

// dateLayouts are tried in order; the first successful parse wins.
// Missing month or day components default to 1.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006-1",
	"2006/1",
	"2006.1",
	"2006年1月2日",
	"2006年1月",
	"2006",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
	time.RFC3339,
}

// NormalizeDate converts free-form commission date text into a calendar
// date at UTC midnight. It reports false instead of failing.
func NormalizeDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	if compactYearMonth.MatchString(value) {
		year, _ := strconv.Atoi(value[:4])
		month, _ := strconv.Atoi(value[4:])
		if year >= 1 && month >= 1 && month <= 12 {
			return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
		}
	}

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// DaysBetween counts whole calendar days from start to end. The result is
// negative when end precedes start.
func DaysBetween(start, end time.Time) int {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
