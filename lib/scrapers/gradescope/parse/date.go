package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var DateParseFailure = errors.New("failed to parse date")

var monthAbbreviations = []string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// "DEC 05 AT 11:59PM", the hour may be space padded or a single digit
var dueRegex = regexp.MustCompile(`(?i)([A-Z]{3}) (\d{2}) AT +(\d{1,2}):(\d{2})([AP])M$`)

// "DEC 05"
var releaseRegex = regexp.MustCompile(`(?i)^([A-Z]{3}) (\d{2})$`)

var yearRegex = regexp.MustCompile(`20\d{2}`)

func parseMonth(text string) (time.Month, bool) {
	text = strings.ToUpper(text)
	for i, abbr := range monthAbbreviations {
		if abbr == text {
			return time.January + time.Month(i), true
		}
	}
	return 0, false
}

func MatchesDue(text string) bool {
	return dueRegex.MatchString(strings.TrimSpace(text))
}

func MatchesRelease(text string) bool {
	return releaseRegex.MatchString(strings.TrimSpace(text))
}

// ParseDue parses a due date cell in the given year. The hour is read as a
// 12 hour clock value with 12 added for PM only, so "12:00AM" resolves to
// noon and "12:30PM" rolls over into the next day.
func ParseDue(year int, text string, loc *time.Location) (time.Time, error) {
	groups := dueRegex.FindStringSubmatch(strings.TrimSpace(text))
	if len(groups) < 6 {
		return time.Time{}, fmt.Errorf("%w: %q does not look like a due date", DateParseFailure, text)
	}

	month, ok := parseMonth(groups[1])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown month %q", DateParseFailure, groups[1])
	}
	day, err := strconv.Atoi(groups[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", DateParseFailure, err.Error())
	}
	hour, err := strconv.Atoi(groups[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", DateParseFailure, err.Error())
	}
	minute, err := strconv.Atoi(groups[4])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", DateParseFailure, err.Error())
	}
	if strings.EqualFold(groups[5], "P") {
		hour += 12
	}

	return time.Date(year, month, day, hour, minute, 0, 0, loc), nil
}

func ParseRelease(year int, text string, loc *time.Location) (time.Time, error) {
	groups := releaseRegex.FindStringSubmatch(strings.TrimSpace(text))
	if len(groups) < 3 {
		return time.Time{}, fmt.Errorf("%w: %q does not look like a release date", DateParseFailure, text)
	}

	month, ok := parseMonth(groups[1])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown month %q", DateParseFailure, groups[1])
	}
	day, err := strconv.Atoi(groups[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", DateParseFailure, err.Error())
	}

	return time.Date(year, month, day, 0, 0, 0, 0, loc), nil
}

// TermYear pulls the calendar year out of a term label like "Fall 2023",
// labels without one resolve to the year of now.
func TermYear(term string, now time.Time) int {
	match := yearRegex.FindString(term)
	if match == "" {
		return now.Year()
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return now.Year()
	}
	return year
}
