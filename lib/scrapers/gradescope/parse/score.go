package parse

import (
	"strconv"
	"strings"
)

// Score is the value shown in an assignment's status column, either a
// graded "actual/full" fraction or a status text like "Missing".
type Score struct {
	Actual   float64
	Full     float64
	Fraction bool
	Display  string
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ParseScore(text string) Score {
	text = strings.TrimSpace(text)
	actualText, fullText, found := strings.Cut(text, "/")
	if !found {
		return Score{Display: text}
	}

	actual, err := strconv.ParseFloat(strings.TrimSpace(actualText), 64)
	if err != nil {
		return Score{Display: text}
	}
	full, err := strconv.ParseFloat(strings.TrimSpace(fullText), 64)
	if err != nil {
		return Score{Display: text}
	}

	return Score{
		Actual:   actual,
		Full:     full,
		Fraction: true,
		Display:  formatFloat(actual) + "/" + formatFloat(full),
	}
}

func (s Score) String() string {
	return s.Display
}
