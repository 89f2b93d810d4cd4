package parse

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDue(t *testing.T) {
	testCases := []struct {
		text   string
		expect time.Time
	}{
		{text: "DEC 05 AT 11:59PM", expect: time.Date(2023, time.December, 5, 23, 59, 0, 0, time.UTC)},
		{text: "dec 05 at 11:59pm", expect: time.Date(2023, time.December, 5, 23, 59, 0, 0, time.UTC)},
		{text: "Due Date: SEP 12 AT  9:05AM", expect: time.Date(2023, time.September, 12, 9, 5, 0, 0, time.UTC)},
		{text: "SEP 12 AT 9:05PM", expect: time.Date(2023, time.September, 12, 21, 5, 0, 0, time.UTC)},
		// 12 AM is not shifted back to midnight
		{text: "DEC 05 AT 12:00AM", expect: time.Date(2023, time.December, 5, 12, 0, 0, 0, time.UTC)},
		// 12 PM gets 12 added and rolls into the next day
		{text: "DEC 05 AT 12:30PM", expect: time.Date(2023, time.December, 6, 0, 30, 0, 0, time.UTC)},
	}

	for _, test := range testCases {
		require.True(t, MatchesDue(test.text), test.text)
		result, err := ParseDue(2023, test.text, time.UTC)
		require.NoError(t, err, test.text)
		require.Equal(t, test.expect, result, test.text)
	}
}

func TestParseDueFailures(t *testing.T) {
	for _, text := range []string{"", "--", "No due date", "DEC 05", "DEC 5 AT 11:59PM", "DEC 05 AT 11:59"} {
		require.False(t, MatchesDue(text), text)
		_, err := ParseDue(2023, text, time.UTC)
		require.True(t, errors.Is(err, DateParseFailure), text)
	}

	// right shape, unknown month
	require.True(t, MatchesDue("ABC 05 AT 11:59PM"))
	_, err := ParseDue(2023, "ABC 05 AT 11:59PM", time.UTC)
	require.ErrorIs(t, err, DateParseFailure)
}

func TestParseRelease(t *testing.T) {
	result, err := ParseRelease(2024, "JAN 17", time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.January, 17, 0, 0, 0, 0, time.UTC), result)

	result, err = ParseRelease(2024, " feb 02 ", time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC), result)

	for _, text := range []string{"", "JAN 17 AT 11:59PM", "January 17", "JAN 7"} {
		require.False(t, MatchesRelease(text), text)
		_, err := ParseRelease(2024, text, time.UTC)
		require.ErrorIs(t, err, DateParseFailure, text)
	}
}

func TestTermYear(t *testing.T) {
	now := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 2023, TermYear("Fall 2023", now))
	require.Equal(t, 2024, TermYear("Spring 2024 ", now))
	require.Equal(t, 2026, TermYear("Summer Session", now))
	require.Equal(t, 2026, TermYear("", now))
}
