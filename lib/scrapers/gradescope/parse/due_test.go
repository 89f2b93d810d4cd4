package parse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestDueStringTable(t *testing.T) {
	testCases := []struct {
		delta   time.Duration
		message string
		urgency Urgency
	}{
		{delta: 5*day + 10*time.Hour, message: "Due in 5 days", urgency: Normal},
		{delta: 3*day + time.Second, message: "Due in 3 days", urgency: Normal},
		{delta: 3 * day, message: "Due in 3 days 0 hours", urgency: Warn},
		{delta: day + 5*time.Hour + 30*time.Minute, message: "Due in 1 days 5 hours", urgency: Warn},
		{delta: day, message: "Due in 24 hours", urgency: Urgent},
		{delta: 5*time.Hour + 40*time.Minute, message: "Due in 6 hours", urgency: Urgent},
		{delta: 3 * time.Hour, message: "Due in 3 hours 0 minutes", urgency: Urgent},
		{delta: 2*time.Hour + 15*time.Minute, message: "Due in 2 hours 15 minutes", urgency: Urgent},
		{delta: time.Hour, message: "Due in 60 minutes", urgency: Danger},
		{delta: 90 * time.Second, message: "Due in 2 minutes", urgency: Danger},
		{delta: time.Minute, message: "Due in less than a minute", urgency: Dead},
		{delta: time.Second, message: "Due in less than a minute", urgency: Dead},
		{delta: 0, message: "Already Due", urgency: Warn},
	}

	for _, test := range testCases {
		status := DueString(now, at(test.delta), nil)
		require.Equal(t, test.message, status.Message, test.delta.String())
		require.Equal(t, test.urgency, status.Urgency, test.delta.String())
	}
}

func TestDueStringDeadWithinAMinute(t *testing.T) {
	for d := time.Millisecond; d <= time.Minute; d += 997 * time.Millisecond {
		require.Equal(t, Dead, DueString(now, at(d), nil).Urgency, d.String())
	}
	require.Equal(t, Dead, DueString(now, at(time.Minute), nil).Urgency)
}

func TestDueStringLate(t *testing.T) {
	late := DueString(now, at(-time.Hour), at(time.Hour))
	direct := DueString(now, at(time.Hour), nil)
	require.True(t, strings.HasPrefix(late.Message, "Late "))
	require.Equal(t, "Late "+direct.Message, late.Message)
	require.Equal(t, direct.Urgency, late.Urgency)

	late = DueString(now, at(-time.Hour), at(4*day))
	require.Equal(t, "Late Due in 4 days", late.Message)
	require.Equal(t, Normal, late.Urgency)

	require.Equal(t,
		DueStatus{Message: "Late Already Due", Urgency: Warn},
		DueString(now, at(-time.Hour), at(-2*time.Hour)),
	)
	require.Equal(t,
		DueStatus{Message: "Already Due", Urgency: Warn},
		DueString(now, at(-time.Hour), nil),
	)
}

func TestDueStringNoDueDate(t *testing.T) {
	require.Equal(t, DueStatus{Urgency: Normal}, DueString(now, nil, nil))
	require.Equal(t, DueStatus{Urgency: Normal}, DueString(now, nil, at(time.Hour)))
}
