package parse

import (
	"fmt"
	"math"
	"time"
)

type Urgency string

const (
	Normal Urgency = "normal"
	Warn   Urgency = "warn"
	Urgent Urgency = "urgent"
	Danger Urgency = "danger"
	Dead   Urgency = "dead"
)

type DueStatus struct {
	Message string
	Urgency Urgency
}

const day = 24 * time.Hour

type dueRule struct {
	// the rule applies when delta is strictly greater than this, the rule
	// above it in the table bounds it from the top
	above   time.Duration
	urgency Urgency
	message func(delta time.Duration) string
}

func rounded(delta, unit time.Duration) int64 {
	return int64(math.Round(float64(delta) / float64(unit)))
}

var dueRules = []dueRule{
	{
		above:   3 * day,
		urgency: Normal,
		message: func(delta time.Duration) string {
			return fmt.Sprintf("Due in %d days", rounded(delta, day))
		},
	},
	{
		above:   day,
		urgency: Warn,
		message: func(delta time.Duration) string {
			return fmt.Sprintf("Due in %d days %d hours", delta/day, (delta%day)/time.Hour)
		},
	},
	{
		above:   3 * time.Hour,
		urgency: Urgent,
		message: func(delta time.Duration) string {
			return fmt.Sprintf("Due in %d hours", rounded(delta, time.Hour))
		},
	},
	{
		above:   time.Hour,
		urgency: Urgent,
		message: func(delta time.Duration) string {
			return fmt.Sprintf("Due in %d hours %d minutes", delta/time.Hour, (delta%time.Hour)/time.Minute)
		},
	},
	{
		above:   time.Minute,
		urgency: Danger,
		message: func(delta time.Duration) string {
			return fmt.Sprintf("Due in %d minutes", rounded(delta, time.Minute))
		},
	},
	{
		above:   0,
		urgency: Dead,
		message: func(time.Duration) string {
			return "Due in less than a minute"
		},
	},
}

func classify(delta time.Duration) (DueStatus, bool) {
	for _, rule := range dueRules {
		if delta > rule.above {
			return DueStatus{Message: rule.message(delta), Urgency: rule.urgency}, true
		}
	}
	return DueStatus{}, false
}

// DueString describes how close due is relative to now. Once due has
// passed, an upcoming late due date is described instead with a "Late "
// prefix.
func DueString(now time.Time, due, lateDue *time.Time) DueStatus {
	if due == nil {
		return DueStatus{Urgency: Normal}
	}
	if status, ok := classify(due.Sub(now)); ok {
		return status
	}
	if lateDue == nil {
		return DueStatus{Message: "Already Due", Urgency: Warn}
	}
	if status, ok := classify(lateDue.Sub(now)); ok {
		return DueStatus{Message: "Late " + status.Message, Urgency: status.Urgency}
	}
	return DueStatus{Message: "Late Already Due", Urgency: Warn}
}
