package parse

import (
	"fmt"
	"math"
	"time"
)

type timeUnit struct {
	name string
	size time.Duration
	// the unit is used while the magnitude is below this
	below time.Duration
}

var timeUnits = []timeUnit{
	{name: "minute", size: time.Minute, below: time.Hour},
	{name: "hour", size: time.Hour, below: day},
	{name: "day", size: day, below: 7 * day},
	{name: "week", size: 7 * day, below: 30 * day},
	{name: "month", size: 30 * day, below: 365 * day},
	{name: "year", size: 365 * day},
}

func magnitudeString(abs time.Duration) string {
	if abs < time.Minute {
		return "less than a minute"
	}
	for _, unit := range timeUnits {
		if unit.below != 0 && abs >= unit.below {
			continue
		}
		n := int64(math.Round(float64(abs) / float64(unit.size)))
		if n > 1 {
			return fmt.Sprintf("%d %ss", n, unit.name)
		}
		return fmt.Sprintf("%d %s", n, unit.name)
	}
	return ""
}

// TimeString renders t relative to now, "3 days ago" or "in 2 hours".
func TimeString(now, t time.Time) string {
	delta := now.Sub(t)
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	text := magnitudeString(abs)
	if delta <= 0 {
		return "in " + text
	}
	return text + " ago"
}
