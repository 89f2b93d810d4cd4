package commands

import (
	"os"
	"time"

	"gradescope-cli/lib/scrapers/gradescope/parse"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var urgencyColors = map[parse.Urgency]text.Colors{
	parse.Normal: {text.FgGreen},
	parse.Warn:   {text.FgYellow},
	parse.Urgent: {text.FgHiYellow, text.Bold},
	parse.Danger: {text.FgRed, text.Bold},
	parse.Dead:   {text.FgHiRed, text.Bold, text.BlinkSlow},
}

func colorDue(status parse.DueStatus) string {
	colors, ok := urgencyColors[status.Urgency]
	if !ok {
		return status.Message
	}
	return colors.Sprint(status.Message)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("Jan 02 03:04PM")
}

func formatUpdated(now time.Time, t *time.Time) string {
	if t == nil {
		return "never"
	}
	return parse.TimeString(now, *t)
}
