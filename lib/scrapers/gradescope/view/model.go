package view

import (
	"strings"
	"time"

	"gradescope-cli/lib/scrapers/gradescope/parse"
)

type Course struct {
	Term     string `json:"term"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	// portal relative, the stable key for refetching
	Path            string `json:"path"`
	AssignmentCount int    `json:"assignment_count"`

	Assignments []*Assignment `json:"assignments"`
	LastUpdate  *time.Time    `json:"last_update"`
}

// Year is the calendar year assignment dates of this course fall in.
func (c *Course) Year(now time.Time) int {
	return parse.TermYear(c.Term, now)
}

type Assignment struct {
	CourseName string      `json:"course_name"`
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	Score      parse.Score `json:"score"`
	Status     string      `json:"status"`

	Release *time.Time `json:"release"`
	Due     *time.Time `json:"due"`
	LateDue *time.Time `json:"late_due"`

	// only populated by a detail fetch
	Passed     []string   `json:"passed"`
	Failed     []string   `json:"failed"`
	LastUpdate *time.Time `json:"last_update"`
}

func (a *Assignment) DueStatus(now time.Time) parse.DueStatus {
	return parse.DueString(now, a.Due, a.LateDue)
}

// Display is the score when graded, the status text otherwise.
func (a *Assignment) Display() string {
	if a.Score.Display != "" {
		return a.Score.Display
	}
	return a.Status
}

type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LastName is the last word of the display name.
func (u UserInfo) LastName() string {
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
