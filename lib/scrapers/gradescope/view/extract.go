package view

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gradescope-cli/lib/htmlutil"
	"gradescope-cli/lib/scrapers/gradescope/parse"

	"github.com/titanous/json5"
)

// ExtractCourses walks the term headings of the account page, every
// heading is followed by a block of course links.
func ExtractCourses(doc htmlutil.Document) []*Course {
	var courses []*Course
	for _, heading := range doc.QueryAll(doc.Root(), ".courseList--term") {
		term := htmlutil.CleanText(doc.Text(heading))
		block := doc.Next(heading)
		if block == nil {
			continue
		}
		for _, link := range doc.QueryAll(block, "a") {
			courses = append(courses, &Course{
				Term:            term,
				Name:            firstText(doc, link, ".courseBox--shortname"),
				FullName:        firstText(doc, link, ".courseBox--name"),
				Path:            doc.Attr(link, "href"),
				AssignmentCount: leadingInt(firstText(doc, link, ".courseBox--assignments")),
			})
		}
	}
	return courses
}

func firstText(doc htmlutil.Document, root htmlutil.Node, selector string) string {
	nodes := doc.QueryAll(root, selector)
	if len(nodes) == 0 {
		return ""
	}
	return htmlutil.CleanText(doc.Text(nodes[0]))
}

// leadingInt reads "12 assignments" as 12, anything non numeric is 0.
func leadingInt(text string) int {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return n
}

var userInfoRegex = regexp.MustCompile(`Bugsnag\.user = (\{name: ".+?", email: ".+?"\})`)

// ExtractUserInfo recovers the signed in user from the inline error
// reporter setup. A page without it yields ok == false and no error.
func ExtractUserInfo(body []byte) (info UserInfo, ok bool, err error) {
	groups := userInfoRegex.FindSubmatch(body)
	if len(groups) < 2 {
		return UserInfo{}, false, nil
	}
	err = json5.Unmarshal(groups[1], &info)
	if err != nil {
		return UserInfo{}, false, fmt.Errorf("failed to parse user info: %w", err)
	}
	return info, info.Name != "", nil
}

type AssignmentsOptions struct {
	CourseName string
	// assignment dates omit the year
	Year     int
	Location *time.Location
	// receives recoverable parse failures, may be nil
	Warn func(message string)
}

func (o AssignmentsOptions) warn(message string) {
	if o.Warn != nil {
		o.Warn(message)
	}
}

// ExtractAssignments reads every row of the course page's assignment table.
// Date cells that don't look like dates become nil, a malformed row never
// discards the others. Rows come back latest due first, undated rows last.
func ExtractAssignments(doc htmlutil.Document, opts AssignmentsOptions) []*Assignment {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	var assignments []*Assignment
	for _, row := range doc.QueryAll(doc.Root(), "tbody > tr") {
		cells := doc.Children(row)
		if len(cells) == 0 {
			continue
		}

		assignment := &Assignment{
			CourseName: opts.CourseName,
			Name:       htmlutil.CleanText(doc.Text(cells[0])),
		}
		anchors := doc.QueryAll(cells[0], "a")
		if len(anchors) > 0 {
			assignment.Path = doc.Attr(anchors[0], "href")
		}

		if len(cells) > 1 {
			extractStatus(doc, cells[1], assignment)
		}
		if len(cells) > 2 {
			extractDates(doc, cells[2], assignment, opts)
		}

		assignments = append(assignments, assignment)
	}

	SortByDue(assignments)
	return assignments
}

func extractStatus(doc htmlutil.Document, cell htmlutil.Node, assignment *Assignment) {
	text := doc.Text(cell)
	scoreNodes := doc.QueryAll(cell, ".submissionStatus--score")
	if len(scoreNodes) == 0 {
		assignment.Status = htmlutil.CleanText(text)
		assignment.Score = parse.ParseScore(assignment.Status)
		return
	}

	rawScore := doc.Text(scoreNodes[0])
	assignment.Status = htmlutil.CleanText(strings.Replace(text, rawScore, "", 1))
	assignment.Score = parse.ParseScore(strings.Join(strings.Fields(rawScore), ""))
}

func extractDates(doc htmlutil.Document, cell htmlutil.Node, assignment *Assignment, opts AssignmentsOptions) {
	release := firstText(doc, cell, ".submissionTimeChart--releaseDate")
	if parse.MatchesRelease(release) {
		t, err := parse.ParseRelease(opts.Year, release, opts.Location)
		if err != nil {
			opts.warn(fmt.Sprintf("Failed to parse release date: %s", release))
		} else {
			assignment.Release = &t
		}
	}

	var dues []string
	for _, node := range doc.QueryAll(cell, ".submissionTimeChart--dueDate") {
		dues = append(dues, htmlutil.CleanText(doc.Text(node)))
	}
	if len(dues) > 0 {
		assignment.Due = parseDueCell(dues[0], "due date", opts)
	}
	if len(dues) > 1 {
		assignment.LateDue = parseDueCell(dues[1], "late due date", opts)
	}

	if assignment.Due != nil && assignment.LateDue != nil && assignment.LateDue.Before(*assignment.Due) {
		opts.warn(fmt.Sprintf("Ignoring late due date before due date: %s", dues[1]))
		assignment.LateDue = nil
	}
}

func parseDueCell(text, label string, opts AssignmentsOptions) *time.Time {
	if !parse.MatchesDue(text) {
		return nil
	}
	t, err := parse.ParseDue(opts.Year, text, opts.Location)
	if err != nil {
		opts.warn(fmt.Sprintf("Failed to parse %s: %s", label, text))
		return nil
	}
	return &t
}

// SortByDue orders assignments latest due first, assignments without a due
// date go last and keep their relative order.
func SortByDue(assignments []*Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i].Due, assignments[j].Due
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}

type TestResults struct {
	Passed []string
	Failed []string
}

// ExtractTestResults collects autograder test case descriptions in
// document order.
func ExtractTestResults(doc htmlutil.Document) TestResults {
	results := TestResults{}
	for _, node := range doc.QueryAll(doc.Root(), ".test-case.passed") {
		results.Passed = append(results.Passed, strings.TrimSpace(doc.Text(node)))
	}
	for _, node := range doc.QueryAll(doc.Root(), ".test-case.failed") {
		results.Failed = append(results.Failed, strings.TrimSpace(doc.Text(node)))
	}
	return results
}
