package view

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"gradescope-cli/lib/htmlutil"
	"gradescope-cli/lib/scrapers/gradescope/parse"

	_ "embed"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/account.html
var accountPage []byte

//go:embed testdata/course.html
var coursePage []byte

//go:embed testdata/results.html
var resultsPage []byte

func parseDoc(t testing.TB, body []byte) htmlutil.Document {
	t.Helper()
	doc, err := htmlutil.ParseGoquery(body)
	require.NoError(t, err)
	return doc
}

func date(year int, month time.Month, day, hour, minute int) *time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return &t
}

var expectedCourses = []*Course{
	{
		Term:            "Fall 2023",
		Name:            "CS 61A",
		FullName:        "Structure and Interpretation of Computer Programs",
		Path:            "/courses/101",
		AssignmentCount: 12,
	},
	{
		Term:            "Fall 2023",
		Name:            "MATH 54",
		FullName:        "Linear Algebra and Differential Equations",
		Path:            "/courses/102",
		AssignmentCount: 0,
	},
	{
		Term:            "Summer Session",
		Name:            "CS 70",
		FullName:        "Discrete Mathematics and Probability Theory",
		Path:            "/courses/201",
		AssignmentCount: 1,
	},
}

func expectedAssignments() []*Assignment {
	return []*Assignment{
		{
			CourseName: "CS 61A",
			Name:       "Lab 0",
			Path:       "/courses/101/assignments/4/submissions/14",
			Score:      parse.Score{Actual: 1, Full: 1, Fraction: true, Display: "1/1"},
			Status:     "Late",
			Release:    date(2023, time.August, 24, 0, 0),
			// 12AM is read as noon
			Due: date(2023, time.December, 5, 12, 0),
		},
		{
			CourseName: "CS 61A",
			Name:       "Project 1: Hog",
			Path:       "/courses/101/assignments/2/submissions/12",
			Score:      parse.Score{Display: "Submitted"},
			Status:     "Submitted",
			Release:    date(2023, time.September, 5, 0, 0),
			Due:        date(2023, time.October, 1, 17, 0),
		},
		{
			CourseName: "CS 61A",
			Name:       "Homework 1",
			Path:       "/courses/101/assignments/1/submissions/11",
			Score:      parse.Score{Actual: 8, Full: 10, Fraction: true, Display: "8/10"},
			Status:     "",
			Release:    date(2023, time.September, 1, 0, 0),
			Due:        date(2023, time.September, 8, 23, 59),
			LateDue:    date(2023, time.September, 10, 23, 59),
		},
		{
			CourseName: "CS 61A",
			Name:       "Quiz 2",
			Score:      parse.Score{Display: "No Submission"},
			Status:     "No Submission",
		},
		{
			CourseName: "CS 61A",
			Name:       "Survey",
			Path:       "/courses/101/assignments/5/submissions/15",
			Score:      parse.Score{Display: "Missing"},
			Status:     "Missing",
		},
	}
}

func TestExtractCourses(t *testing.T) {
	doc := parseDoc(t, accountPage)
	courses := ExtractCourses(doc)
	if diff := cmp.Diff(expectedCourses, courses); diff != "" {
		t.Fatal(diff)
	}

	// idempotent on the same page
	again := ExtractCourses(parseDoc(t, accountPage))
	if diff := cmp.Diff(courses, again); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractUserInfo(t *testing.T) {
	info, ok, err := ExtractUserInfo(accountPage)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, UserInfo{Name: "Ada King Lovelace", Email: "ada@example.edu"}, info)
	require.Equal(t, "Lovelace", info.LastName())

	_, ok, err = ExtractUserInfo(coursePage)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExtractAssignments(t *testing.T) {
	var warnings []string
	opts := AssignmentsOptions{
		CourseName: "CS 61A",
		Year:       2023,
		Location:   time.UTC,
		Warn:       func(message string) { warnings = append(warnings, message) },
	}

	assignments := ExtractAssignments(parseDoc(t, coursePage), opts)
	if diff := cmp.Diff(expectedAssignments(), assignments); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, []string{
		"Failed to parse release date: XYZ 01",
		"Failed to parse due date: FOO 10 AT 10:00AM",
	}, warnings)

	warnings = nil
	again := ExtractAssignments(parseDoc(t, coursePage), opts)
	if diff := cmp.Diff(assignments, again); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractAssignmentsMalformedDue(t *testing.T) {
	page := `<table><tbody>
<tr><th><a href="/a/1">One</a></th><td>Submitted</td><td>
	<span class="submissionTimeChart--releaseDate">JAN 02</span>
	<span class="submissionTimeChart--dueDate">JAN 9 AT 5PM</span>
</td></tr>
<tr><th><a href="/a/2">Two</a></th><td>Submitted</td><td>
	<span class="submissionTimeChart--dueDate">JAN 09 AT 5:00PM</span>
</td></tr>
<tr><th><a href="/a/3">Three</a></th></tr>
</tbody></table>`

	assignments := ExtractAssignments(parseDoc(t, []byte(page)), AssignmentsOptions{Year: 2024, Location: time.UTC})
	require.Len(t, assignments, 3)
	require.Equal(t, "Two", assignments[0].Name)
	require.Equal(t, date(2024, time.January, 9, 17, 0), assignments[0].Due)

	require.Equal(t, "One", assignments[1].Name)
	require.Nil(t, assignments[1].Due)
	require.Equal(t, date(2024, time.January, 2, 0, 0), assignments[1].Release)

	require.Equal(t, "Three", assignments[2].Name)
	require.Nil(t, assignments[2].Due)
	require.Equal(t, "", assignments[2].Status)
}

func TestExtractAssignmentsLateDueBeforeDue(t *testing.T) {
	page := `<table><tbody>
<tr><th><a href="/a/1">One</a></th><td></td><td>
	<span class="submissionTimeChart--dueDate">MAR 09 AT 5:00PM</span>
	<span class="submissionTimeChart--dueDate">MAR 08 AT 5:00PM</span>
</td></tr>
</tbody></table>`

	var warnings []string
	assignments := ExtractAssignments(parseDoc(t, []byte(page)), AssignmentsOptions{
		Year:     2024,
		Location: time.UTC,
		Warn:     func(message string) { warnings = append(warnings, message) },
	})
	require.Len(t, assignments, 1)
	require.NotNil(t, assignments[0].Due)
	require.Nil(t, assignments[0].LateDue)
	require.Len(t, warnings, 1)
}

func TestSortByDue(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	var assignments []*Assignment
	for i := 0; i < 20; i++ {
		a := &Assignment{Name: strings.Repeat("x", i)}
		if i%3 != 0 {
			due := base.Add(time.Duration(i) * time.Hour)
			a.Due = &due
		}
		assignments = append(assignments, a)
	}

	r := rand.New(rand.NewSource(1))
	for round := 0; round < 10; round++ {
		r.Shuffle(len(assignments), func(i, j int) {
			assignments[i], assignments[j] = assignments[j], assignments[i]
		})
		SortByDue(assignments)

		seenUndated := false
		for i, a := range assignments {
			if a.Due == nil {
				seenUndated = true
				continue
			}
			require.False(t, seenUndated, "dated assignment after an undated one")
			if i > 0 {
				require.False(t, a.Due.After(*assignments[i-1].Due))
			}
		}
	}
}

func TestExtractTestResults(t *testing.T) {
	results := ExtractTestResults(parseDoc(t, resultsPage))
	require.Equal(t, []string{"1) Test add (1.0/1.0)", "3) Test mul (1.0/1.0)"}, results.Passed)
	require.Equal(t, []string{"2) Test sub (0.0/1.0)", "5) Test div (0.0/2.0)"}, results.Failed)

	empty := ExtractTestResults(parseDoc(t, accountPage))
	require.Empty(t, empty.Passed)
	require.Empty(t, empty.Failed)
}

func TestLeadingInt(t *testing.T) {
	require.Equal(t, 12, leadingInt("12 assignments"))
	require.Equal(t, 0, leadingInt("No assignments"))
	require.Equal(t, 0, leadingInt(""))
	require.Equal(t, 3, leadingInt("  3\n assignments"))
}
