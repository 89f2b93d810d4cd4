package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"gradescope-cli/lib/scrapers/gradescope/view"
	"gradescope-cli/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	refresh     bool
	coursesTerm string
)

func init() {
	for _, cmd := range []*cobra.Command{coursesCmd, assignmentsCmd, resultsCmd, termsCmd} {
		cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch instead of using cached data.")
	}
	coursesCmd.Flags().StringVar(&coursesTerm, "term", "", "Only list courses of this term.")
	rootCmd.AddCommand(coursesCmd, assignmentsCmd, resultsCmd, termsCmd)
}

// courses returns the cached course list when allowed, fetching it
// otherwise.
func courses(cmd *cobra.Command) ([]*view.Course, error) {
	if !refresh && len(client.Cached()) > 0 {
		if client.NeedsLogin() {
			slog.Warn("showing cached courses, log in to refresh them")
		}
		return client.Cached(), nil
	}
	err := requireLogin()
	if err != nil {
		return nil, err
	}
	return client.Courses(cmd.Context(), true)
}

func findCourse(cmd *cobra.Command, query string) (*view.Course, error) {
	_, err := courses(cmd)
	if err != nil {
		return nil, err
	}
	course := client.FindCourse(query)
	if course == nil {
		return nil, fmt.Errorf("no course matches %q", query)
	}
	return course, nil
}

func assignments(cmd *cobra.Command, course *view.Course) ([]*view.Assignment, error) {
	if !refresh && course.Assignments != nil {
		return course.Assignments, nil
	}
	err := requireLogin()
	if err != nil {
		return nil, err
	}
	return client.Assignments(cmd.Context(), course)
}

var termsCmd = &cobra.Command{
	Use:   "terms [--refresh]",
	Short: "Lists the terms of your courses.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := courses(cmd)
		if err != nil {
			return err
		}
		t := newTable()
		t.AppendHeader(table.Row{"Term"})
		for _, term := range client.Terms() {
			t.AppendRow(table.Row{term})
		}
		t.Render()
		return nil
	},
}

var coursesCmd = &cobra.Command{
	Use:   "courses [--term <term>] [--refresh]",
	Short: "Lists your courses.",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := courses(cmd)
		if err != nil {
			return err
		}
		if coursesTerm != "" {
			list = client.TermCourses(coursesTerm)
		}

		now := timezone.Now()
		t := newTable()
		t.AppendHeader(table.Row{"Term", "Course", "Name", "Assignments", "Updated"})
		for _, course := range list {
			t.AppendRow(table.Row{
				course.Term,
				course.Name,
				course.FullName,
				course.AssignmentCount,
				formatUpdated(now, course.LastUpdate),
			})
		}
		t.Render()
		return nil
	},
}

var assignmentsCmd = &cobra.Command{
	Use:   "assignments <course> [--refresh]",
	Short: "Lists the assignments of a course, latest due first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, err := findCourse(cmd, args[0])
		if err != nil {
			return err
		}
		list, err := assignments(cmd, course)
		if err != nil {
			return err
		}

		now := timezone.Now()
		t := newTable()
		t.SetTitle(fmt.Sprintf("%s (%s)", course.Name, course.Term))
		t.AppendHeader(table.Row{"Assignment", "Score", "Due", "Due Date", "Released"})
		for _, a := range list {
			t.AppendRow(table.Row{
				a.Name,
				a.Display(),
				colorDue(a.DueStatus(now)),
				formatDate(a.Due),
				formatDate(a.Release),
			})
		}
		t.Render()
		return nil
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results <course> <assignment> [--refresh]",
	Short: "Shows the autograder results of an assignment.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, err := findCourse(cmd, args[0])
		if err != nil {
			return err
		}
		_, err = assignments(cmd, course)
		if err != nil {
			return err
		}
		assignment := view.FindAssignment(course, args[1])
		if assignment == nil {
			return fmt.Errorf("no assignment of %s matches %q", course.Name, args[1])
		}

		if refresh || (assignment.Passed == nil && assignment.Failed == nil) {
			err := requireLogin()
			if err != nil {
				return err
			}
			_, err = client.Results(cmd.Context(), assignment)
			if err != nil {
				return err
			}
		}

		t := newTable()
		t.SetTitle(fmt.Sprintf("%s %s: %s", course.Name, assignment.Name, assignment.Display()))
		t.AppendHeader(table.Row{"Test Case"})
		for _, failed := range assignment.Failed {
			t.AppendRow(table.Row{text.FgHiRed.Sprint(strings.TrimSpace(failed))})
		}
		for _, passed := range assignment.Passed {
			t.AppendRow(table.Row{text.FgHiGreen.Sprint(strings.TrimSpace(passed))})
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, WidthMax: 100}})
		t.Render()
		return nil
	},
}
