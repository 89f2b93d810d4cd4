package view

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"gradescope-cli/lib/htmlutil"
	"gradescope-cli/lib/scrapers/gradescope/core"
	"gradescope-cli/lib/textutil"
	"gradescope-cli/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("gradescope-cli/scrapers/gradescope/view")

const AccountPath = "/account"

var (
	InvalidTarget = errors.New("course or assignment has no page to fetch")
	EmptyPage     = errors.New("portal returned an empty page")
)

// StatusError means the portal answered, but not with the page.
type StatusError struct {
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %s", e.Path, e.Status)
}

// Client is the scraping facade, it turns portal pages into courses,
// assignments and test results. Like core.Client it must not be used by
// more than one operation at a time.
type Client struct {
	Core *core.Client

	parse    htmlutil.Parser
	cache    *Cache
	location *time.Location
	now      func() time.Time

	courses []*Course
}

type ClientOptions struct {
	// defaults to htmlutil.ParseGoquery
	Parser htmlutil.Parser
	// optional
	Cache *Cache
	// defaults to timezone.Location and timezone.Now
	Location *time.Location
	Now      func() time.Time
}

// NewClient wraps coreClient, previously cached courses are available
// right away through Cached.
func NewClient(coreClient *core.Client, opts ClientOptions) *Client {
	if opts.Parser == nil {
		opts.Parser = htmlutil.ParseGoquery
	}
	if opts.Location == nil {
		opts.Location = timezone.Location
	}
	if opts.Now == nil {
		opts.Now = timezone.Now
	}

	c := &Client{
		Core:     coreClient,
		parse:    opts.Parser,
		cache:    opts.Cache,
		location: opts.Location,
		now:      opts.Now,
	}

	courses, err := opts.Cache.Load()
	if err == nil {
		c.courses = courses
	} else if !errors.Is(err, os.ErrNotExist) {
		c.Core.Events.Warn(fmt.Sprintf("Failed to load cache: %s", err.Error()))
	}
	return c
}

func (c *Client) Subscribe(o core.Observer) {
	c.Core.Subscribe(o)
}

func (c *Client) NeedsLogin() bool {
	return c.Core.NeedsLogin()
}

func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) error {
	return c.Core.Login(ctx, email, password, rememberMe)
}

// Logout ends the session, clearing the course cache when it actually
// logged out.
func (c *Client) Logout(ctx context.Context, force bool) (core.LogoutResult, error) {
	result, err := c.Core.Logout(ctx, force)
	if err != nil || result != core.LoggedOut {
		return result, err
	}

	c.courses = nil
	err = c.cache.Clear()
	if err != nil {
		c.Core.Events.Warn(fmt.Sprintf("Failed to clear cache: %s", err.Error()))
	}
	return result, nil
}

func (c *Client) fetchPage(ctx context.Context, label, path string) (htmlutil.Document, []byte, error) {
	res, err := c.Core.Request(core.WithLabel(ctx, label), http.MethodGet, path, nil)
	if err != nil {
		return nil, nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, nil, &StatusError{Path: path, StatusCode: res.StatusCode, Status: res.Status}
	}
	if len(res.Body) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", EmptyPage, path)
	}
	doc, err := c.parse(res.Body)
	if err != nil {
		return nil, nil, err
	}
	return doc, res.Body, nil
}

func (c *Client) persist() {
	err := c.cache.Save(c.courses, c.now())
	if err != nil {
		c.Core.Events.Warn(fmt.Sprintf("Failed to save cache: %s", err.Error()))
	}
}

// Cached returns the courses currently held without any network I/O.
func (c *Client) Cached() []*Course {
	return c.courses
}

// Courses fetches the course list of the account page. The list is
// memoised, force refetches it. Refetched courses are updated in place so
// references held by the caller stay valid.
func (c *Client) Courses(ctx context.Context, force bool) ([]*Course, error) {
	if !force && len(c.courses) > 0 {
		return c.courses, nil
	}

	ctx, span := tracer.Start(ctx, "client:Courses")
	defer span.End()

	doc, body, err := c.fetchPage(ctx, "Fetching Courses", AccountPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch courses")
		if !isTransportLevel(err) {
			c.Core.Events.Fatal(fmt.Errorf("failed to fetch courses: %w", err))
		}
		return nil, err
	}

	now := c.now()
	fetched := ExtractCourses(doc)
	previous := make(map[string]*Course, len(c.courses))
	for _, course := range c.courses {
		previous[course.Path] = course
	}

	courses := make([]*Course, 0, len(fetched))
	for _, course := range fetched {
		course.LastUpdate = &now
		existing, ok := previous[course.Path]
		if ok && course.Path != "" {
			existing.Term = course.Term
			existing.Name = course.Name
			existing.FullName = course.FullName
			existing.AssignmentCount = course.AssignmentCount
			existing.LastUpdate = course.LastUpdate
			course = existing
		}
		courses = append(courses, course)
	}
	c.courses = courses
	span.SetAttributes(attribute.Int("courses", len(courses)))

	info, ok, err := ExtractUserInfo(body)
	if err != nil {
		span.RecordError(err)
		c.Core.Events.Warn(err.Error())
	} else if ok {
		c.Core.Events.Success(fmt.Sprintf("Welcome Back, %s", info.LastName()))
	}

	c.persist()
	return courses, nil
}

// Assignments fetches the assignment table of course, replacing its
// previous assignments.
func (c *Client) Assignments(ctx context.Context, course *Course) ([]*Assignment, error) {
	if course == nil || course.Path == "" {
		return nil, InvalidTarget
	}

	ctx, span := tracer.Start(ctx, "client:Assignments")
	defer span.End()
	span.SetAttributes(attribute.String("course", course.Name))

	doc, _, err := c.fetchPage(ctx, fmt.Sprintf("Fetching %s", course.Name), course.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch course")
		if !isTransportLevel(err) {
			c.Core.Events.Warn(fmt.Sprintf("Failed to fetch course %s: %s", course.Name, err.Error()))
		}
		return nil, err
	}

	now := c.now()
	assignments := ExtractAssignments(doc, AssignmentsOptions{
		CourseName: course.Name,
		Year:       course.Year(now),
		Location:   c.location,
		Warn:       c.Core.Events.Warn,
	})
	for _, a := range assignments {
		a.LastUpdate = &now
	}
	course.Assignments = assignments
	course.LastUpdate = &now
	span.SetAttributes(attribute.Int("assignments", len(assignments)))

	c.persist()
	return assignments, nil
}

// Results fetches the autograder results of assignment and stores them on
// it.
func (c *Client) Results(ctx context.Context, assignment *Assignment) (TestResults, error) {
	if assignment == nil || assignment.Path == "" {
		return TestResults{}, InvalidTarget
	}

	ctx, span := tracer.Start(ctx, "client:Results")
	defer span.End()
	span.SetAttributes(attribute.String("assignment", assignment.Name))

	label := fmt.Sprintf("Fetching %s %s", assignment.CourseName, assignment.Name)
	doc, _, err := c.fetchPage(ctx, label, assignment.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch assignment")
		if !isTransportLevel(err) {
			c.Core.Events.Warn(fmt.Sprintf("Failed to fetch assignment %s: %s", assignment.Name, err.Error()))
		}
		return TestResults{}, err
	}

	now := c.now()
	results := ExtractTestResults(doc)
	assignment.Passed = results.Passed
	assignment.Failed = results.Failed
	assignment.LastUpdate = &now

	c.persist()
	return results, nil
}

// Terms lists the distinct term labels in the order they were fetched.
func (c *Client) Terms() []string {
	var terms []string
	seen := map[string]bool{}
	for _, course := range c.courses {
		if seen[course.Term] {
			continue
		}
		seen[course.Term] = true
		terms = append(terms, course.Term)
	}
	return terms
}

func (c *Client) TermCourses(term string) []*Course {
	var courses []*Course
	for _, course := range c.courses {
		if course.Term == term {
			courses = append(courses, course)
		}
	}
	return courses
}

// FindCourse looks a course up by a loosely typed short or full name.
func (c *Client) FindCourse(query string) *Course {
	names := make([]string, len(c.courses))
	for i, course := range c.courses {
		names[i] = course.Name
	}
	idx := textutil.BestMatch(query, names)
	if idx >= 0 {
		return c.courses[idx]
	}
	for i, course := range c.courses {
		names[i] = course.FullName
	}
	idx = textutil.BestMatch(query, names)
	if idx >= 0 {
		return c.courses[idx]
	}
	return nil
}

// FindAssignment looks an already fetched assignment of course up by name.
func FindAssignment(course *Course, query string) *Assignment {
	if course == nil {
		return nil
	}
	names := make([]string, len(course.Assignments))
	for i, a := range course.Assignments {
		names[i] = a.Name
	}
	idx := textutil.BestMatch(query, names)
	if idx < 0 {
		return nil
	}
	return course.Assignments[idx]
}

// core already reported these as fatal
func isTransportLevel(err error) bool {
	var terr *core.TransportError
	return errors.As(err, &terr) ||
		errors.Is(err, core.SessionError)
}
