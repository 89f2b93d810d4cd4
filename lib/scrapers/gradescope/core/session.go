package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"go.opentelemetry.io/otel/codes"
)

// EnsureSession contacts the portal root for a session cookie unless the
// client already holds a session cookie or a remember token.
func (c *Client) EnsureSession(ctx context.Context) error {
	if c.creds.Session != "" || c.creds.RememberToken != "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "client:EnsureSession")
	defer span.End()

	_, body, err := c.stream(WithLabel(ctx, "Creating Session"), http.MethodGet, "/", nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to contact portal")
		return err
	}
	// only the headers matter
	body.Close()

	if c.creds.Session == "" {
		span.SetStatus(codes.Error, SessionError.Error())
		c.Events.Fatal(SessionError)
		return SessionError
	}
	c.Events.Success("Session Created")
	return nil
}

var csrfRegex = regexp.MustCompile(`input type="hidden" name="authenticity_token" value="([0-9a-zA-Z/+=_-]*)"`)

// bytes of the previous window carried into the next read, longer than any
// complete marker so a marker cut by a read boundary is still found
const csrfScanOverlap = 512

const csrfScanBufferSize = 4096

// scanCsrfToken reads r until the authenticity token marker shows up. It
// stops reading as soon as the marker is found.
func scanCsrfToken(r io.Reader) (string, error) {
	buffer := make([]byte, csrfScanBufferSize)
	var tail []byte

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			window := make([]byte, 0, len(tail)+n)
			window = append(window, tail...)
			window = append(window, buffer[:n]...)

			groups := csrfRegex.FindSubmatch(window)
			if len(groups) >= 2 {
				return string(groups[1]), nil
			}

			if len(window) > csrfScanOverlap {
				window = window[len(window)-csrfScanOverlap:]
			}
			tail = window
		}
		if errors.Is(err, io.EOF) {
			return "", CsrfNotFound
		}
		if err != nil {
			return "", err
		}
	}
}

// FetchCsrfToken loads the portal root, picks up the session cookie and
// scans the body for the login form's authenticity token. The download is
// cut short once the token is found.
func (c *Client) FetchCsrfToken(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchCsrfToken")
	defer span.End()

	_, body, err := c.stream(WithLabel(ctx, "Fetching Authenticity Token"), http.MethodGet, "/", nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return "", err
	}
	token, err := scanCsrfToken(body)
	body.Close()

	if errors.Is(err, CsrfNotFound) {
		span.SetStatus(codes.Error, CsrfNotFound.Error())
		c.Events.Fatal(CsrfNotFound)
		return "", CsrfNotFound
	}
	if err != nil {
		terr := &TransportError{Method: http.MethodGet, Path: "/", Err: err}
		span.RecordError(terr)
		span.SetStatus(codes.Error, "failed to read login page")
		c.Events.Fatal(terr)
		return "", terr
	}

	c.creds.CsrfToken = token
	c.Events.Success("Authenticity Token Retrieved")
	return token, nil
}

// Login submits the login form. The portal answers an accepted login with a
// redirect, anything else means the credentials were wrong. When
// rememberMe is set the redirect must carry a remember token, which is
// then persisted.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if email == "" || password == "" {
		span.SetStatus(codes.Error, MissingCredentials.Error())
		c.Events.Warn(MissingCredentials.Error())
		return MissingCredentials
	}

	if c.creds.CsrfToken == "" {
		_, err := c.FetchCsrfToken(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch authenticity token")
			return err
		}
	}
	csrfToken := c.creds.CsrfToken
	c.creds.CsrfToken = ""

	remember := "0"
	if rememberMe {
		remember = "1"
	}
	form := url.Values{
		"utf8":                     {"✓"},
		"authenticity_token":       {csrfToken},
		"session[email]":           {email},
		"session[password]":        {password},
		"session[remember_me]":     {remember},
		"commit":                   {"Log In"},
		"session[remember_me_sso]": {"0"},
	}

	res, err := c.Request(WithLabel(ctx, "Logging In"), http.MethodPost, "/login", form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post login form")
		return err
	}

	if !res.IsRedirect() {
		span.SetStatus(codes.Error, InvalidCredentials.Error())
		c.Events.Warn("Invalid email/password combination")
		return InvalidCredentials
	}

	token := findCookie(res.Cookies, RememberCookieName)
	if rememberMe && token == "" {
		span.SetStatus(codes.Error, LoginRejected.Error())
		c.Events.Warn("Failed to log in, the portal did not remember this session")
		return LoginRejected
	}

	if token != "" {
		c.creds.RememberToken = token
	}
	c.authenticated = true
	c.remembered = rememberMe

	if rememberMe && c.tokens != nil {
		err := c.tokens.Save(token)
		if err != nil {
			span.RecordError(err)
			c.Events.Warn(fmt.Sprintf("Failed to save remember token: %s", err.Error()))
		} else {
			c.Events.Success("Token Saved")
		}
	}

	c.Events.Success("Logged In")
	return nil
}

type LogoutResult int

const (
	LogoutSkipped LogoutResult = iota
	LoggedOut
)

func (r LogoutResult) String() string {
	if r == LoggedOut {
		return "logged out"
	}
	return "skipped"
}

// Logout ends the portal session. A remembered session is left alone unless
// force is set, so an incidental logout doesn't burn the remember token.
// On success the persisted token is deleted and the client returns to
// Anonymous. A non redirect answer is reported as LogoutFailed, which
// callers should treat as a warning.
func (c *Client) Logout(ctx context.Context, force bool) (LogoutResult, error) {
	if c.loggingOut || (c.Remembered() && !force) {
		return LogoutSkipped, nil
	}

	ctx, span := tracer.Start(ctx, "client:Logout")
	defer span.End()

	c.loggingOut = true
	defer func() { c.loggingOut = false }()

	res, err := c.Request(WithLabel(ctx, "Logging Out"), http.MethodPost, "/logout", nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post logout")
		return LogoutSkipped, err
	}

	if !res.IsRedirect() {
		err := fmt.Errorf("%w: status %s", LogoutFailed, res.Status)
		span.SetStatus(codes.Error, err.Error())
		c.Events.Warn(fmt.Sprintf("Failed to log out: status %s", res.Status))
		return LogoutSkipped, err
	}

	if c.tokens != nil {
		err := c.tokens.Delete()
		if err != nil {
			span.RecordError(err)
			c.Events.Warn(fmt.Sprintf("Failed to delete remember token: %s", err.Error()))
		}
	}
	c.creds = Credentials{}
	c.authenticated = false
	c.remembered = false

	c.Events.Success("Logged Out")
	return LoggedOut, nil
}
