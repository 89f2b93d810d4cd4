package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"gradescope-cli/lib/telemetry"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

const (
	PortalSession       = "session-abc123"
	PortalRememberToken = "remember-xyz789"
	PortalCsrfToken     = "Hq3+/abc=="
	PortalEmail         = "student@example.edu"
	PortalPassword      = "hunter2"
)

type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Form   url.Values
}

// Portal is an in-process stand-in for the grading portal. It hands out
// session cookies, serves a login form with an authenticity token, accepts
// PortalEmail/PortalPassword and serves Pages for every other path.
type Portal struct {
	Server *httptest.Server

	// path -> html, served with 200
	Pages map[string]string
	// path -> status, overrides Pages
	Statuses map[string]int

	// content encoding applied to every html response: "", "gzip" or "br"
	Encoding string
	// bytes of filler in front of the login form
	LoginPadding int

	NoSession      bool
	NoCsrf         bool
	RejectRemember bool
	LogoutStatus   int

	mu       sync.Mutex
	requests []RecordedRequest
}

func NewPortal(t testing.TB) *Portal {
	cleanup := telemetry.SetupForTesting(t, "test:gradescope")
	t.Cleanup(cleanup)

	p := &Portal{
		Pages:    map[string]string{},
		Statuses: map[string]int{},
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Portal) URL() string {
	return p.Server.URL
}

func (p *Portal) Requests() []RecordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RecordedRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Paths lists "METHOD /path" for every request served so far.
func (p *Portal) Paths() []string {
	var out []string
	for _, r := range p.Requests() {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func (p *Portal) LoginPage() string {
	var b strings.Builder
	b.WriteString("<html><head><title>Log In | Gradescope</title></head><body>")
	b.WriteString(strings.Repeat("<!-- filler -->", p.LoginPadding/15+1))
	b.WriteString(`<form class="loginForm" action="/login" method="post">`)
	b.WriteString(`<input name="utf8" type="hidden" value="&#x2713;" />`)
	if !p.NoCsrf {
		fmt.Fprintf(&b, `<input type="hidden" name="authenticity_token" value="%s" />`, PortalCsrfToken)
	}
	b.WriteString(`<input type="email" name="session[email]" /></form></body></html>`)
	return b.String()
}

func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	p.mu.Lock()
	p.requests = append(p.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Form:   r.PostForm,
	})
	p.mu.Unlock()

	if !p.NoSession {
		http.SetCookie(w, &http.Cookie{Name: "_gradescope_session", Value: PortalSession, Path: "/"})
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/login":
		p.login(w, r)
		return
	case r.Method == http.MethodPost && r.URL.Path == "/logout":
		status := p.LogoutStatus
		if status == 0 {
			status = http.StatusFound
		}
		if status >= 300 && status < 400 {
			w.Header().Set("Location", "/")
		}
		w.WriteHeader(status)
		return
	}

	if status, ok := p.Statuses[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}
	if r.URL.Path == "/" {
		p.writeHtml(w, p.LoginPage())
		return
	}
	page, ok := p.Pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	p.writeHtml(w, page)
}

func (p *Portal) login(w http.ResponseWriter, r *http.Request) {
	valid := r.PostForm.Get("authenticity_token") == PortalCsrfToken &&
		r.PostForm.Get("session[email]") == PortalEmail &&
		r.PostForm.Get("session[password]") == PortalPassword
	if !valid {
		p.writeHtml(w, p.LoginPage())
		return
	}
	if r.PostForm.Get("session[remember_me]") == "1" && !p.RejectRemember {
		http.SetCookie(w, &http.Cookie{Name: "signed_token", Value: PortalRememberToken, Path: "/"})
	}
	w.Header().Set("Location", "/account")
	w.WriteHeader(http.StatusFound)
}

func (p *Portal) writeHtml(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var body bytes.Buffer
	switch p.Encoding {
	case "gzip":
		writer := gzip.NewWriter(&body)
		writer.Write([]byte(page))
		writer.Close()
	case "br":
		writer := brotli.NewWriter(&body)
		writer.Write([]byte(page))
		writer.Close()
	default:
		body.WriteString(page)
	}
	if p.Encoding != "" {
		w.Header().Set("Content-Encoding", p.Encoding)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body.Bytes())
}
