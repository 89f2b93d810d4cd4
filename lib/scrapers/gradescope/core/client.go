package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"gradescope-cli/lib/restyutil"
	"gradescope-cli/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	DefaultBaseUrl = "https://www.gradescope.com"

	SessionCookieName  = "_gradescope_session"
	RememberCookieName = "signed_token"

	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/75.0.3770.100 Safari/537.36"
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// TokenStore persists the remember token between runs. Load returns
// os.ErrNotExist when nothing is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

type State int

const (
	Anonymous State = iota
	SessionEstablished
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case SessionEstablished:
		return "session-established"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

type Credentials struct {
	Session       string
	RememberToken string
	CsrfToken     string
}

// Client owns the credential state of one portal session. It is meant to
// be driven by one operation at a time.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	Events  *Emitter

	creds         Credentials
	authenticated bool
	// set when the remember token came from the store or a login that
	// asked to be remembered
	remembered bool
	loggingOut bool
	tokens     TokenStore
}

type ClientOptions struct {
	BaseUrl string
	// optional, without it remember tokens only live in memory
	Tokens TokenStore
	// wraps the transport with cloudflare-bp-go
	CloudflareBypass bool
	// optional, dumps every exchange
	HttpDump restyutil.InstrumentOutput
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(opts.BaseUrl, "/"))
	// cookies are managed by hand through the Cookie header
	client.SetCookieJar(nil)
	// a redirect is the answer itself for login and logout
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	telemetry.InstrumentResty(client, "gradescope-cli/scrapers/gradescope/http")
	restyutil.InstrumentClient(client, opts.HttpDump)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
		Events:  &Emitter{},
		tokens:  opts.Tokens,
	}

	if opts.Tokens != nil {
		token, err := opts.Tokens.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load remember token: %w", err)
		}
		if token != "" {
			c.creds.RememberToken = token
			c.remembered = true
		}
	}

	return c, nil
}

func (c *Client) Subscribe(o Observer) {
	c.Events.Subscribe(o)
}

func (c *Client) State() State {
	if c.authenticated || c.creds.RememberToken != "" {
		return Authenticated
	}
	if c.creds.Session != "" {
		return SessionEstablished
	}
	return Anonymous
}

func (c *Client) NeedsLogin() bool {
	return c.State() != Authenticated
}

// Remembered reports whether a remember token is guarding this session.
func (c *Client) Remembered() bool {
	return c.remembered && c.creds.RememberToken != ""
}

func (c *Client) Credentials() Credentials {
	return c.creds
}

func (c *Client) cookieHeader() string {
	var parts []string
	if c.creds.Session != "" {
		parts = append(parts, SessionCookieName+"="+c.creds.Session)
	}
	if c.creds.RememberToken != "" {
		parts = append(parts, RememberCookieName+"="+c.creds.RememberToken)
	}
	return strings.Join(parts, "; ")
}

func (c *Client) headers() map[string]string {
	headers := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3",
		"Accept-Encoding":           "gzip, deflate, br",
		"Accept-Language":           "en",
		"Cache-Control":             "max-age=0",
		"Connection":                "keep-alive",
		"Host":                      c.BaseUrl.Host,
		"Upgrade-Insecure-Requests": "1",
		"User-Agent":                UserAgent,
	}
	if cookie := c.cookieHeader(); cookie != "" {
		headers["Cookie"] = cookie
	}
	return headers
}

// Headers computes the request headers, establishing a session first when
// the client has neither a session cookie nor a remember token.
func (c *Client) Headers(ctx context.Context) (map[string]string, error) {
	err := c.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}
	return c.headers(), nil
}

func findCookie(cookies []*http.Cookie, name string) string {
	for _, cookie := range cookies {
		if cookie.Name == name && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// captureSession keeps the session cookie up to date with whatever the
// portal last handed out.
func (c *Client) captureSession(res *http.Response) bool {
	if res == nil {
		return false
	}
	session := findCookie(res.Cookies(), SessionCookieName)
	if session == "" {
		return false
	}
	c.creds.Session = session
	return true
}

type labelKey struct{}

// WithLabel attaches the message used for the request-started event of
// requests made with ctx.
func WithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey{}, label)
}

func labelFrom(ctx context.Context, method, path string) string {
	label, ok := ctx.Value(labelKey{}).(string)
	if ok && label != "" {
		return label
	}
	return method + " " + path
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error {
	return r.close()
}

func decodeBody(encoding string, body io.ReadCloser) (io.ReadCloser, error) {
	var decoded io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(body)
		if errors.Is(err, io.EOF) {
			return readCloser{Reader: strings.NewReader(""), close: body.Close}, nil
		}
		if err != nil {
			return nil, err
		}
		decoded = reader
	case "deflate":
		reader, err := zlib.NewReader(body)
		if errors.Is(err, io.EOF) {
			return readCloser{Reader: strings.NewReader(""), close: body.Close}, nil
		}
		if err != nil {
			return nil, err
		}
		decoded = reader
	case "br":
		decoded = brotli.NewReader(body)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	return readCloser{Reader: decoded, close: body.Close}, nil
}

// Response is a fully read portal response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Cookies    []*http.Cookie
	Body       []byte
}

func (r Response) IsRedirect() bool {
	return isRedirect(r.StatusCode)
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	}
	return false
}

// stream performs a request and hands back the decoded body. Closing the
// body before the end aborts the download, which isn't an error. The
// request-finished event fires on close.
func (c *Client) stream(ctx context.Context, method, path string, form url.Values) (*http.Response, io.ReadCloser, error) {
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	if !supportedMethods[method] {
		return nil, nil, fmt.Errorf("%w: %s", UnsupportedMethod, method)
	}
	if path == "" {
		path = "/"
	}

	c.Events.RequestStarted(labelFrom(ctx, method, path))

	req := c.Http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeaders(c.headers())
	if form != nil {
		req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
		req.SetBody(form.Encode())
	}

	res, err := req.Execute(method, path)
	if err != nil {
		c.Events.RequestFinished()
		terr := &TransportError{Method: method, Path: path, Err: err}
		c.Events.Fatal(terr)
		return nil, nil, terr
	}

	raw := res.RawResponse
	c.captureSession(raw)

	body, err := decodeBody(raw.Header.Get("Content-Encoding"), res.RawBody())
	if err != nil {
		res.RawBody().Close()
		c.Events.RequestFinished()
		terr := &TransportError{Method: method, Path: path, Err: err}
		c.Events.Fatal(terr)
		return nil, nil, terr
	}

	closed := false
	return raw, readCloser{
		Reader: body,
		close: func() error {
			if closed {
				return nil
			}
			closed = true
			c.Events.RequestFinished()
			return body.Close()
		},
	}, nil
}

// Request is the transport primitive every page fetch goes through. It
// makes sure there are credentials to send, url-encodes form when given,
// decodes compressed bodies and keeps the session cookie current.
func (c *Client) Request(ctx context.Context, method, path string, form url.Values) (Response, error) {
	ctx, span := tracer.Start(ctx, "client:Request")
	defer span.End()

	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	if !supportedMethods[method] {
		return Response{}, fmt.Errorf("%w: %s", UnsupportedMethod, method)
	}

	err := c.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		return Response{}, err
	}

	raw, body, err := c.stream(ctx, method, path, form)
	if err != nil {
		span.RecordError(err)
		return Response{}, err
	}
	defer body.Close()

	contents, err := io.ReadAll(body)
	if err != nil {
		terr := &TransportError{Method: method, Path: path, Err: err}
		span.RecordError(terr)
		c.Events.Fatal(terr)
		return Response{}, terr
	}

	return Response{
		StatusCode: raw.StatusCode,
		Status:     raw.Status,
		Header:     raw.Header,
		Cookies:    raw.Cookies(),
		Body:       contents,
	}, nil
}
