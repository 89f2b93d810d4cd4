package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"gradescope-cli/lib/testutil"
	"gradescope-cli/lib/tokenstore"

	"github.com/andybalholm/brotli"
	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

func TestRequestHeaders(t *testing.T) {
	portal := testutil.NewPortal(t)
	portal.Pages["/account"] = "<html><body>account</body></html>"
	client, _ := newTestClient(t, portal, &tokenstore.Memory{Token: "tok"})

	res, err := client.Request(context.Background(), "get", "/account", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "<html><body>account</body></html>", string(res.Body))

	// the session cookie of the response is kept
	require.Equal(t, testutil.PortalSession, client.Credentials().Session)

	header := portal.Requests()[0].Header
	require.Equal(t, "signed_token=tok", header.Get("Cookie"))
	require.Equal(t, UserAgent, header.Get("User-Agent"))
	require.Equal(t, "gzip, deflate, br", header.Get("Accept-Encoding"))
	require.Equal(t, "en", header.Get("Accept-Language"))
	require.Equal(t, "1", header.Get("Upgrade-Insecure-Requests"))

	_, err = client.Request(context.Background(), "", "/account", nil)
	require.NoError(t, err)
	require.Equal(
		t,
		"_gradescope_session="+testutil.PortalSession+"; signed_token=tok",
		portal.Requests()[1].Header.Get("Cookie"),
	)
}

func TestHeadersEstablishSession(t *testing.T) {
	portal := testutil.NewPortal(t)
	client, _ := newTestClient(t, portal, nil)

	headers, err := client.Headers(context.Background())
	require.NoError(t, err)
	require.Equal(t, "_gradescope_session="+testutil.PortalSession, headers["Cookie"])
	require.Equal(t, []string{"GET /"}, portal.Paths())
}

func TestRequestEstablishesSessionFirst(t *testing.T) {
	portal := testutil.NewPortal(t)
	portal.Pages["/account"] = "ok"
	client, recorder := newTestClient(t, portal, nil)

	_, err := client.Request(WithLabel(context.Background(), "Fetching Courses"), http.MethodGet, "/account", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"GET /", "GET /account"}, portal.Paths())

	if diff := cmp.Diff(
		[]EventKind{RequestStarted, RequestFinished, Succeeded, RequestStarted, RequestFinished},
		recorder.Kinds(),
	); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, []string{"Creating Session", "Fetching Courses"}, recorder.Messages(RequestStarted))
}

func TestRequestDecodesBody(t *testing.T) {
	page := strings.Repeat("<p>compressed page</p>", 200)
	for _, encoding := range []string{"", "gzip", "br"} {
		portal := testutil.NewPortal(t)
		portal.Encoding = encoding
		portal.Pages["/courses/1"] = page
		client, _ := newTestClient(t, portal, &tokenstore.Memory{Token: "tok"})

		res, err := client.Request(context.Background(), http.MethodGet, "/courses/1", nil)
		require.NoError(t, err, encoding)
		require.Equal(t, page, string(res.Body), encoding)
	}
}

func TestDecodeBody(t *testing.T) {
	var gz bytes.Buffer
	gzw := gzip.NewWriter(&gz)
	gzw.Write([]byte("hello"))
	gzw.Close()

	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	zw.Write([]byte("hello"))
	zw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write([]byte("hello"))
	bw.Close()

	testCases := []struct {
		encoding string
		body     []byte
		expect   string
	}{
		{encoding: "", body: []byte("hello"), expect: "hello"},
		{encoding: "identity", body: []byte("hello"), expect: "hello"},
		{encoding: "gzip", body: gz.Bytes(), expect: "hello"},
		{encoding: "x-gzip", body: gz.Bytes(), expect: "hello"},
		{encoding: "GZIP", body: gz.Bytes(), expect: "hello"},
		{encoding: "deflate", body: deflated.Bytes(), expect: "hello"},
		{encoding: "br", body: br.Bytes(), expect: "hello"},
		{encoding: "gzip", body: nil, expect: ""},
	}

	for _, test := range testCases {
		body, err := decodeBody(test.encoding, io.NopCloser(bytes.NewReader(test.body)))
		require.NoError(t, err, test.encoding)
		contents, err := io.ReadAll(body)
		require.NoError(t, err, test.encoding)
		require.Equal(t, test.expect, string(contents), test.encoding)
		require.NoError(t, body.Close())
	}

	_, err := decodeBody("compress", io.NopCloser(bytes.NewReader(nil)))
	require.Error(t, err)
}

func TestRequestUnsupportedMethod(t *testing.T) {
	portal := testutil.NewPortal(t)
	client, recorder := newTestClient(t, portal, nil)

	_, err := client.Request(context.Background(), "PATCH", "/", nil)
	require.ErrorIs(t, err, UnsupportedMethod)
	require.Empty(t, portal.Requests())
	require.Empty(t, recorder.Events)
}

func TestRequestTransportError(t *testing.T) {
	portal := testutil.NewPortal(t)
	client, recorder := newTestClient(t, portal, &tokenstore.Memory{Token: "tok"})
	portal.Server.Close()

	_, err := client.Request(context.Background(), http.MethodGet, "/account", nil)
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	require.Equal(t, http.MethodGet, terr.Method)
	require.Equal(t, "/account", terr.Path)

	if diff := cmp.Diff(
		[]EventKind{RequestStarted, RequestFinished, Fatal},
		recorder.Kinds(),
	); diff != "" {
		t.Fatal(diff)
	}
}

func TestRedirectIsNotFollowed(t *testing.T) {
	portal := testutil.NewPortal(t)
	client, _ := newTestClient(t, portal, &tokenstore.Memory{Token: "tok"})

	res, err := client.Request(context.Background(), http.MethodPost, "/logout", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.True(t, res.IsRedirect())
	require.Equal(t, []string{"POST /logout"}, portal.Paths())
}

func TestIsRedirect(t *testing.T) {
	for _, status := range []int{301, 302, 303, 307, 308} {
		require.True(t, isRedirect(status), status)
	}
	for _, status := range []int{200, 204, 300, 304, 400, 422, 500} {
		require.False(t, isRedirect(status), status)
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "anonymous", Anonymous.String())
	require.Equal(t, "session-established", SessionEstablished.String())
	require.Equal(t, "authenticated", Authenticated.String())
	require.Equal(t, "fatal-error", Fatal.String())
}
