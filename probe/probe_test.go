package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_HTMLPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lambda":
			http.Redirect(w, r, "/lambda/latest/dg/welcome.html", http.StatusFound)
		default:
			assert.Contains(t, r.Header.Get("User-Agent"), "Chrome/")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><head><title>\n  What is AWS Lambda?\n</title></head><body>x</body></html>"))
		}
	}))
	defer srv.Close()

	res, err := New(2*time.Second).Probe(context.Background(), srv.URL+"/lambda")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "What is AWS Lambda?", res.Title)
	require.Equal(t, srv.URL+"/lambda/latest/dg/welcome.html", res.FinalURL)
	require.True(t, res.OK())
}

func TestProbe_ErrorStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("<title>Access Denied</title>"))
	}))
	defer srv.Close()

	res, err := New(2*time.Second).Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.Equal(t, "Access Denied", res.Title)
	require.False(t, res.OK())
}

func TestProbe_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(time.Second).Probe(context.Background(), url)
	require.Error(t, err)
}

func TestProbe_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(100*time.Millisecond).Probe(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestExtractTitle(t *testing.T) {
	tests := map[string]string{
		"<title>React</title>":                  "React",
		"<head><title></title></head>":          "",
		"<p>no title</p>":                       "",
		"<svg><title>icon</title></svg><title>": "icon",
	}
	for in, want := range tests {
		if got := extractTitle(strings.NewReader(in)); got != want {
			t.Errorf("extractTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResult_OK(t *testing.T) {
	require.False(t, (&Result{StatusCode: 200, ContentType: "application/json"}).OK())
	require.True(t, (&Result{StatusCode: 204, ContentType: "application/xhtml+xml"}).OK())
}
