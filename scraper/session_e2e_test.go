//go:build e2e

package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/docharvest/config"
	"github.com/use-agent/docharvest/models"
	"github.com/use-agent/docharvest/sites"
)

func docsServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/learn", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><nav>
			<a href="/learn/installation"> Installation </a>
			<a href="getting-started.html">Start</a>
		</nav></body></html>`)
	})
	mux.HandleFunc("/learn/installation", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article><h1>Installation</h1><p>Try React</p></article></body></html>`)
	})
	mux.HandleFunc("/getting-started.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="awsdocs-container">Getting started</div></body></html>`)
	})
	return httptest.NewServer(mux)
}

func testConfigs() (config.BrowserConfig, config.HarvestConfig) {
	return config.BrowserConfig{
			Headless:             true,
			NoSandbox:            true,
			BlockedResourceTypes: []string{"Image"},
		}, config.HarvestConfig{
			LoadTimeout:   15 * time.Second,
			LocateTimeout: 3 * time.Second,
			SettleTimeout: 2 * time.Second,
		}
}

func TestSession_NavigateSections(t *testing.T) {
	srv := docsServer()
	defer srv.Close()

	ctx := context.Background()
	bcfg, hcfg := testConfigs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Acquire(ctx, bcfg, hcfg, logger)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer s.Release()

	root := srv.URL + "/learn"
	if err := s.Open(ctx, root); err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, tc := range []struct {
		loc     sites.Locator
		wantURL string
		want    string
	}{
		{sites.LinkText("Installation"), srv.URL + "/learn/installation", "Try React"},
		{sites.XPath("//a[@href='getting-started.html']"), srv.URL + "/getting-started.html", "Getting started"},
	} {
		if err := s.Click(ctx, tc.loc); err != nil {
			t.Fatalf("Click(%s): %v", tc.loc, err)
		}
		html, url, err := s.Content(ctx)
		if err != nil {
			t.Fatalf("Content: %v", err)
		}
		if url != tc.wantURL {
			t.Errorf("url = %q, want %q", url, tc.wantURL)
		}
		if !strings.Contains(html, tc.want) {
			t.Errorf("page markup missing %q", tc.want)
		}
		if err := s.Back(ctx); err != nil {
			t.Fatalf("Back: %v", err)
		}
	}

	err = s.Click(ctx, sites.LinkText("Escape Hatches"))
	if models.CodeOf(err) != models.ErrCodeElementNotFound {
		t.Fatalf("missing link: got %v, want ELEMENT_NOT_FOUND", err)
	}

	if err := s.Release(); err != nil {
		t.Errorf("Release: %v", err)
	}
	if err := s.Release(); err != nil {
		t.Errorf("second Release should return the first result, got %v", err)
	}
}
