package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/use-agent/docharvest/models"
	"github.com/use-agent/docharvest/sites"
)

// domStableWindow is how long the DOM must stay unchanged to count as settled.
const domStableWindow = 300 * time.Millisecond

// Open navigates to url and waits for the load event and a settled DOM,
// bounded by LoadTimeout.
func (s *Session) Open(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to "+url+" failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "waiting for "+url+" to load")
	}
	s.settle(ctx)
	return nil
}

// Click locates the element for loc, clicks it and waits for the page to
// move on.
//
//  1. Locate   – poll until the element exists and is visible (LocateTimeout)
//  2. Click    – left click, scrolled into view
//  3. Follow   – wait for location.href to change (SettleTimeout, best effort)
//  4. Settle   – wait for the DOM to stop changing (SettleTimeout, best effort)
func (s *Session) Click(ctx context.Context, loc sites.Locator) error {
	// ── 1. Locate ─────────────────────────────────────────────────────
	locateCtx, cancel := context.WithTimeout(ctx, s.cfg.LocateTimeout)
	defer cancel()

	p := s.page.Context(locateCtx)
	el, err := locate(p, loc)
	if err != nil {
		return locateError(err, loc)
	}
	if err := el.WaitVisible(); err != nil {
		return locateError(err, loc)
	}

	before := s.currentURL(ctx)

	// ── 2. Click ──────────────────────────────────────────────────────
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, "click on "+loc.String()+" failed")
	}

	// ── 3. Follow ─────────────────────────────────────────────────────
	s.waitURLChange(ctx, before)

	// ── 4. Settle ─────────────────────────────────────────────────────
	s.settle(ctx)
	if err := ctx.Err(); err != nil {
		return categorizeError(err, "click on "+loc.String())
	}
	return nil
}

// Content returns the rendered markup of the current page and its URL.
func (s *Session) Content(ctx context.Context) (html, url string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	p := s.page.Context(ctx)
	html, err = p.HTML()
	if err != nil {
		return "", "", categorizeError(err, "failed to extract page HTML")
	}
	url, err = capturedURL(s.readURL(ctx))
	if err != nil {
		return "", "", err
	}
	return html, url, nil
}

// Back goes one step back in history and waits like Open does.
func (s *Session) Back(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	before := s.currentURL(ctx)

	p := s.page.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return categorizeError(err, "history back failed")
	}
	s.waitURLChange(ctx, before)
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "waiting for previous page to load")
	}
	s.settle(ctx)
	return nil
}

// locate resolves loc on p. Rod retries until the element appears or the
// page context ends.
func locate(p *rod.Page, loc sites.Locator) (*rod.Element, error) {
	switch loc.Kind {
	case sites.ByLinkText:
		return p.ElementR("a", linkTextPattern(loc.Value))
	case sites.ByXPath:
		return p.ElementX(loc.Value)
	case sites.ByCSS:
		return p.Element(loc.Value)
	default:
		return nil, fmt.Errorf("unknown locator kind %q", loc.Kind)
	}
}

// linkTextPattern matches an element whose whole text is text, ignoring
// surrounding whitespace.
func linkTextPattern(text string) string {
	return `/^\s*` + regexp.QuoteMeta(text) + `\s*$/`
}

// waitURLChange blocks until location.href differs from before or
// SettleTimeout elapses. Some links legitimately stay on the same URL, so
// running out of time is not an error.
func (s *Session) waitURLChange(ctx context.Context, before string) {
	if before == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SettleTimeout)
	defer cancel()

	err := s.page.Context(ctx).Wait(rod.Eval(`(u) => window.location.href !== u`, before))
	if err != nil {
		s.logger.Debug("url did not change before settle timeout", "url", before, "error", err)
	}
}

// settle waits for the DOM to stop changing, bounded by SettleTimeout.
func (s *Session) settle(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SettleTimeout)
	defer cancel()

	if err := s.page.Context(ctx).WaitDOMStable(domStableWindow, 0.1); err != nil {
		s.logger.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

// readURL reads location.href, bounded by SettleTimeout.
func (s *Session) readURL(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SettleTimeout)
	defer cancel()

	res, err := s.page.Context(ctx).Eval(`() => window.location.href`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// currentURL is readURL for callers that can proceed without a URL. It
// returns "" on failure.
func (s *Session) currentURL(ctx context.Context) string {
	href, err := s.readURL(ctx)
	if err != nil {
		s.logger.Debug("could not read page URL", "error", err)
		return ""
	}
	return href
}

// capturedURL checks the URL a document is recorded under. A capture
// without one is a navigation failure.
func capturedURL(href string, err error) (string, error) {
	if err != nil {
		return "", categorizeError(err, "failed to read page URL")
	}
	if href == "" {
		return "", models.NewScrapeError(models.ErrCodeNavigation, "page has no URL", nil)
	}
	return href, nil
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// locateError reports a locate failure. Running out of time while polling
// means the element never showed up.
func locateError(err error, loc sites.Locator) *models.ScrapeError {
	msg := "element " + loc.String() + " not found"
	var notFound *rod.ElementNotFoundError
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &notFound) {
		return models.NewScrapeError(models.ErrCodeElementNotFound, msg, err)
	}
	return categorizeError(err, msg)
}

// categorizeError wraps raw browser errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	var notFound *rod.ElementNotFoundError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "canceled: "+msg, err)
	case errors.As(err, &notFound):
		return models.NewScrapeError(models.ErrCodeElementNotFound, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
