// Package harvest visits the configured documentation sites and turns their
// sections into documents.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/time/rate"

	"github.com/use-agent/docharvest/cleaner"
	"github.com/use-agent/docharvest/models"
	"github.com/use-agent/docharvest/simhash"
	"github.com/use-agent/docharvest/sites"
)

// Page is the navigation surface a harvest needs from a browser tab.
// Every method blocks until its own wait condition holds or times out.
type Page interface {
	// Open navigates to url and waits for the page to load.
	Open(ctx context.Context, url string) error
	// Click follows the element located by loc.
	Click(ctx context.Context, loc sites.Locator) error
	// Content returns the rendered markup and URL of the current page.
	Content(ctx context.Context) (html, url string, err error)
	// Back returns to the previous history entry.
	Back(ctx context.Context) error
}

// Options configures a Harvester.
type Options struct {
	// NavInterval is the minimum spacing between section clicks.
	NavInterval time.Duration

	// Markdown adds a Markdown rendering of each container to its document.
	Markdown bool

	// Readability strips in-page chrome from the container before the
	// Markdown rendering. The normalized text is not affected.
	Readability bool
}

// Harvester extracts documents from one site at a time.
type Harvester struct {
	logger   *slog.Logger
	limiter  *rate.Limiter
	markdown *cleaner.MarkdownRenderer
	stale    *simhash.Tracker
}

// NewHarvester returns a Harvester. It keeps per-run state (pacing and
// stale-capture history) and must not be shared between runs.
func NewHarvester(logger *slog.Logger, opts Options) *Harvester {
	limit := rate.Inf
	if opts.NavInterval > 0 {
		limit = rate.Every(opts.NavInterval)
	}
	h := &Harvester{
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
		stale:   simhash.NewTracker(simhash.DefaultThreshold),
	}
	if opts.Markdown {
		h.markdown = cleaner.NewMarkdownRenderer(cleaner.MarkdownOptions{Readability: opts.Readability})
	}
	return h
}

// SiteResult is what one site produced.
type SiteResult struct {
	Documents []models.Document
	Skipped   []models.Skipped
}

// Harvest opens the site root and captures every section in catalog order.
// A section that fails for any reason is skipped and recorded; it never
// stops the loop. An error is returned only when the site cannot be started
// at all, ctx ends, or navigation between sections panics, together with
// whatever was captured so far. Sections not reached are recorded as skipped.
func (h *Harvester) Harvest(ctx context.Context, page Page, site sites.Site) (res SiteResult, err error) {
	log := h.logger.With("source", site.Source)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.Error("panic while harvesting site", "panic", r, "stack", string(debug.Stack()))
		err = models.NewScrapeError(models.ErrCodeInternal, fmt.Sprintf("panic: %v", r), nil)
		done := len(res.Documents) + len(res.Skipped)
		for _, rest := range site.Sections[min(done, len(site.Sections)):] {
			res.Skipped = append(res.Skipped, skipped(site, rest, err))
		}
	}()

	container, err := cleaner.CompileSelector(site.Container)
	if err != nil {
		return res, models.NewScrapeError(models.ErrCodeInvalidCatalog, "container selector", err)
	}
	normalize, ok := cleaner.NormalizerByName(site.Normalizer)
	if !ok {
		return res, models.NewScrapeError(models.ErrCodeInvalidCatalog, "unknown normalizer "+site.Normalizer, nil)
	}

	log.Info("opening site root", "url", site.Root)
	if err := page.Open(ctx, site.Root); err != nil {
		for _, sec := range site.Sections {
			res.Skipped = append(res.Skipped, skipped(site, sec, err))
		}
		return res, fmt.Errorf("open %s: %w", site.Root, err)
	}

	for i, sec := range site.Sections {
		if err := h.limiter.Wait(ctx); err != nil {
			for _, rest := range site.Sections[i:] {
				res.Skipped = append(res.Skipped, skipped(site, rest, err))
			}
			return res, err
		}

		secLog := log.With("section", sec.Title)
		c := visit{page: page, site: site, section: sec, container: container, normalize: normalize}
		doc, err := h.capture(ctx, &c)
		if err != nil {
			h.logSkip(secLog, err)
			res.Skipped = append(res.Skipped, skipped(site, sec, err))
		} else {
			res.Documents = append(res.Documents, doc)
			secLog.Info("parsed_doc", "url", doc.URL, "tokens", cleaner.EstimateTokens(doc.Sections[0]))
			if m, stale := h.stale.Observe(string(site.Source), sec.Title, doc.Sections[0]); stale {
				secLog.Warn("capture is nearly identical to an earlier section; the click may not have navigated",
					"previous", m.Label, "distance", m.Distance)
			}
		}

		switch c.left {
		case leftRoot:
			h.returnToRoot(ctx, page, site, secLog)
		case leftUnknown:
			h.reopenRoot(ctx, page, site, secLog)
		}
		if ctx.Err() != nil {
			for _, rest := range site.Sections[i+1:] {
				res.Skipped = append(res.Skipped, skipped(site, rest, ctx.Err()))
			}
			return res, ctx.Err()
		}
	}

	return res, nil
}

// position is where the tab is relative to the site root after a section.
type position int

const (
	onRoot      position = iota // the link was never clicked
	leftRoot                    // the click navigated; history back returns
	leftUnknown                 // the click may or may not have landed
)

// visit holds the inputs of one section and where it left the tab.
type visit struct {
	page      Page
	site      sites.Site
	section   sites.Section
	container cascadia.Selector
	normalize cleaner.Normalizer
	left      position
}

// capture visits one section. A panic is turned into an INTERNAL_ERROR.
//
//  1. Click       – follow the section link from the site root
//  2. Content     – read the rendered markup
//  3. Container   – find the site's content element
//  4. Normalize   – visible text through the site normalizer
//  5. Markdown    – optional rendering of the container
func (h *Harvester) capture(ctx context.Context, c *visit) (doc models.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic while capturing section",
				"source", c.site.Source,
				"section", c.section.Title,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = models.NewScrapeError(models.ErrCodeInternal, fmt.Sprintf("panic: %v", r), nil)
		}
	}()

	// ── 1. Click ──────────────────────────────────────────────────────
	if err := c.page.Click(ctx, c.section.Locator); err != nil {
		if models.CodeOf(err) != models.ErrCodeElementNotFound {
			c.left = leftUnknown
		}
		return doc, err
	}
	c.left = leftRoot

	// ── 2. Content ────────────────────────────────────────────────────
	rawHTML, url, err := c.page.Content(ctx)
	if err != nil {
		return doc, err
	}

	// ── 3. Container ──────────────────────────────────────────────────
	box, found, err := cleaner.FindContainer(rawHTML, c.container)
	if err != nil {
		return doc, models.NewScrapeError(models.ErrCodeInternal, "parse page markup", err)
	}
	if !found {
		return doc, models.NewScrapeError(models.ErrCodeContentMissing,
			fmt.Sprintf("no %q element at %s", c.site.Container, url), nil)
	}

	// ── 4. Normalize ──────────────────────────────────────────────────
	doc = models.Document{
		Title:    c.section.Title,
		Source:   c.site.Source,
		URL:      url,
		Sections: []string{c.normalize(box.Text)},
	}
	if !doc.Emittable() {
		return models.Document{}, models.NewScrapeError(models.ErrCodeContentEmpty,
			fmt.Sprintf("%q element at %s has no text", c.site.Container, url), nil)
	}

	// ── 5. Markdown ───────────────────────────────────────────────────
	if h.markdown != nil {
		md, err := h.markdown.Render(box.HTML, url)
		if err != nil {
			h.logger.Warn("markdown rendering failed, emitting text only",
				"source", c.site.Source, "section", c.section.Title, "error", err)
		} else {
			doc.Markdown = md
		}
	}

	return doc, nil
}

// returnToRoot goes back to the site root after a section. When history
// back fails the root is opened again; if that fails too the next section's
// locate will fail and be skipped on its own.
func (h *Harvester) returnToRoot(ctx context.Context, page Page, site sites.Site, log *slog.Logger) {
	err := page.Back(ctx)
	if err == nil {
		return
	}
	log.Warn("history back failed, reopening site root", "error", err)
	h.reopenRoot(ctx, page, site, log)
}

func (h *Harvester) reopenRoot(ctx context.Context, page Page, site sites.Site, log *slog.Logger) {
	if err := page.Open(ctx, site.Root); err != nil {
		log.Error("could not return to site root", "url", site.Root, "error", err)
	}
}

// logSkip logs a skipped section at the level its cause warrants.
func (h *Harvester) logSkip(log *slog.Logger, err error) {
	code := models.CodeOf(err)
	switch code {
	case models.ErrCodeContentMissing, models.ErrCodeContentEmpty:
		log.Warn("section skipped", "code", code, "error", err)
	case models.ErrCodeInternal:
		log.Error("unexpected error, section skipped", "code", code, "error", err)
	default:
		log.Error("section skipped", "code", code, "error", err)
	}
}

func skipped(site sites.Site, sec sites.Section, err error) models.Skipped {
	return models.Skipped{
		Source: site.Source,
		Title:  sec.Title,
		Code:   models.CodeOf(err),
		Reason: err.Error(),
	}
}
