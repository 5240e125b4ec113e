package harvest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/docharvest/logging"
	"github.com/use-agent/docharvest/models"
	"github.com/use-agent/docharvest/probe"
	"github.com/use-agent/docharvest/sites"
	"github.com/use-agent/docharvest/store"
	"github.com/use-agent/docharvest/webhook"
)

// Session is a browser tab that must be released exactly once.
type Session interface {
	Page
	// Release frees the browser. It is safe to call more than once.
	Release() error
}

// Acquirer starts a browser session.
type Acquirer func(ctx context.Context) (Session, error)

// Prober checks a site root over plain HTTP before the browser visits it.
type Prober interface {
	Probe(ctx context.Context, url string) (*probe.Result, error)
}

// Notifier announces a finished run.
type Notifier interface {
	Notify(ctx context.Context, event *webhook.Event) error
}

// Summary is the webhook payload of a completed run.
type Summary struct {
	Output     string               `json:"output"`
	Emitted    int                  `json:"emitted"`
	Skipped    []models.Skipped     `json:"skipped"`
	Sites      []models.SiteSummary `json:"sites"`
	DurationMs int64                `json:"duration_ms"`
}

// Orchestrator runs a whole harvest: one browser session, every site in
// catalog order, one output file.
type Orchestrator struct {
	acquire   Acquirer
	harvester *Harvester
	catalog   []sites.Site
	output    string
	logger    *slog.Logger

	skipReport string
	prober     Prober
	notifier   Notifier
}

// Option configures optional Orchestrator steps.
type Option func(*Orchestrator)

// WithSkipReport also writes the skipped sections to path.
func WithSkipReport(path string) Option {
	return func(o *Orchestrator) { o.skipReport = path }
}

// WithProber preflights each site root before the browser starts.
func WithProber(p Prober) Option {
	return func(o *Orchestrator) { o.prober = p }
}

// WithNotifier sends a harvest.completed event after the output is written.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// NewOrchestrator returns an Orchestrator writing documents to output.
func NewOrchestrator(acquire Acquirer, h *Harvester, catalog []sites.Site, output string, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		acquire:   acquire,
		harvester: h,
		catalog:   catalog,
		output:    output,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs the harvest. The browser session is released on every path
// once acquired.
//
// Lifecycle:
//
//  1. Probe     – optional HTTP preflight of every site root (never fatal)
//  2. Acquire   – start the browser; failure ends the run with no output
//  3. DEFER     – release the browser
//  4. Harvest   – every site in order; a failed site is logged and skipped
//  5. Write     – the documents file, then the optional skip report
//  6. Notify    – optional webhook
//
// The returned report is never nil. A canceled run writes nothing, so a
// previous output file survives an interrupted run.
func (o *Orchestrator) Run(ctx context.Context) (*models.Report, error) {
	report := &models.Report{
		RunID:     randomID(),
		StartedAt: time.Now(),
		Output:    o.output,
	}
	log := o.logger.With("run_id", report.RunID)
	finish := func() {
		report.DurationMs = time.Since(report.StartedAt).Milliseconds()
	}
	defer finish()

	// ── 1. Probe ──────────────────────────────────────────────────────
	if o.prober != nil {
		o.probeAll(ctx, log)
	}

	// ── 2. Acquire ────────────────────────────────────────────────────
	session, err := o.acquire(ctx)
	if err != nil {
		logging.Critical(log, "browser session setup failed", "code", models.CodeOf(err), "error", err)
		return report, err
	}

	// ── 3. Release on every path ──────────────────────────────────────
	defer func() {
		if err := session.Release(); err != nil {
			log.Warn("browser release failed", "error", err)
		}
	}()

	// ── 4. Harvest ────────────────────────────────────────────────────
	for i, site := range o.catalog {
		if err := ctx.Err(); err != nil {
			skipSites(report, o.catalog[i:], err)
			return report, err
		}

		start := time.Now()
		res, err := o.harvester.Harvest(ctx, session, site)

		summary := models.SiteSummary{
			Source:     site.Source,
			Root:       site.Root,
			Configured: len(site.Sections),
			Emitted:    len(res.Documents),
			Skipped:    len(res.Skipped),
			DurationMs: time.Since(start).Milliseconds(),
		}
		report.Documents = append(report.Documents, res.Documents...)
		report.Skipped = append(report.Skipped, res.Skipped...)

		if err != nil {
			summary.Error = err.Error()
			report.Sites = append(report.Sites, summary)
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				log.Warn("harvest interrupted", "source", site.Source, "error", err)
				skipSites(report, o.catalog[i+1:], err)
				return report, err
			}
			logging.Critical(log, "site harvest failed", "source", site.Source, "code", models.CodeOf(err), "error", err)
			continue
		}
		report.Sites = append(report.Sites, summary)
		log.Info("site harvested",
			"source", site.Source,
			"emitted", summary.Emitted,
			"skipped", summary.Skipped,
			"duration_ms", summary.DurationMs,
		)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	// ── 5. Write ──────────────────────────────────────────────────────
	if err := store.WriteDocuments(o.output, report.Documents); err != nil {
		logging.Critical(log, "writing output failed", "path", o.output, "error", err)
		return report, err
	}
	log.Info("output written", "path", o.output, "documents", report.Emitted())

	if o.skipReport != "" {
		if err := store.WriteSkipReport(o.skipReport, report.Skipped); err != nil {
			log.Error("writing skip report failed", "path", o.skipReport, "error", err)
		}
	}

	finish()
	log.Info("harvest complete",
		"documents", report.Emitted(),
		"skipped", len(report.Skipped),
		"duration_ms", report.DurationMs,
	)

	// ── 6. Notify ─────────────────────────────────────────────────────
	if o.notifier != nil {
		event := &webhook.Event{
			Type:      webhook.EventHarvestCompleted,
			RunID:     report.RunID,
			Timestamp: time.Now().Unix(),
			Data: Summary{
				Output:     report.Output,
				Emitted:    report.Emitted(),
				Skipped:    report.Skipped,
				Sites:      report.Sites,
				DurationMs: report.DurationMs,
			},
		}
		if err := o.notifier.Notify(ctx, event); err != nil {
			log.Warn("completion webhook not delivered", "error", err)
		}
	}

	return report, nil
}

// probeAll logs what a plain HTTP GET of each root returns.
func (o *Orchestrator) probeAll(ctx context.Context, log *slog.Logger) {
	for _, site := range o.catalog {
		res, err := o.prober.Probe(ctx, site.Root)
		if err != nil {
			log.Warn("site root unreachable over HTTP", "source", site.Source, "url", site.Root, "error", err)
			continue
		}
		attrs := []any{
			"source", site.Source,
			"status", res.StatusCode,
			"title", res.Title,
			"final_url", res.FinalURL,
			"elapsed_ms", res.Elapsed.Milliseconds(),
		}
		if res.OK() {
			log.Info("site root probed", attrs...)
		} else {
			log.Warn("site root probe returned a non-HTML or error response", attrs...)
		}
	}
}

// skipSites records every section of the sites a canceled run never reached.
func skipSites(report *models.Report, remaining []sites.Site, cause error) {
	err := models.NewScrapeError(models.ErrCodeTimeout, "run canceled before the site was visited", cause)
	for _, site := range remaining {
		for _, sec := range site.Sections {
			report.Skipped = append(report.Skipped, skipped(site, sec, err))
		}
	}
}

// randomID returns a short random hex run identifier.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
