// Package scraper drives the headless browser a harvest runs in.
package scraper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/docharvest/config"
	"github.com/use-agent/docharvest/models"
)

// Session owns one browser process and the single tab a harvest navigates
// in. It is not safe for concurrent use.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter

	cfg    config.HarvestConfig
	logger *slog.Logger

	releaseOnce sync.Once
	releaseErr  error
}

// Acquire launches a browser and opens the tab the harvest will use.
// Any failure is a BROWSER_LAUNCH_FAILED error and leaves no process behind.
//
// Steps:
//
//  1. Launch        – headless, sandboxless Chromium with CI-friendly flags
//  2. Connect       – CDP connection to the launched process
//  3. Open tab      – one blank page for the whole run
//  4. Stealth       – mask automation markers (before the first navigation)
//  5. Headers       – extra request headers, if configured
//  6. Hijack        – block heavy resource types, if configured
func Acquire(ctx context.Context, bcfg config.BrowserConfig, hcfg config.HarvestConfig, logger *slog.Logger) (*Session, error) {
	// ── 1. Launch ─────────────────────────────────────────────────────
	l := launcher.New().
		Context(ctx).
		Headless(bcfg.Headless).
		NoSandbox(bcfg.NoSandbox)

	if bcfg.BrowserBin != "" {
		l = l.Bin(bcfg.BrowserBin)
	}
	if bcfg.Proxy != "" {
		l = l.Proxy(bcfg.Proxy)
	}

	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))
	if bcfg.Stealth {
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to launch browser", err)
	}
	logger.Info("browser launched", "controlURL", controlURL, "headless", bcfg.Headless)

	s := &Session{launcher: l, cfg: hcfg, logger: logger}

	// ── 2. Connect ────────────────────────────────────────────────────
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to connect to browser", err)
	}
	s.browser = browser

	// ── 3. Open tab ───────────────────────────────────────────────────
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Release()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to open page", err)
	}
	s.page = page

	// ── 4. Stealth ────────────────────────────────────────────────────
	if bcfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			logger.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	// ── 5. Extra headers ──────────────────────────────────────────────
	if len(bcfg.ExtraHeaders) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(bcfg.ExtraHeaders)}).Call(page); err != nil {
			logger.Warn("failed to set extra headers", "error", err)
		}
	}

	// ── 6. Resource blocking ──────────────────────────────────────────
	s.router = setupHijack(page, bcfg.BlockedResourceTypes)

	return s, nil
}

// Release stops the hijack router, closes the tab and the browser, and
// removes the browser's profile directory. Only the first call does any
// work; later calls return the first result.
func (s *Session) Release() error {
	s.releaseOnce.Do(func() {
		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				s.logger.Debug("hijack router stop failed", "error", err)
			}
		}
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				s.logger.Debug("page close failed", "error", err)
			}
		}
		if s.browser != nil {
			s.releaseErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Cleanup()
		}
		s.logger.Info("browser released")
	})
	return s.releaseErr
}
