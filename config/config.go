package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig
	Harvest HarvestConfig
	Probe   ProbeConfig
	Webhook WebhookConfig
	Log     LogConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker and CI).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy server for all browser traffic.
	Proxy string

	// Stealth injects anti-bot-detection evasions before the first navigation.
	Stealth bool // default: false

	// BlockedResourceTypes lists resource types the page never loads.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// ExtraHeaders are sent with every request. Empty by default.
	ExtraHeaders map[string]string
}

// HarvestConfig controls the extraction run.
type HarvestConfig struct {
	// Output is the JSON file the documents are written to.
	Output string // default: "documentation.json"

	// SkipReport, when set, receives a JSON list of skipped sections.
	SkipReport string

	// SitesFile overrides the built-in site catalog with a YAML file.
	SitesFile string

	// LoadTimeout bounds a page load (root page or history back).
	LoadTimeout time.Duration // default: 30s

	// LocateTimeout bounds the wait for a section link to become clickable.
	LocateTimeout time.Duration // default: 10s

	// SettleTimeout bounds the wait for a click to change the URL and for
	// the DOM to stop changing.
	SettleTimeout time.Duration // default: 5s

	// NavInterval is the minimum spacing between section navigations.
	NavInterval time.Duration // default: 1s

	// Markdown adds a Markdown rendering of each content container.
	Markdown bool // default: false

	// Readability narrows each container with Readability before the
	// Markdown rendering. Only used when Markdown is set.
	Readability bool // default: false
}

// ProbeConfig controls the optional HTTP preflight of each site root.
type ProbeConfig struct {
	Enabled bool          // default: false
	Timeout time.Duration // default: 5s
}

// WebhookConfig controls the optional completion notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Browser: BrowserConfig{
			Headless:   envBoolOr("DOCHARVEST_HEADLESS", true),
			NoSandbox:  envBoolOr("DOCHARVEST_NO_SANDBOX", true),
			BrowserBin: os.Getenv("DOCHARVEST_BROWSER_BIN"),
			Proxy:      os.Getenv("DOCHARVEST_PROXY"),
			Stealth:    envBoolOr("DOCHARVEST_STEALTH", false),
			BlockedResourceTypes: envSliceOr("DOCHARVEST_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			ExtraHeaders: envMapOr("DOCHARVEST_EXTRA_HEADERS", nil),
		},
		Harvest: HarvestConfig{
			Output:        envOr("DOCHARVEST_OUTPUT", "documentation.json"),
			SkipReport:    os.Getenv("DOCHARVEST_SKIP_REPORT"),
			SitesFile:     os.Getenv("DOCHARVEST_SITES_FILE"),
			LoadTimeout:   envDurationOr("DOCHARVEST_LOAD_TIMEOUT", 30*time.Second),
			LocateTimeout: envDurationOr("DOCHARVEST_LOCATE_TIMEOUT", 10*time.Second),
			SettleTimeout: envDurationOr("DOCHARVEST_SETTLE_TIMEOUT", 5*time.Second),
			NavInterval:   envDurationOr("DOCHARVEST_NAV_INTERVAL", time.Second),
			Markdown:      envBoolOr("DOCHARVEST_MARKDOWN", false),
			Readability:   envBoolOr("DOCHARVEST_READABILITY", false),
		},
		Probe: ProbeConfig{
			Enabled: envBoolOr("DOCHARVEST_PROBE", false),
			Timeout: envDurationOr("DOCHARVEST_PROBE_TIMEOUT", 5*time.Second),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("DOCHARVEST_WEBHOOK_URL"),
			Secret: os.Getenv("DOCHARVEST_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("DOCHARVEST_LOG_LEVEL", "info"),
			Format: envOr("DOCHARVEST_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

// envMapOr parses "k=v,k2=v2". Entries without '=' are ignored.
func envMapOr(key string, fallback map[string]string) map[string]string {
	pairs := envSliceOr(key, nil)
	if len(pairs) == 0 {
		return fallback
	}
	result := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			result[k] = strings.TrimSpace(v)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
