package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/docharvest/cleaner"
	"github.com/use-agent/docharvest/config"
	"github.com/use-agent/docharvest/harvest"
	"github.com/use-agent/docharvest/logging"
	"github.com/use-agent/docharvest/probe"
	"github.com/use-agent/docharvest/scraper"
	"github.com/use-agent/docharvest/sites"
	"github.com/use-agent/docharvest/webhook"
)

// newRootCmd builds the command tree. Running the root without a
// subcommand is the same as "run".
func newRootCmd(cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "docharvest",
		Short: "docharvest captures documentation sections from the React and AWS Lambda docs into one JSON file.",
		Args:  cobra.NoArgs,

		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	run := newRunCmd(cfg, stdout, stderr)
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run, newSitesCmd(cfg, stdout), newNormalizeCmd(stdin, stdout))
	return root
}

func newRunCmd(cfg *config.Config, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest every configured site and write the documents file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(cfg.Log, stderr)
			return runHarvest(cmd.Context(), cfg, logger, stdout)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.Harvest.Output, "output", "o", cfg.Harvest.Output, "documents file to write")
	f.StringVar(&cfg.Harvest.SitesFile, "sites", cfg.Harvest.SitesFile, "YAML site catalog replacing the built-in one")
	f.StringVar(&cfg.Harvest.SkipReport, "skip-report", cfg.Harvest.SkipReport, "also write skipped sections to this file")
	f.BoolVar(&cfg.Harvest.Markdown, "markdown", cfg.Harvest.Markdown, "add a markdown rendering to every document")
	f.BoolVar(&cfg.Harvest.Readability, "readability", cfg.Harvest.Readability, "run readability on each container before the markdown rendering")
	f.BoolVar(&cfg.Probe.Enabled, "probe", cfg.Probe.Enabled, "preflight each site root over HTTP first")
	f.BoolVar(&cfg.Browser.Headless, "headless", cfg.Browser.Headless, "run the browser without a window")
	f.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn, error or critical")
	return cmd
}

func newSitesCmd(cfg *config.Config, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Print the site catalog the harvest would visit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(cfg.Harvest.SitesFile)
			if err != nil {
				return err
			}
			printCatalog(stdout, catalog)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Harvest.SitesFile, "sites", cfg.Harvest.SitesFile, "YAML site catalog replacing the built-in one")
	return cmd
}

func newNormalizeCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var collapse bool
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize text from stdin the way harvested sections are normalized.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := io.ReadAll(stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			normalize := cleaner.NormalizeText
			if collapse {
				normalize = cleaner.CollapseWhitespace
			}
			_, err = fmt.Fprintln(stdout, normalize(string(b)))
			return err
		},
	}
	cmd.Flags().BoolVar(&collapse, "collapse", false, "only collapse whitespace")
	return cmd
}

// runHarvest wires the browser, the harvester and the optional extras from
// cfg and runs one harvest.
func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	catalog, err := loadCatalog(cfg.Harvest.SitesFile)
	if err != nil {
		logging.Critical(logger, "invalid site catalog", "path", cfg.Harvest.SitesFile, "error", err)
		return err
	}

	logger.Info("docharvest starting",
		"sites", len(catalog),
		"output", cfg.Harvest.Output,
		"headless", cfg.Browser.Headless,
		"markdown", cfg.Harvest.Markdown,
	)

	acquire := func(ctx context.Context) (harvest.Session, error) {
		s, err := scraper.Acquire(ctx, cfg.Browser, cfg.Harvest, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	var opts []harvest.Option
	if cfg.Harvest.SkipReport != "" {
		opts = append(opts, harvest.WithSkipReport(cfg.Harvest.SkipReport))
	}
	if cfg.Probe.Enabled {
		opts = append(opts, harvest.WithProber(probe.New(cfg.Probe.Timeout)))
	}
	if cfg.Webhook.URL != "" {
		opts = append(opts, harvest.WithNotifier(webhook.New(cfg.Webhook.URL, cfg.Webhook.Secret, logger)))
	}

	h := harvest.NewHarvester(logger, harvest.Options{
		NavInterval: cfg.Harvest.NavInterval,
		Markdown:    cfg.Harvest.Markdown,
		Readability: cfg.Harvest.Readability,
	})
	report, err := harvest.NewOrchestrator(acquire, h, catalog, cfg.Harvest.Output, logger, opts...).Run(ctx)
	if len(report.Sites) > 0 {
		printReport(stdout, report)
	}
	return err
}

func loadCatalog(path string) ([]sites.Site, error) {
	if strings.TrimSpace(path) == "" {
		return sites.Default(), nil
	}
	return sites.LoadFile(path)
}
