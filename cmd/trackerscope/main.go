package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trackerscope/internal/config"
)

type rootOptions struct {
	debug           bool
	eventsFile      string
	cookiesFile     string
	reportFile      string
	easyPrivacyFile string
	trackerDBFile   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "trackerscope",
		Short:        "Classify crawl events and cookies as tracking signals",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(opts.debug)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	pf.StringVar(&opts.eventsFile, "events-file", "", "OpenWPM events input (default "+config.DefaultEventsFile+")")
	pf.StringVar(&opts.cookiesFile, "cookies-file", "", "cookie jar input (default "+config.DefaultCookiesFile+")")
	pf.StringVar(&opts.reportFile, "report-file", "", "cookie report output (default "+config.DefaultReportFile+")")
	pf.StringVar(&opts.easyPrivacyFile, "easyprivacy-file", "", "cached EasyPrivacy list (default "+config.DefaultEasyPrivacyFile+")")
	pf.StringVar(&opts.trackerDBFile, "trackerdb-file", "", "cached tracker database (default "+config.DefaultTrackerDBFile+")")

	cmd.AddCommand(eventsCmd(opts), cookiesCmd(opts), registrableCmd(), serveCmd(opts))
	return cmd
}

// Logs go to stderr so stdout stays clean for results.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig reads the environment and applies path flags on top.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Paths.Events, o.eventsFile)
	override(&cfg.Paths.Cookies, o.cookiesFile)
	override(&cfg.Paths.Report, o.reportFile)
	override(&cfg.Paths.EasyPrivacy, o.easyPrivacyFile)
	override(&cfg.Paths.TrackerDB, o.trackerDBFile)
	return cfg, nil
}
