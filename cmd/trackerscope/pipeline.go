package main

import (
	"context"
	"fmt"
	"io"
	"net"

	"trackerscope/internal/blocklist"
	"trackerscope/internal/classifier"
	"trackerscope/internal/config"
	"trackerscope/internal/dnsclient"
	"trackerscope/internal/models"
	"trackerscope/internal/report"
	"trackerscope/internal/telemetry"
	"trackerscope/internal/trackerdb"
)

type eventsOptions struct {
	uncloak bool
	workers int
}

func newFetcher(cfg *config.Config, reg *telemetry.Registry, metrics *telemetry.Metrics) *dnsclient.Fetcher {
	f := dnsclient.NewFetcherWithTimeout(cfg.DownloadTimeout)
	f.Telemetry = reg
	f.Metrics = metrics
	return f
}

func newDNSClient(cfg *config.Config, reg *telemetry.Registry) *dnsclient.Client {
	opts := []dnsclient.Option{dnsclient.WithTelemetry(reg)}
	if len(cfg.DNSResolvers) > 0 {
		resolvers := make([]dnsclient.ResolverConfig, 0, len(cfg.DNSResolvers))
		for _, addr := range cfg.DNSResolvers {
			if _, _, err := net.SplitHostPort(addr); err != nil {
				addr = net.JoinHostPort(addr, "53")
			}
			resolvers = append(resolvers, dnsclient.ResolverConfig{Name: addr, Addr: addr})
		}
		opts = append(opts, dnsclient.WithResolvers(resolvers))
	}
	return dnsclient.New(opts...)
}

// runEvents classifies the events file against the tracker database and
// prints each result to w.
func runEvents(ctx context.Context, cfg *config.Config, opts eventsOptions, w io.Writer) error {
	reg := telemetry.NewRegistry()
	fetcher := newFetcher(cfg, reg, nil)

	ref, err := trackerdb.Load(ctx, fetcher, cfg.TrackerDBURL, cfg.Paths.TrackerDB)
	if err != nil {
		return err
	}

	events, err := report.LoadEvents(cfg.Paths.Events)
	if err != nil {
		return err
	}

	ec := classifier.NewEventClassifier(ref)
	ec.Workers = cfg.Workers
	if opts.workers > 0 {
		ec.Workers = opts.workers
	}
	if opts.uncloak {
		ec.Uncloaker = newDNSClient(cfg, reg)
	}

	results, err := ec.AnalyzeEvents(ctx, events)
	if err != nil {
		return fmt.Errorf("classify events: %w", err)
	}
	return report.WriteEvents(w, results)
}

func loadBlocklist(ctx context.Context, cfg *config.Config, fetcher *dnsclient.Fetcher) ([]string, error) {
	if err := blocklist.Download(ctx, fetcher, cfg.EasyPrivacyURL, cfg.Paths.EasyPrivacy); err != nil {
		return nil, err
	}
	domains, err := blocklist.Load(cfg.Paths.EasyPrivacy)
	if err != nil {
		return nil, err
	}
	fetcher.Metrics.SetReferenceSize(telemetry.SourceEasyPrivacy, len(domains))
	return domains, nil
}

// runCookies scores the cookie jar, writes the JSON report and prints the
// console summary to w.
func runCookies(ctx context.Context, cfg *config.Config, w io.Writer) ([]models.CookieResult, error) {
	fetcher := newFetcher(cfg, telemetry.NewRegistry(), nil)

	domains, err := loadBlocklist(ctx, cfg, fetcher)
	if err != nil {
		return nil, err
	}

	patterns, err := config.LoadCookiePatterns(cfg.CookiePatternsFile)
	if err != nil {
		return nil, err
	}

	cookies, err := report.LoadCookies(cfg.Paths.Cookies)
	if err != nil {
		return nil, err
	}

	results := classifier.NewCookieClassifier(patterns).AnalyzeCookies(cookies, domains)
	if err := report.WriteReport(cfg.Paths.Report, results); err != nil {
		return nil, err
	}
	if err := report.WriteCookieSummary(w, results, cfg.Paths.Report); err != nil {
		return nil, err
	}
	return results, nil
}
