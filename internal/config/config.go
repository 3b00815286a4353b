// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultEventsFile      = "openwpm_events.json"
	DefaultCookiesFile     = "cookies.json"
	DefaultReportFile      = "report.json"
	DefaultEasyPrivacyFile = "easyprivacy.txt"
	DefaultTrackerDBFile   = "trackerdb.json"

	DefaultEasyPrivacyURL = "https://easylist.to/easylist/easyprivacy.txt"
	DefaultTrackerDBURL   = "https://github.com/ghostery/trackerdb/releases/latest/download/trackerdb.json"

	DefaultDownloadTimeout = 15 * time.Second
)

// Paths are the files a run reads and writes. Every pipeline takes them
// explicitly so tests can point at a temp dir.
type Paths struct {
	Events      string
	Cookies     string
	Report      string
	EasyPrivacy string
	TrackerDB   string
}

func DefaultPaths() Paths {
	return Paths{
		Events:      DefaultEventsFile,
		Cookies:     DefaultCookiesFile,
		Report:      DefaultReportFile,
		EasyPrivacy: DefaultEasyPrivacyFile,
		TrackerDB:   DefaultTrackerDBFile,
	}
}

type Config struct {
	Paths              Paths
	EasyPrivacyURL     string
	TrackerDBURL       string
	DownloadTimeout    time.Duration
	CookiePatternsFile string
	DatabaseURL        string
	Port               string
	AppVersion         string
	DNSResolvers       []string
	Workers            int
}

func Load() (*Config, error) {
	paths := DefaultPaths()
	paths.Events = envOr("TRACKERSCOPE_EVENTS_FILE", paths.Events)
	paths.Cookies = envOr("TRACKERSCOPE_COOKIES_FILE", paths.Cookies)
	paths.Report = envOr("TRACKERSCOPE_REPORT_FILE", paths.Report)
	paths.EasyPrivacy = envOr("TRACKERSCOPE_EASYPRIVACY_FILE", paths.EasyPrivacy)
	paths.TrackerDB = envOr("TRACKERSCOPE_TRACKERDB_FILE", paths.TrackerDB)

	timeout := DefaultDownloadTimeout
	if v := os.Getenv("DOWNLOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DOWNLOAD_TIMEOUT %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("DOWNLOAD_TIMEOUT must be positive, got %s", d)
		}
		timeout = d
	}

	workers := 1
	if v := os.Getenv("TRACKERSCOPE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("TRACKERSCOPE_WORKERS must be a positive integer, got %q", v)
		}
		workers = n
	}

	var resolvers []string
	for _, r := range strings.Split(os.Getenv("DNS_RESOLVERS"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			resolvers = append(resolvers, r)
		}
	}

	return &Config{
		Paths:              paths,
		EasyPrivacyURL:     envOr("EASYPRIVACY_URL", DefaultEasyPrivacyURL),
		TrackerDBURL:       envOr("TRACKERDB_URL", DefaultTrackerDBURL),
		DownloadTimeout:    timeout,
		CookiePatternsFile: os.Getenv("COOKIE_PATTERNS_FILE"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Port:               envOr("PORT", "5000"),
		AppVersion:         "1.0.0",
		DNSResolvers:       resolvers,
		Workers:            workers,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
