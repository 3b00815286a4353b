// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package blocklist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"trackerscope/internal/dnsclient"
	"trackerscope/internal/telemetry"
)

// anchorRule matches a domain-anchored block rule ("||domain^") at the
// start of a line. Exception rules ("@@||domain^") do not start with "||"
// and are therefore never matched.
var anchorRule = regexp.MustCompile(`^\|\|([^\\^/]+)\^`)

// Download caches the filter list at path. An existing file is used as is.
func Download(ctx context.Context, fetcher *dnsclient.Fetcher, url, path string) error {
	return fetcher.Download(ctx, telemetry.SourceEasyPrivacy, url, path)
}

// Parse extracts the blocked domains of every anchored rule in r. Comment
// lines ("!") and every other rule syntax are ignored. The result is
// lowercased, deduplicated and sorted.
func Parse(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		if m := anchorRule.FindStringSubmatch(line); m != nil {
			seen[strings.ToLower(m[1])] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains, nil
}

func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist: %w", err)
	}
	defer f.Close()

	domains, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read blocklist %s: %w", path, err)
	}
	slog.Info("Blocklist domains loaded", "path", path, "domains", len(domains))
	return domains, nil
}
