// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package trackerdb

import (
	"context"
	"fmt"
	"log/slog"

	"trackerscope/internal/dnsclient"
	"trackerscope/internal/telemetry"
)

// Build walks the snapshot in order and records every declared domain of
// every known tracker. Trackers without domains are skipped. A domain
// declared by several trackers ends up with the last tracker's metadata.
func Build(ctx context.Context, src Source) (*Reference, error) {
	ids, err := src.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracker snapshot: %w", err)
	}

	ref := NewReference()
	skipped := 0
	for _, id := range ids {
		t, ok := src.Tracker(id)
		if !ok || len(t.Domains) == 0 {
			skipped++
			continue
		}

		var categories []string
		if t.Category != "" {
			categories = []string{t.Category}
		}
		for _, d := range t.Domains {
			ref.Set(d, t.CompanyID, categories)
		}
	}

	slog.Info("Tracker reference built", "trackers", len(ids), "skipped", skipped, "domains", ref.Len())
	return ref, nil
}

// Populate makes sure the dataset is cached at path, downloading it on
// first use.
func Populate(ctx context.Context, fetcher *dnsclient.Fetcher, url, path string) error {
	if err := fetcher.Download(ctx, telemetry.SourceTrackerDB, url, path); err != nil {
		return fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	return nil
}

// Load populates, opens and builds the reference in one step.
func Load(ctx context.Context, fetcher *dnsclient.Fetcher, url, path string) (*Reference, error) {
	if err := Populate(ctx, fetcher, url, path); err != nil {
		return nil, err
	}
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	ref, err := Build(ctx, src)
	if err != nil {
		return nil, err
	}
	fetcher.Metrics.SetReferenceSize(telemetry.SourceTrackerDB, ref.Len())
	return ref, nil
}
