// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package classifier

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"trackerscope/internal/dnsclient"
	"trackerscope/internal/models"
	"trackerscope/internal/telemetry"
	"trackerscope/internal/trackerdb"
)

// Uncloaker resolves the CNAME chain behind a hostname.
type Uncloaker interface {
	CNAMEChain(ctx context.Context, host string) ([]string, error)
}

type EventClassifier struct {
	Reference *trackerdb.Reference
	// Uncloaker is consulted only when the script host itself matches no
	// tracker. Nil disables CNAME uncloaking.
	Uncloaker Uncloaker
	// Workers bounds parallel classification. Values below 2 classify
	// sequentially.
	Workers int
	Metrics *telemetry.Metrics
}

func NewEventClassifier(ref *trackerdb.Reference) *EventClassifier {
	return &EventClassifier{Reference: ref, Workers: 1}
}

// match returns the first reference entry, in reference order, that host
// equals or is a subdomain of.
func (c *EventClassifier) match(host string) (trackerdb.Record, bool) {
	if c.Reference == nil {
		return trackerdb.Record{}, false
	}
	for _, rec := range c.Reference.Entries() {
		if dnsclient.DomainMatch(host, rec.Domain) {
			return rec, true
		}
	}
	return trackerdb.Record{}, false
}

func (c *EventClassifier) VerifyTracker(ctx context.Context, ev models.ObservedEvent) models.EventResult {
	scriptDomain := dnsclient.NormalizeDomain(dnsclient.ExtractDomain(ev.ScriptURLString()))
	siteDomain := dnsclient.NormalizeDomain(dnsclient.ExtractDomain(ev.TopLevelURLString()))

	result := models.EventResult{
		ScriptURL:   ev.ScriptURL,
		TopLevelURL: ev.TopLevelURL,
		Object:      ev.Object,
		Property:    ev.Property,
		Timestamp:   ev.Timestamp,
		ThirdParty:  scriptDomain != siteDomain,
	}

	rec, ok := c.match(scriptDomain)
	if !ok && c.Uncloaker != nil && scriptDomain != "" {
		chain, err := c.Uncloaker.CNAMEChain(ctx, scriptDomain)
		if err != nil {
			slog.Debug("CNAME uncloaking failed", "host", scriptDomain, "error", err)
		}
		for _, target := range chain {
			if rec, ok = c.match(target); ok {
				result.CNAMETarget = target
				break
			}
		}
	}

	if ok {
		result.IsTracker = true
		result.TrackerDomain = rec.Domain
		result.Company = rec.Company
		result.Categories = rec.Categories
	}
	c.Metrics.ObserveEvent(result.IsTracker, result.ThirdParty)
	return result
}

// AnalyzeEvents classifies every event, one result per input in input
// order. It only fails when ctx is cancelled.
func (c *EventClassifier) AnalyzeEvents(ctx context.Context, events []models.ObservedEvent) ([]models.EventResult, error) {
	results := make([]models.EventResult, len(events))

	if c.Workers < 2 {
		for i, ev := range events {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = c.VerifyTracker(ctx, ev)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.Workers)
		for i, ev := range events {
			i, ev := i, ev
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = c.VerifyTracker(gctx, ev)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	trackers := 0
	for _, r := range results {
		if r.IsTracker {
			trackers++
		}
	}
	slog.Info("Events classified", "events", len(events), "trackers", trackers)
	return results, nil
}
