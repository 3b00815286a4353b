// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package classifier

import (
	"log/slog"

	"trackerscope/internal/dnsclient"
	"trackerscope/internal/models"
	"trackerscope/internal/telemetry"
)

const (
	ScoreNamePattern  = 70
	ScoreBlocklist    = 20
	MaxScore          = 100
	TrackingThreshold = 60
)

// CalculateScore combines the name-pattern signal with blocklist
// membership. Both signals together give 90; nothing currently reaches the
// cap.
func CalculateScore(category models.NameCategory, domainMatched bool) int {
	score := 0
	if category != models.CategoryUnknown {
		score += ScoreNamePattern
	}
	if domainMatched {
		score += ScoreBlocklist
	}
	return min(score, MaxScore)
}

type CookieClassifier struct {
	Patterns CookiePatternTable
	Metrics  *telemetry.Metrics
}

func NewCookieClassifier(patterns CookiePatternTable) *CookieClassifier {
	if patterns == nil {
		patterns = DefaultCookiePatterns()
	}
	return &CookieClassifier{Patterns: patterns}
}

func (c *CookieClassifier) ClassifyCookieName(name string) models.NameCategory {
	return c.Patterns.Classify(name)
}

// MatchBlocklist returns the first blocklist domain that domain equals or
// is a subdomain of. blocklist is expected sorted, which makes the pick
// deterministic.
func MatchBlocklist(domain string, blocklist []string) (string, bool) {
	for _, entry := range blocklist {
		if dnsclient.DomainMatch(domain, entry) {
			return entry, true
		}
	}
	return "", false
}

func (c *CookieClassifier) Classify(cookie models.ObservedCookie, blocklist []string) models.CookieResult {
	domain := dnsclient.NormalizeDomain(cookie.Domain)

	var match *string
	if entry, ok := MatchBlocklist(domain, blocklist); ok {
		match = &entry
	}

	category := c.ClassifyCookieName(cookie.Name)
	score := CalculateScore(category, match != nil)

	method := models.DetectionUnknown
	if category != models.CategoryUnknown {
		method = models.DetectionCookieName
	}

	result := models.CookieResult{
		CookieName:             cookie.Name,
		CookieDomain:           domain,
		NameCategory:           category,
		EasyPrivacyDomainMatch: match,
		TrackingScore:          score,
		LikelyTracking:         score >= TrackingThreshold,
		DetectionMethod:        method,
	}
	c.Metrics.ObserveCookie(string(category), result.LikelyTracking)
	return result
}

// AnalyzeCookies classifies every cookie, one result per input in input
// order.
func (c *CookieClassifier) AnalyzeCookies(cookies []models.ObservedCookie, blocklist []string) []models.CookieResult {
	results := make([]models.CookieResult, 0, len(cookies))
	flagged := 0
	for _, cookie := range cookies {
		r := c.Classify(cookie, blocklist)
		if r.LikelyTracking {
			flagged++
		}
		results = append(results, r)
	}
	slog.Info("Cookies classified", "cookies", len(cookies), "likely_tracking", flagged, "blocklist_domains", len(blocklist))
	return results
}
