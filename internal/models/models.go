// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrMissingField = errors.New("missing required field")

// ObservedEvent is one JavaScript instrumentation record from a crawl.
// Every field is optional and passed through untouched; absent fields are
// emitted as null.
type ObservedEvent struct {
	ScriptURL   json.RawMessage `json:"script_url"`
	TopLevelURL json.RawMessage `json:"top_level_url"`
	Object      json.RawMessage `json:"object"`
	Property    json.RawMessage `json:"property"`
	Timestamp   json.RawMessage `json:"timestamp"`
}

func (e ObservedEvent) ScriptURLString() string {
	return rawString(e.ScriptURL)
}

func (e ObservedEvent) TopLevelURLString() string {
	return rawString(e.TopLevelURL)
}

// rawString returns the JSON string held in raw, or "" for anything else.
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// EventResult is an ObservedEvent labeled by the tracker reference. Misses
// carry no tracker keys at all.
type EventResult struct {
	ScriptURL     json.RawMessage
	TopLevelURL   json.RawMessage
	Object        json.RawMessage
	Property      json.RawMessage
	Timestamp     json.RawMessage
	IsTracker     bool
	TrackerDomain string
	Company       *string
	Categories    []string
	ThirdParty    bool
	// CNAMETarget is set when the tracker was only found behind a CNAME.
	CNAMETarget string
}

type eventHit struct {
	ScriptURL     json.RawMessage `json:"script_url"`
	TopLevelURL   json.RawMessage `json:"top_level_url"`
	Object        json.RawMessage `json:"object"`
	Property      json.RawMessage `json:"property"`
	Timestamp     json.RawMessage `json:"timestamp"`
	IsTracker     bool            `json:"is_tracker"`
	TrackerDomain string          `json:"tracker_domain"`
	Company       *string         `json:"company"`
	Categories    []string        `json:"categories"`
	ThirdParty    bool            `json:"third_party"`
	CNAMETarget   string          `json:"cname_target,omitempty"`
}

type eventMiss struct {
	ScriptURL   json.RawMessage `json:"script_url"`
	TopLevelURL json.RawMessage `json:"top_level_url"`
	Object      json.RawMessage `json:"object"`
	Property    json.RawMessage `json:"property"`
	Timestamp   json.RawMessage `json:"timestamp"`
	IsTracker   bool            `json:"is_tracker"`
	ThirdParty  bool            `json:"third_party"`
}

func (r EventResult) MarshalJSON() ([]byte, error) {
	if !r.IsTracker {
		return json.Marshal(eventMiss{
			ScriptURL:   r.ScriptURL,
			TopLevelURL: r.TopLevelURL,
			Object:      r.Object,
			Property:    r.Property,
			Timestamp:   r.Timestamp,
			ThirdParty:  r.ThirdParty,
		})
	}
	categories := r.Categories
	if categories == nil {
		categories = []string{}
	}
	return json.Marshal(eventHit{
		ScriptURL:     r.ScriptURL,
		TopLevelURL:   r.TopLevelURL,
		Object:        r.Object,
		Property:      r.Property,
		Timestamp:     r.Timestamp,
		IsTracker:     true,
		TrackerDomain: r.TrackerDomain,
		Company:       r.Company,
		Categories:    categories,
		ThirdParty:    r.ThirdParty,
		CNAMETarget:   r.CNAMETarget,
	})
}

// ObservedCookie is a cookie seen in the browser jar. Both fields are
// required.
type ObservedCookie struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (c *ObservedCookie) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   *string `json:"name"`
		Domain *string `json:"domain"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name == nil {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if raw.Domain == nil {
		return fmt.Errorf("%w: domain", ErrMissingField)
	}
	c.Name, c.Domain = *raw.Name, *raw.Domain
	return nil
}

type NameCategory string

const (
	CategoryAnalytics NameCategory = "analytics"
	CategoryAds       NameCategory = "ads"
	CategorySocial    NameCategory = "social"
	CategoryUnknown   NameCategory = "unknown"
)

type DetectionMethod string

const (
	DetectionCookieName DetectionMethod = "cookie-name"
	DetectionUnknown    DetectionMethod = "unknown"
)

type CookieResult struct {
	CookieName             string          `json:"cookie_name"`
	CookieDomain           string          `json:"cookie_domain"`
	NameCategory           NameCategory    `json:"name_category"`
	EasyPrivacyDomainMatch *string         `json:"easyprivacy_domain_match"`
	TrackingScore          int             `json:"tracking_score"`
	LikelyTracking         bool            `json:"likely_tracking"`
	DetectionMethod        DetectionMethod `json:"detection_method"`
}

type RunKind string

const (
	RunKindEvents  RunKind = "events"
	RunKindCookies RunKind = "cookies"
)

// Run is one persisted classification batch.
type Run struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Kind         RunKind         `json:"kind" db:"kind"`
	InputCount   int             `json:"input_count" db:"input_count"`
	FlaggedCount int             `json:"flagged_count" db:"flagged_count"`
	Results      json.RawMessage `json:"results" db:"results"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

func (r *Run) ToDict() map[string]interface{} {
	result := map[string]interface{}{
		"id":            r.ID.String(),
		"kind":          r.Kind,
		"input_count":   r.InputCount,
		"flagged_count": r.FlaggedCount,
		"results":       r.Results,
	}
	if !r.CreatedAt.IsZero() {
		result["created_at"] = r.CreatedAt.Format(time.RFC3339)
	}
	return result
}
