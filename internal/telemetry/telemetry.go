// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"
)

type HealthState string

const (
	Healthy   HealthState = "healthy"
	Degraded  HealthState = "degraded"
	Unhealthy HealthState = "unhealthy"

	degradedThreshold  = 3
	unhealthyThreshold = 5
	cooldownBase       = 5 * time.Second
	cooldownMax        = 5 * time.Minute
	latencyWindowSize  = 100
)

// Upstream names recorded by the fetchers and resolvers.
const (
	SourceEasyPrivacy = "easyprivacy"
	SourceTrackerDB   = "trackerdb"
	SourceDNS         = "dns"
)

// SourceStats is a point-in-time view of one upstream's health.
type SourceStats struct {
	Name            string      `json:"name"`
	State           HealthState `json:"state"`
	TotalRequests   int64       `json:"total_requests"`
	SuccessCount    int64       `json:"success_count"`
	FailureCount    int64       `json:"failure_count"`
	ConsecFailures  int         `json:"consecutive_failures"`
	LastError       string      `json:"last_error,omitempty"`
	LastErrorTime   *time.Time  `json:"last_error_time,omitempty"`
	LastSuccessTime *time.Time  `json:"last_success_time,omitempty"`
	AvgLatencyMs    float64     `json:"avg_latency_ms"`
	P95LatencyMs    float64     `json:"p95_latency_ms"`
	InCooldown      bool        `json:"in_cooldown"`
	CooldownUntil   *time.Time  `json:"cooldown_until,omitempty"`
}

type source struct {
	mu             sync.Mutex
	name           string
	totalRequests  int64
	successCount   int64
	failureCount   int64
	consecFailures int
	lastError      string
	lastErrorTime  time.Time
	lastSuccess    time.Time
	latencies      []float64
	next           int
	cooldownUntil  time.Time
}

// Registry tracks request outcomes per upstream source (list downloads,
// DNS resolvers). Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*source
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]*source),
		now:     time.Now,
	}
}

func (r *Registry) get(name string) *source {
	r.mu.RLock()
	s, ok := r.sources[name]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.sources[name]; ok {
		return s
	}
	s = &source{name: name}
	r.sources[name] = s
	return s
}

func (r *Registry) RecordSuccess(name string, latency time.Duration) {
	s := r.get(name)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.successCount++
	s.consecFailures = 0
	s.lastSuccess = r.now()
	s.cooldownUntil = time.Time{}

	ms := float64(latency.Microseconds()) / 1000.0
	if len(s.latencies) < latencyWindowSize {
		s.latencies = append(s.latencies, ms)
		return
	}
	s.latencies[s.next] = ms
	s.next = (s.next + 1) % latencyWindowSize
}

func (r *Registry) RecordFailure(name, errMsg string) {
	s := r.get(name)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := r.now()
	s.totalRequests++
	s.failureCount++
	s.consecFailures++
	s.lastError = errMsg
	s.lastErrorTime = now

	if s.consecFailures >= degradedThreshold {
		backoff := time.Duration(math.Min(
			float64(cooldownBase)*math.Pow(2, float64(s.consecFailures-degradedThreshold)),
			float64(cooldownMax),
		))
		s.cooldownUntil = now.Add(backoff)
	}
}

// InCooldown reports whether name has failed often enough recently that
// callers should skip it.
func (r *Registry) InCooldown(name string) bool {
	r.mu.RLock()
	s, ok := r.sources[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.cooldownUntil.IsZero() && r.now().Before(s.cooldownUntil)
}

func (r *Registry) Stats(name string) SourceStats {
	s := r.get(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats(r.now())
}

// AllStats returns stats for every source seen so far, sorted by name.
func (r *Registry) AllStats() []SourceStats {
	r.mu.RLock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	stats := make([]SourceStats, 0, len(names))
	for _, name := range names {
		stats = append(stats, r.Stats(name))
	}
	return stats
}

// Overall folds every source's state into the worst one.
func (r *Registry) Overall() HealthState {
	overall := Healthy
	for _, s := range r.AllStats() {
		switch s.State {
		case Unhealthy:
			return Unhealthy
		case Degraded:
			overall = Degraded
		}
	}
	return overall
}

func (s *source) stats(now time.Time) SourceStats {
	st := SourceStats{
		Name:           s.name,
		TotalRequests:  s.totalRequests,
		SuccessCount:   s.successCount,
		FailureCount:   s.failureCount,
		ConsecFailures: s.consecFailures,
		LastError:      s.lastError,
	}

	if !s.lastErrorTime.IsZero() {
		t := s.lastErrorTime
		st.LastErrorTime = &t
	}
	if !s.lastSuccess.IsZero() {
		t := s.lastSuccess
		st.LastSuccessTime = &t
	}

	switch {
	case s.consecFailures >= unhealthyThreshold:
		st.State = Unhealthy
	case s.consecFailures >= degradedThreshold:
		st.State = Degraded
	default:
		st.State = Healthy
	}

	if !s.cooldownUntil.IsZero() && now.Before(s.cooldownUntil) {
		st.InCooldown = true
		t := s.cooldownUntil
		st.CooldownUntil = &t
	}

	if len(s.latencies) > 0 {
		sorted := append([]float64(nil), s.latencies...)
		sort.Float64s(sorted)
		sum := 0.0
		for _, v := range sorted {
			sum += v
		}
		st.AvgLatencyMs = sum / float64(len(sorted))
		st.P95LatencyMs = sorted[int(float64(len(sorted)-1)*0.95)]
	}

	return st
}
