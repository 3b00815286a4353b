// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for classification runs. Each
// instance owns its registry so tests can create as many as they like.
type Metrics struct {
	registry          *prometheus.Registry
	eventsClassified  *prometheus.CounterVec
	cookiesClassified *prometheus.CounterVec
	downloadDuration  *prometheus.HistogramVec
	referenceSize     *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.eventsClassified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trackerscope_events_classified_total",
		Help: "Script events classified, by tracker verdict and party.",
	}, []string{"is_tracker", "third_party"})
	m.cookiesClassified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trackerscope_cookies_classified_total",
		Help: "Cookies classified, by name category and tracking verdict.",
	}, []string{"name_category", "likely_tracking"})
	m.downloadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackerscope_download_duration_seconds",
		Help:    "Reference list download latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "outcome"})
	m.referenceSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trackerscope_reference_entries",
		Help: "Entries in the most recently loaded reference set.",
	}, []string{"source"})

	m.registry.MustRegister(
		m.eventsClassified,
		m.cookiesClassified,
		m.downloadDuration,
		m.referenceSize,
	)
	return m
}

func (m *Metrics) ObserveEvent(isTracker, thirdParty bool) {
	if m == nil {
		return
	}
	m.eventsClassified.WithLabelValues(strconv.FormatBool(isTracker), strconv.FormatBool(thirdParty)).Inc()
}

func (m *Metrics) ObserveCookie(category string, likelyTracking bool) {
	if m == nil {
		return
	}
	m.cookiesClassified.WithLabelValues(category, strconv.FormatBool(likelyTracking)).Inc()
}

func (m *Metrics) ObserveDownload(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.downloadDuration.WithLabelValues(source, outcome).Observe(d.Seconds())
}

func (m *Metrics) SetReferenceSize(source string, n int) {
	if m == nil {
		return
	}
	m.referenceSize.WithLabelValues(source).Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
