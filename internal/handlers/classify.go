// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"trackerscope/internal/classifier"
	"trackerscope/internal/models"
	"trackerscope/internal/report"
)

// RunStore persists classification batches. Nil disables persistence.
type RunStore interface {
	SaveRun(ctx context.Context, kind models.RunKind, inputCount, flaggedCount int, results any) (models.Run, error)
}

type ClassifyHandler struct {
	Events    *classifier.EventClassifier
	Cookies   *classifier.CookieClassifier
	Blocklist []string
	Store     RunStore
}

func NewClassifyHandler(events *classifier.EventClassifier, cookies *classifier.CookieClassifier, blocklist []string, store RunStore) *ClassifyHandler {
	return &ClassifyHandler{
		Events:    events,
		Cookies:   cookies,
		Blocklist: blocklist,
		Store:     store,
	}
}

func (h *ClassifyHandler) ClassifyEvents(c *gin.Context) {
	events, err := report.DecodeEvents(c.Request.Body)
	if err != nil {
		respondDecodeError(c, err)
		return
	}

	results, err := h.Events.AnalyzeEvents(c.Request.Context(), events)
	if err != nil {
		slog.Warn("Event classification aborted", "trace_id", c.GetString("trace_id"), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Classification aborted"})
		return
	}

	flagged := 0
	for _, r := range results {
		if r.IsTracker {
			flagged++
		}
	}
	h.respond(c, models.RunKindEvents, len(events), flagged, results)
}

func (h *ClassifyHandler) ClassifyCookies(c *gin.Context) {
	cookies, err := report.DecodeCookies(c.Request.Body)
	if err != nil {
		respondDecodeError(c, err)
		return
	}

	results := h.Cookies.AnalyzeCookies(cookies, h.Blocklist)
	flagged := 0
	for _, r := range results {
		if r.LikelyTracking {
			flagged++
		}
	}
	h.respond(c, models.RunKindCookies, len(cookies), flagged, results)
}

func (h *ClassifyHandler) respond(c *gin.Context, kind models.RunKind, inputCount, flagged int, results any) {
	response := gin.H{
		"kind":    kind,
		"count":   inputCount,
		"flagged": flagged,
		"results": results,
	}

	if h.Store != nil {
		run, err := h.Store.SaveRun(c.Request.Context(), kind, inputCount, flagged, results)
		if err != nil {
			slog.Error("Failed to save run", "trace_id", c.GetString("trace_id"), "kind", kind, "error", err)
		} else {
			response["run_id"] = run.ID.String()
		}
	}

	c.JSON(http.StatusOK, response)
}

func respondDecodeError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
	case errors.Is(err, report.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is empty"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
