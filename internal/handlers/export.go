package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trackerscope/internal/db"
	"trackerscope/internal/models"
)

type RunReader interface {
	GetRun(ctx context.Context, id uuid.UUID) (models.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]models.Run, error)
	CountRuns(ctx context.Context) (int64, error)
}

type RunsHandler struct {
	Runs RunReader
}

func NewRunsHandler(runs RunReader) *RunsHandler {
	return &RunsHandler{Runs: runs}
}

func (h *RunsHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	run, err := h.Runs.GetRun(c.Request.Context(), id)
	if errors.Is(err, db.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		slog.Error("Failed to load run", "trace_id", c.GetString("trace_id"), "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
		return
	}
	c.JSON(http.StatusOK, run.ToDict())
}

// ExportNDJSON streams every stored run, newest first, one JSON object per
// line.
func (h *RunsHandler) ExportNDJSON(c *gin.Context) {
	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("trackerscope_runs_%s.ndjson", timestamp)

	if total, err := h.Runs.CountRuns(c.Request.Context()); err == nil {
		c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	} else {
		slog.Warn("Failed to count runs", "trace_id", c.GetString("trace_id"), "error", err)
	}
	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	perPage := 100
	offset := 0

	for {
		runs, err := h.Runs.ListRuns(ctx, perPage, offset)
		if err != nil {
			slog.Error("Export aborted", "trace_id", c.GetString("trace_id"), "offset", offset, "error", err)
			break
		}
		if len(runs) == 0 {
			break
		}

		for _, r := range runs {
			line, err := json.Marshal(r.ToDict())
			if err != nil {
				continue
			}
			c.Writer.Write(line)
			c.Writer.Write([]byte("\n"))
		}
		c.Writer.Flush()

		if len(runs) < perPage {
			break
		}
		offset += perPage
	}
}
