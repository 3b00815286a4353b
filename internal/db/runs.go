package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"trackerscope/internal/dbq"
	"trackerscope/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

const maxPageSize = 500

// SaveRun stores one classification batch under a fresh id.
func (d *Database) SaveRun(ctx context.Context, kind models.RunKind, inputCount, flaggedCount int, results any) (models.Run, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return models.Run{}, fmt.Errorf("encode run results: %w", err)
	}

	row, err := d.Queries.CreateRun(ctx, dbq.CreateRunParams{
		ID:           pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Kind:         string(kind),
		InputCount:   int32(inputCount),
		FlaggedCount: int32(flaggedCount),
		Results:      payload,
	})
	if err != nil {
		return models.Run{}, fmt.Errorf("failed to save run: %w", err)
	}
	return runFromRow(row), nil
}

func (d *Database) GetRun(ctx context.Context, id uuid.UUID) (models.Run, error) {
	row, err := d.Queries.GetRun(ctx, pgtype.UUID{Bytes: id, Valid: true})
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Run{}, ErrRunNotFound
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return runFromRow(row), nil
}

func (d *Database) CountRuns(ctx context.Context) (int64, error) {
	n, err := d.Queries.CountRuns(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// ListRuns returns runs newest first. limit is capped at 500.
func (d *Database) ListRuns(ctx context.Context, limit, offset int) ([]models.Run, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := d.Queries.ListRuns(ctx, dbq.ListRunsParams{Limit: int32(limit), Offset: int32(offset)})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	runs := make([]models.Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, runFromRow(r))
	}
	return runs, nil
}

func runFromRow(r dbq.ClassificationRun) models.Run {
	run := models.Run{
		ID:           uuid.UUID(r.ID.Bytes),
		Kind:         models.RunKind(r.Kind),
		InputCount:   int(r.InputCount),
		FlaggedCount: int(r.FlaggedCount),
		Results:      json.RawMessage(r.Results),
	}
	if r.CreatedAt.Valid {
		run.CreatedAt = r.CreatedAt.Time
	}
	return run
}
