// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package trackerdb

import (
	"context"
	"errors"
)

var ErrDatasetUnavailable = errors.New("tracker dataset unavailable")

// Tracker is one entry of the external tracker dataset.
type Tracker struct {
	ID        string
	Name      string
	Domains   []string
	CompanyID *string
	Category  string
}

// Source is the external tracker dataset. Snapshot lists tracker ids in the
// dataset's own order; Tracker resolves one id.
type Source interface {
	Snapshot(ctx context.Context) ([]string, error)
	Tracker(id string) (Tracker, bool)
}

// StaticSource is an in-memory Source.
type StaticSource struct {
	IDs      []string
	Trackers map[string]Tracker
}

func (s *StaticSource) Snapshot(context.Context) ([]string, error) {
	return s.IDs, nil
}

func (s *StaticSource) Tracker(id string) (Tracker, bool) {
	t, ok := s.Trackers[id]
	return t, ok
}
