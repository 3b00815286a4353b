// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"trackerscope/internal/models"
)

var ErrEmptyInput = errors.New("empty input")

// DecodeEvents accepts either a single event object or an array of them.
func DecodeEvents(r io.Reader) ([]models.ObservedEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	if data[0] == '{' {
		var ev models.ObservedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		return []models.ObservedEvent{ev}, nil
	}

	var events []models.ObservedEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	if events == nil {
		events = []models.ObservedEvent{}
	}
	return events, nil
}

// DecodeCookies reads a JSON array of cookies. The first cookie missing a
// name or domain fails the whole batch.
func DecodeCookies(r io.Reader) ([]models.ObservedCookie, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("decode cookies: %w", err)
	}

	cookies := make([]models.ObservedCookie, 0, len(raw))
	for i, item := range raw {
		var c models.ObservedCookie
		if err := json.Unmarshal(item, &c); err != nil {
			return nil, fmt.Errorf("cookie %d: %w", i, err)
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}

func LoadEvents(path string) ([]models.ObservedEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	events, err := DecodeEvents(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("Events loaded", "path", path, "count", len(events))
	return events, nil
}

func LoadCookies(path string) ([]models.ObservedCookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookies: %w", err)
	}
	defer f.Close()

	cookies, err := DecodeCookies(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("Cookies loaded", "path", path, "count", len(cookies))
	return cookies, nil
}
