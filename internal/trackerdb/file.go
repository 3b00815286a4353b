// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package trackerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FileSource reads a tracker database export. Both the Ghostery trackerdb
// layout ("patterns" keyed by id, "organization") and the WhoTracks.me one
// ("trackers" keyed by id, "company_id") are accepted. Ids keep the order
// they have in the file.
type FileSource struct {
	ids      []string
	trackers map[string]Tracker
}

type rawTracker struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Organization *string  `json:"organization"`
	CompanyID    *string  `json:"company_id"`
	Domains      []string `json:"domains"`
}

func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	defer f.Close()

	src, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return src, nil
}

func Decode(r io.Reader) (*FileSource, error) {
	src := &FileSource{trackers: make(map[string]Tracker)}
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	found := false
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "patterns", "trackers":
			found = true
			if err := src.readTrackers(dec); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("no \"patterns\" or \"trackers\" object")
	}
	return src, nil
}

func (s *FileSource) readTrackers(dec *json.Decoder) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		id, err := readKey(dec)
		if err != nil {
			return err
		}
		var raw rawTracker
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("tracker %q: %w", id, err)
		}

		company := raw.CompanyID
		if company == nil {
			company = raw.Organization
		}
		if _, seen := s.trackers[id]; !seen {
			s.ids = append(s.ids, id)
		}
		s.trackers[id] = Tracker{
			ID:        id,
			Name:      raw.Name,
			Domains:   raw.Domains,
			CompanyID: company,
			Category:  raw.Category,
		}
	}
	return expectDelim(dec, '}')
}

func (s *FileSource) Snapshot(context.Context) ([]string, error) {
	return s.ids, nil
}

func (s *FileSource) Tracker(id string) (Tracker, bool) {
	t, ok := s.trackers[id]
	return t, ok
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}
