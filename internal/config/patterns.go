// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"trackerscope/internal/classifier"
)

type cookiePatternsFile struct {
	Patterns classifier.CookiePatternTable `yaml:"patterns"`
}

// LoadCookiePatterns returns the built-in table when path is empty, and
// otherwise reads a YAML file of the form
//
//	patterns:
//	  - category: analytics
//	    prefixes: [_ga, _gid]
//
// The list form keeps category order, which decides overlapping prefixes.
func LoadCookiePatterns(path string) (classifier.CookiePatternTable, error) {
	if path == "" {
		return classifier.DefaultCookiePatterns(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookie patterns: %w", err)
	}

	var file cookiePatternsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse cookie patterns %s: %w", path, err)
	}
	if len(file.Patterns) == 0 {
		return nil, fmt.Errorf("cookie patterns %s: no patterns defined", path)
	}

	for i, p := range file.Patterns {
		if p.Category == "" {
			return nil, fmt.Errorf("cookie patterns %s: entry %d has no category", path, i)
		}
		for j, prefix := range p.Prefixes {
			file.Patterns[i].Prefixes[j] = strings.ToLower(prefix)
		}
	}
	return file.Patterns, nil
}
