// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package classifier

import (
	"strings"

	"trackerscope/internal/models"
)

// CookiePattern lists the name prefixes that put a cookie in Category.
type CookiePattern struct {
	Category models.NameCategory `yaml:"category" json:"category"`
	Prefixes []string            `yaml:"prefixes" json:"prefixes"`
}

// CookiePatternTable is evaluated top to bottom; the first category with a
// matching prefix wins, so entry order decides overlaps.
type CookiePatternTable []CookiePattern

func DefaultCookiePatterns() CookiePatternTable {
	return CookiePatternTable{
		{Category: models.CategoryAnalytics, Prefixes: []string{"_ga", "_gid", "_gat", "_gac_", "_gcl_", "_utm"}},
		{Category: models.CategoryAds, Prefixes: []string{"_fbp", "ide", "_uet", "_tt_", "_scid"}},
		{Category: models.CategorySocial, Prefixes: []string{"fr", "xs", "c_user"}},
	}
}

// Classify returns the category of the first entry with a prefix of the
// lowercased name, or CategoryUnknown.
func (t CookiePatternTable) Classify(name string) models.NameCategory {
	lname := strings.ToLower(name)
	for _, entry := range t {
		for _, prefix := range entry.Prefixes {
			if strings.HasPrefix(lname, prefix) {
				return entry.Category
			}
		}
	}
	return models.CategoryUnknown
}
