// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"trackerscope/internal/models"
)

const (
	flagTracking = "⚠"
	flagClean    = "✓"
	noMatch      = "none"
)

type consoleTheme struct {
	title    lipgloss.Style
	tracking lipgloss.Style
	clean    lipgloss.Style
	faint    lipgloss.Style
}

func newConsoleTheme(w io.Writer) consoleTheme {
	r := lipgloss.NewRenderer(w)
	return consoleTheme{
		title:    r.NewStyle().Bold(true),
		tracking: r.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		clean:    r.NewStyle().Foreground(lipgloss.Color("42")),
		faint:    r.NewStyle().Faint(true),
	}
}

// WriteCookieSummary prints one line per cookie:
//
//	⚠ _ga (.google-analytics.com) Score=90 Type=analytics EasyPrivacy=google-analytics.com
//
// A missing blocklist match renders as "none". Styling is dropped when w
// is not a terminal.
func WriteCookieSummary(w io.Writer, results []models.CookieResult, reportPath string) error {
	theme := newConsoleTheme(w)

	if _, err := fmt.Fprintf(w, "\n%s\n", theme.title.Render("=== Analysis result ===")); err != nil {
		return err
	}
	for _, r := range results {
		flag := theme.clean.Render(flagClean)
		if r.LikelyTracking {
			flag = theme.tracking.Render(flagTracking)
		}
		match := noMatch
		if r.EasyPrivacyDomainMatch != nil {
			match = *r.EasyPrivacyDomainMatch
		}
		if _, err := fmt.Fprintf(w, "%s %s (%s) Score=%d Type=%s EasyPrivacy=%s\n",
			flag, r.CookieName, r.CookieDomain, r.TrackingScore, r.NameCategory, match); err != nil {
			return err
		}
	}
	if reportPath != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", theme.faint.Render("Report written: "+reportPath)); err != nil {
			return err
		}
	}
	return nil
}
