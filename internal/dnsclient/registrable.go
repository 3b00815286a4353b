// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dnsclient

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SuffixSplit is a host broken into subdomain, registrable label and
// public suffix. Any part may be empty.
type SuffixSplit struct {
	Subdomain string
	Domain    string
	Suffix    string
}

type SuffixResolver interface {
	Split(host string) (SuffixSplit, error)
}

// PublicSuffixResolver splits hosts with the Public Suffix List compiled
// into golang.org/x/net/publicsuffix.
type PublicSuffixResolver struct{}

// IP literals are returned whole. Hosts that only match the list's implicit
// "*" rule (localhost, .internal, unknown TLDs) reduce to their last label.
func (PublicSuffixResolver) Split(host string) (SuffixSplit, error) {
	if net.ParseIP(host) != nil {
		return SuffixSplit{Domain: host}, nil
	}

	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann && !strings.Contains(suffix, ".") {
		return SuffixSplit{Domain: suffix}, nil
	}
	if suffix == host {
		return SuffixSplit{Suffix: suffix}, nil
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return SuffixSplit{}, fmt.Errorf("public suffix lookup for %q: %w", host, err)
	}

	split := SuffixSplit{
		Domain: strings.TrimSuffix(registrable, "."+suffix),
		Suffix: suffix,
	}
	if host != registrable {
		split.Subdomain = strings.TrimSuffix(host, "."+registrable)
	}
	return split, nil
}

// HeuristicResolver treats the last label as the suffix. It never fails.
type HeuristicResolver struct{}

func (HeuristicResolver) Split(host string) (SuffixSplit, error) {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return SuffixSplit{Domain: host}, nil
	}
	n := len(labels)
	return SuffixSplit{
		Subdomain: strings.Join(labels[:n-2], "."),
		Domain:    labels[n-2],
		Suffix:    labels[n-1],
	}, nil
}

// Registrable reduces hosts to their registrable domain (eTLD+1). The
// classifiers do not use it; it serves callers that group by site.
type Registrable struct {
	Resolver SuffixResolver
}

func NewRegistrable(useSuffixList bool) *Registrable {
	if useSuffixList {
		return &Registrable{Resolver: PublicSuffixResolver{}}
	}
	return &Registrable{Resolver: HeuristicResolver{}}
}

func (r *Registrable) Domain(domain string) string {
	host := NormalizeDomain(domain)
	if host == "" {
		return ""
	}

	resolver := r.Resolver
	if resolver == nil {
		resolver = HeuristicResolver{}
	}

	split, err := resolver.Split(host)
	if err != nil {
		split, _ = HeuristicResolver{}.Split(host)
	}

	switch {
	case split.Domain != "" && split.Suffix != "":
		return split.Domain + "." + split.Suffix
	case split.Domain != "":
		return split.Domain
	default:
		return host
	}
}
