// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dnsclient

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var asciiHostRegex = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)

// ExtractDomain returns the lowercased authority host of rawURL, port
// included. Malformed escapes after the authority are ignored; a malformed
// authority yields "".
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err == nil {
		return strings.ToLower(parsed.Host)
	}

	i := strings.Index(rawURL, "//")
	if i < 0 {
		return ""
	}
	authority := rawURL[i+2:]
	if j := strings.IndexAny(authority, "/?#"); j >= 0 {
		authority = authority[:j]
	}
	parsed, err = url.Parse(rawURL[:i+2] + authority)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// NormalizeDomain strips leading dots and lowercases. Cookie domains use a
// leading dot for domain scope; that distinction is dropped here.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimLeft(domain, "."))
}

// DomainMatch reports whether domain equals reference or is a subdomain of
// it. The test is not symmetric.
func DomainMatch(domain, reference string) bool {
	domain = NormalizeDomain(domain)
	reference = NormalizeDomain(reference)
	return domain == reference || strings.HasSuffix(domain, "."+reference)
}

func DomainToASCII(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimRight(domain, ".")

	p := idna.New(idna.MapForLookup(), idna.Transitional(false))
	ascii, err := p.ToASCII(domain)
	if err != nil {
		if asciiHostRegex.MatchString(domain) {
			for _, label := range strings.Split(domain, ".") {
				if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
					return "", err
				}
			}
			return strings.ToLower(domain), nil
		}
		return "", err
	}
	return ascii, nil
}
