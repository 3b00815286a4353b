// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"trackerscope/internal/telemetry"
)

type ResolverConfig struct {
	Name string
	Addr string
}

var DefaultResolvers = []ResolverConfig{
	{Name: "Cloudflare", Addr: "1.1.1.1:53"},
	{Name: "Google", Addr: "8.8.8.8:53"},
	{Name: "Quad9", Addr: "9.9.9.9:53"},
}

const (
	defaultTimeout  = 2 * time.Second
	defaultMaxDepth = 8
	cnameCacheTTL   = 10 * time.Minute
	cnameCacheMax   = 10000
)

var ErrNoResolver = errors.New("no DNS resolver answered")

// Client resolves CNAME chains. First-party subdomains that alias a
// tracker's hostname ("CNAME cloaking") are uncloaked this way.
type Client struct {
	resolvers []ResolverConfig
	timeout   time.Duration
	maxDepth  int
	cache     *telemetry.TTLCache[[]string]
	Telemetry *telemetry.Registry
}

type Option func(*Client)

func WithResolvers(r []ResolverConfig) Option {
	return func(c *Client) { c.resolvers = r }
}

func WithTimeout(t time.Duration) Option {
	return func(c *Client) { c.timeout = t }
}

func WithTelemetry(r *telemetry.Registry) Option {
	return func(c *Client) { c.Telemetry = r }
}

func New(opts ...Option) *Client {
	c := &Client{
		resolvers: DefaultResolvers,
		timeout:   defaultTimeout,
		maxDepth:  defaultMaxDepth,
		cache:     telemetry.NewTTLCache[[]string]("cname", cnameCacheMax, cnameCacheTTL),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) CacheStats() telemetry.CacheStats {
	return c.cache.Stats()
}

// CNAMEChain follows CNAME records from host and returns the targets in
// order, lowercased and without the trailing dot. A host with no CNAME
// yields an empty chain. Loops and chains deeper than the configured limit
// are cut off.
func (c *Client) CNAMEChain(ctx context.Context, host string) ([]string, error) {
	host = NormalizeDomain(strings.TrimRight(host, "."))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" || net.ParseIP(host) != nil {
		return nil, nil
	}

	if cached, ok := c.cache.Get(host); ok {
		return cached, nil
	}

	var chain []string
	seen := map[string]bool{host: true}
	name := host
	for depth := 0; depth < c.maxDepth; depth++ {
		target, err := c.lookupCNAME(ctx, name)
		if err != nil {
			return nil, err
		}
		if target == "" || seen[target] {
			break
		}
		seen[target] = true
		chain = append(chain, target)
		name = target
	}

	c.cache.Set(host, chain)
	return chain, nil
}

func (c *Client) lookupCNAME(ctx context.Context, name string) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeCNAME)
	msg.RecursionDesired = true

	client := &dns.Client{Net: "udp", Timeout: c.timeout}

	var lastErr error
	for _, resolver := range c.resolvers {
		key := telemetry.SourceDNS + ":" + resolver.Name
		if c.Telemetry != nil && c.Telemetry.InCooldown(key) {
			continue
		}

		start := time.Now()
		r, _, err := client.ExchangeContext(ctx, msg, resolver.Addr)
		if err != nil {
			lastErr = err
			if c.Telemetry != nil {
				c.Telemetry.RecordFailure(key, err.Error())
			}
			slog.Debug("CNAME lookup failed", "resolver", resolver.Name, "name", name, "error", err)
			continue
		}
		if c.Telemetry != nil {
			c.Telemetry.RecordSuccess(key, time.Since(start))
		}

		if r.Rcode != dns.RcodeSuccess {
			return "", nil
		}
		for _, rr := range r.Answer {
			if cname, ok := rr.(*dns.CNAME); ok {
				return strings.ToLower(strings.TrimSuffix(cname.Target, ".")), nil
			}
		}
		return "", nil
	}

	if lastErr == nil {
		return "", ErrNoResolver
	}
	return "", fmt.Errorf("%w: %v", ErrNoResolver, lastErr)
}
