package http

import (
	"net"
	"strings"

	"git-integration/pkg/ratelimit"
)

const defaultMaxBodyBytes = 5 << 20

// SecurityConfig guards the public webhook endpoint before any signature work.
type SecurityConfig struct {
	// AllowedIPs accepts plain addresses and CIDR ranges. Empty allows everyone.
	AllowedIPs []string
	// RateLimitPerMin bounds deliveries per provider. Zero disables the limit.
	RateLimitPerMin int
	MaxBodyBytes    int64
}

type ingressGuard struct {
	ips      []net.IP
	networks []*net.IPNet
	limiter  *ratelimit.Limiter
	maxBody  int64
}

func newIngressGuard(cfg SecurityConfig) *ingressGuard {
	g := &ingressGuard{maxBody: cfg.MaxBodyBytes}
	if g.maxBody <= 0 {
		g.maxBody = defaultMaxBodyBytes
	}
	for _, raw := range cfg.AllowedIPs {
		raw = strings.TrimSpace(raw)
		if strings.Contains(raw, "/") {
			if _, ipNet, err := net.ParseCIDR(raw); err == nil {
				g.networks = append(g.networks, ipNet)
			}
			continue
		}
		if ip := net.ParseIP(raw); ip != nil {
			g.ips = append(g.ips, ip)
		}
	}
	if cfg.RateLimitPerMin > 0 {
		g.limiter = ratelimit.PerMinute(cfg.RateLimitPerMin)
	}
	return g
}

func (g *ingressGuard) restricted() bool {
	return len(g.ips) > 0 || len(g.networks) > 0
}

// allowIP reports whether the client address is whitelisted.
func (g *ingressGuard) allowIP(addr string) bool {
	if !g.restricted() {
		return true
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, allowed := range g.ips {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, n := range g.networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (g *ingressGuard) allowRate(key string) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Allow(key)
}
