// Package setup builds the provider registry and outbound budgets from
// configuration. It lives apart from package provider because it imports
// every strategy.
package setup

import (
	"context"
	"fmt"

	"git-integration/config"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/internal/provider/bitbucket"
	"git-integration/internal/provider/github"
	"git-integration/internal/provider/gitlab"
	"git-integration/pkg/log"
	"git-integration/pkg/ratelimit"
)

type strategyFactory func(provider.Config) (provider.Strategy, error)

var factories = map[model.Provider]strategyFactory{
	model.ProviderGitHub:    github.New,
	model.ProviderGitLab:    gitlab.New,
	model.ProviderBitbucket: bitbucket.New,
}

// Build constructs a strategy and an outbound budget for every
// enabled provider.
func Build(ctx context.Context, cfg *config.Config, logger log.Logger) (*provider.Registry, map[model.Provider]*ratelimit.Limiter, error) {
	var strategies []provider.Strategy
	limiters := make(map[model.Provider]*ratelimit.Limiter)

	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		p := model.ParseProvider(name)
		factory, ok := factories[p]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", provider.ErrUnknownProvider, name)
		}

		s, err := factory(provider.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			AuthURL:      pc.AuthURL,
			TokenURL:     pc.TokenURL,
			APIURL:       pc.APIURL,
			Scopes:       pc.Scopes,
			Timeout:      cfg.Sync.RequestTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("provider %s: %w", name, err)
		}
		strategies = append(strategies, s)

		if pc.RateLimitPerHour > 0 {
			limiters[p] = ratelimit.PerHour(pc.RateLimitPerHour, pc.Burst)
		}
		logger.Infof(ctx, "Provider %s enabled (rate limit %d/h)", p, pc.RateLimitPerHour)
	}

	registry, err := provider.NewRegistry(strategies...)
	if err != nil {
		return nil, nil, err
	}
	return registry, limiters, nil
}
