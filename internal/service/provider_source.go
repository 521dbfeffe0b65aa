package service

import (
	"context"
	"fmt"
	"time"

	"polyglot/internal/network"
	"polyglot/internal/service/ai"
)

// ProviderSource builds the translation provider for the current settings.
type ProviderSource interface {
	Provider(ctx context.Context) (ai.Provider, error)
}

type providerSource struct {
	settings SettingsService
	clients  *network.ClientFactory
	timeout  time.Duration
}

// NewProviderSource returns a ProviderSource that reads settings on every
// call, so changes made through the settings API apply to the next request.
func NewProviderSource(settings SettingsService, clients *network.ClientFactory, timeout time.Duration) ProviderSource {
	return &providerSource{settings: settings, clients: clients, timeout: timeout}
}

func (p *providerSource) Provider(ctx context.Context) (ai.Provider, error) {
	cfg, err := p.settings.AIConfig(ctx)
	if err != nil {
		return nil, err
	}
	if p.clients != nil {
		cfg.HTTPClient = p.clients.NewHTTPClient(ctx, p.timeout)
	}
	provider, err := ai.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return provider, nil
}
