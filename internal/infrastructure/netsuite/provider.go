package netsuite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/domain/erp"
	appconfig "github.com/vendorportal/backend/internal/infrastructure/config"
	"github.com/vendorportal/backend/internal/infrastructure/telemetry"
)

// ConfigSource returns the current NetSuite settings. It is consulted at the
// start of every sync run, so an operator's environment or credential switch
// takes effect on the next run without a process restart.
type ConfigSource func() (*appconfig.NetSuiteConfig, error)

// StaticConfig adapts already-loaded settings into a ConfigSource for
// callers that never reload, such as one-shot tools and tests.
func StaticConfig(cfg *appconfig.NetSuiteConfig) ConfigSource {
	return func() (*appconfig.NetSuiteConfig, error) { return cfg, nil }
}

// Provider builds a Gateway from the current settings at the start of every
// sync run. The rate limiter is shared across runs and sized once at
// startup, so a credential or environment switch never resets the request
// budget.
type Provider struct {
	source  ConfigSource
	limiter *RequestLimiter
	mapper  *Mapper
	logger  *zap.Logger
	metrics *telemetry.SyncMetrics
}

// NewProvider creates the gateway provider.
func NewProvider(source ConfigSource, logger *zap.Logger) (*Provider, error) {
	mapper, err := NewMapper()
	if err != nil {
		return nil, err
	}

	cfg, err := source()
	if err != nil {
		return nil, fmt.Errorf("netsuite: load settings: %w", err)
	}

	return &Provider{
		source:  source,
		limiter: NewRequestLimiter(cfg.RequestsPerMinute, cfg.MinRequestInterval),
		mapper:  mapper,
		logger:  logger,
	}, nil
}

// WithMetrics attaches the sync instrument set to gateways built from this
// provider.
func (p *Provider) WithMetrics(metrics *telemetry.SyncMetrics) *Provider {
	p.metrics = metrics
	return p
}

// Gateway re-reads the settings and builds a client for the environment that
// is active right now.
func (p *Provider) Gateway(ctx context.Context) (erp.Gateway, error) {
	appCfg, err := p.source()
	if err != nil {
		return nil, fmt.Errorf("netsuite: reload settings: %w", err)
	}

	cfg := ConfigFromCredentials(
		appCfg.ActiveCredentials(),
		appCfg.Environment,
		appCfg.RequestTimeout,
		appCfg.MaxRetries,
	)

	client, err := NewClient(cfg, p.limiter, p.mapper, p.logger)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		client = client.WithMetrics(p.metrics)
	}
	return client, nil
}

// Ensure Provider implements the provider port
var _ erp.GatewayProvider = (*Provider)(nil)
