package netsuite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appconfig "github.com/vendorportal/backend/internal/infrastructure/config"
)

func testNetSuiteSettings() *appconfig.NetSuiteConfig {
	return &appconfig.NetSuiteConfig{
		Environment: "sandbox",
		Production: appconfig.NetSuiteCredentials{
			AccountID:      "1234567",
			ConsumerKey:    "prod-ck",
			ConsumerSecret: "prod-cs",
			TokenID:        "prod-tid",
			TokenSecret:    "prod-ts",
		},
		Sandbox: appconfig.NetSuiteCredentials{
			AccountID:      "1234567_SB1",
			ConsumerKey:    "sb-ck",
			ConsumerSecret: "sb-cs",
			TokenID:        "sb-tid",
			TokenSecret:    "sb-ts",
		},
		RequestsPerMinute: 100,
	}
}

func TestProvider_GatewayReadsSettingsPerRun(t *testing.T) {
	settings := testNetSuiteSettings()
	var calls int
	source := func() (*appconfig.NetSuiteConfig, error) {
		calls++
		return settings, nil
	}

	provider, err := NewProvider(source, zap.NewNop())
	require.NoError(t, err)

	gw, err := provider.Gateway(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sandbox", gw.Environment())

	// An environment switch takes effect on the next run, no restart.
	settings.Environment = "production"
	gw, err = provider.Gateway(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "production", gw.Environment())

	// Once to size the limiter, once per gateway build.
	assert.Equal(t, 3, calls)
}

func TestProvider_SourceFailureSurfaces(t *testing.T) {
	settings := testNetSuiteSettings()
	fail := false
	source := func() (*appconfig.NetSuiteConfig, error) {
		if fail {
			return nil, errors.New("config file unreadable")
		}
		return settings, nil
	}

	provider, err := NewProvider(source, zap.NewNop())
	require.NoError(t, err)

	fail = true
	_, err = provider.Gateway(context.Background())
	require.ErrorContains(t, err, "config file unreadable")
}

func TestStaticConfig(t *testing.T) {
	settings := testNetSuiteSettings()

	provider, err := NewProvider(StaticConfig(settings), zap.NewNop())
	require.NoError(t, err)

	gw, err := provider.Gateway(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sandbox", gw.Environment())
}
