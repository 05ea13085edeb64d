package netsuite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	appconfig "github.com/vendorportal/backend/internal/infrastructure/config"
)

// Config holds connection settings for one NetSuite account. One Config is
// built per sync run from the currently selected environment so credential
// or environment changes take effect without a restart.
type Config struct {
	// AccountID is the NetSuite account id, e.g. "1234567" or "1234567_SB1".
	AccountID string
	// ConsumerKey identifies the integration record.
	ConsumerKey string
	// ConsumerSecret signs requests together with TokenSecret.
	ConsumerSecret string
	// TokenID identifies the access token issued for the integration.
	TokenID string
	// TokenSecret signs requests together with ConsumerSecret.
	TokenSecret string
	// BaseURL is the REST API root. Derived from AccountID when empty.
	BaseURL string
	// Environment is "production" or "sandbox", carried into audit logs.
	Environment string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
	// MaxRetries bounds retry attempts for throttled and transient failures.
	MaxRetries int
}

// Errors for NetSuite configuration
var (
	ErrConfigMissingAccountID      = errors.New("netsuite: account id is required")
	ErrConfigMissingConsumerKey    = errors.New("netsuite: consumer key is required")
	ErrConfigMissingConsumerSecret = errors.New("netsuite: consumer secret is required")
	ErrConfigMissingTokenID        = errors.New("netsuite: token id is required")
	ErrConfigMissingTokenSecret    = errors.New("netsuite: token secret is required")
)

// ConfigFromCredentials builds a per-run Config from the application's
// credential set for the given environment.
func ConfigFromCredentials(creds appconfig.NetSuiteCredentials, environment string, timeout time.Duration, maxRetries int) *Config {
	return &Config{
		AccountID:      creds.AccountID,
		ConsumerKey:    creds.ConsumerKey,
		ConsumerSecret: creds.ConsumerSecret,
		TokenID:        creds.TokenID,
		TokenSecret:    creds.TokenSecret,
		BaseURL:        creds.BaseURL,
		Environment:    environment,
		TimeoutSeconds: int(timeout.Seconds()),
		MaxRetries:     maxRetries,
	}
}

// Validate validates the configuration and fills derivable defaults.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return ErrConfigMissingAccountID
	}
	if c.ConsumerKey == "" {
		return ErrConfigMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrConfigMissingConsumerSecret
	}
	if c.TokenID == "" {
		return ErrConfigMissingTokenID
	}
	if c.TokenSecret == "" {
		return ErrConfigMissingTokenSecret
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL(c.AccountID)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return nil
}

// defaultBaseURL derives the account-specific REST API root. NetSuite hosts
// each account under its own subdomain; underscores in sandbox account ids
// become hyphens in the hostname.
func defaultBaseURL(accountID string) string {
	host := strings.ToLower(strings.ReplaceAll(accountID, "_", "-"))
	return fmt.Sprintf("https://%s.suitetalk.api.netsuite.com/services/rest/record/v1", host)
}
