// Package client implements the concrete management API client: it wires the
// session manager, the dispatcher, and the generic entity operations together
// behind the public smapi.Client interface.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/tidewater-io/smapi/internal/auth"
	"github.com/tidewater-io/smapi/internal/constants"
	internalhttp "github.com/tidewater-io/smapi/internal/http"
	"github.com/tidewater-io/smapi/pkg/smapi"
)

// Client is the concrete implementation of smapi.Client.
type Client struct {
	baseURL    string
	session    *auth.Manager
	httpClient *internalhttp.Client
	entities   *EntitiesClient
	logger     smapi.Logger
}

// New creates a client for the endpoint at baseURL. The endpoint must already
// be normalized (scheme, host, port, no trailing slash); smclient.New does
// that from a smapi.Config before calling here.
func New(ctx context.Context, config *smapi.Config, baseURL string) (*Client, error) {
	tlsConfig, err := buildTLSConfig(config)
	if err != nil {
		return nil, err
	}

	session := auth.NewManager(baseURL, &auth.Config{
		Username:    config.Username,
		Password:    config.Password,
		AccessToken: config.AccessToken,
		Timeout:     config.Timeout,
		TLSConfig:   tlsConfig,
		UserAgent:   config.UserAgent,
	})

	opts := []internalhttp.Option{
		internalhttp.WithUserAgent(config.UserAgent),
		internalhttp.WithDebug(config.Debug),
	}

	if config.Logger != nil {
		opts = append(opts, internalhttp.WithLogger(config.Logger))
	}

	if config.Timeout > 0 {
		opts = append(opts, internalhttp.WithTimeout(config.Timeout))
	}

	if tlsConfig != nil {
		opts = append(opts, internalhttp.WithTLSConfig(tlsConfig))
	}

	if config.RetryMax > 0 {
		waitMin := config.RetryWaitMin
		if waitMin == 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		waitMax := config.RetryWaitMax
		if waitMax == 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		opts = append(opts, internalhttp.WithRetryConfig(config.RetryMax, waitMin, waitMax))
	}

	if config.Cache != nil && config.Cache.Type != smapi.CacheTypeNone {
		cache, err := smapi.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("configuring cache: %w", err)
		}

		ttl := constants.DefaultCacheTTL
		if config.Cache.Options != nil && config.Cache.Options.TTL > 0 {
			ttl = config.Cache.Options.TTL
		}

		opts = append(opts, internalhttp.WithCache(cache, ttl))
	}

	httpClient := internalhttp.NewClient(baseURL, session, opts...)

	client := &Client{
		baseURL:    baseURL,
		session:    session,
		httpClient: httpClient,
		entities:   NewEntitiesClient(httpClient),
		logger:     config.Logger,
	}

	return client, nil
}

// EnsureSession authenticates if needed and returns the detected version.
func (c *Client) EnsureSession(ctx context.Context) (smapi.APIVersion, error) {
	version, err := c.session.EnsureSession(ctx)
	if err != nil {
		return smapi.APIVersionUnknown, err
	}

	if c.logger != nil {
		c.logger.Debug("session established", map[string]interface{}{
			"endpoint":    c.baseURL,
			"api_version": version.String(),
		})
	}

	return version, nil
}

// Logout invalidates the server-side token and clears local session state.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// APIVersion returns the currently detected version, if any.
func (c *Client) APIVersion() smapi.APIVersion {
	return c.session.Version()
}

// Entities returns the generic entity operations.
func (c *Client) Entities() smapi.EntitiesOperations {
	return c.entities
}

// buildTLSConfig translates the verification settings into a tls.Config. A
// nil result means the default transport policy applies.
func buildTLSConfig(config *smapi.Config) (*tls.Config, error) {
	if config.VerifyTLS && config.CACertPath == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !config.VerifyTLS,
	}

	if config.CACertPath != "" {
		pem, err := os.ReadFile(config.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("reading CA certificate %s: %w", config.CACertPath, err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", config.CACertPath)
		}

		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
