package smclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidewater-io/smapi/internal/client"
	"github.com/tidewater-io/smapi/pkg/smapi"
)

// New creates a new management API client from the given configuration. The
// constructor performs no network I/O; version detection and login happen
// lazily on the first call, or eagerly via EnsureSession.
func New(ctx context.Context, config *smapi.Config) (smapi.Client, error) {
	if config == nil {
		return nil, smapi.ErrConfigRequired
	}

	if config.Host == "" {
		return nil, smapi.ErrHostRequired
	}

	if config.AccessToken == "" && (config.Username == "" || config.Password == "") {
		return nil, smapi.ErrCredentialsRequired
	}

	return client.New(ctx, config, normalizeEndpoint(config))
}

// NewWithPassword creates a client using username/password credentials.
func NewWithPassword(ctx context.Context, host, username, password string) (smapi.Client, error) {
	return New(ctx, &smapi.Config{
		Host:      host,
		Username:  username,
		Password:  password,
		VerifyTLS: true,
	})
}

// NewWithToken creates a client that reuses an established V3 bearer token.
func NewWithToken(ctx context.Context, host, token string) (smapi.Client, error) {
	return New(ctx, &smapi.Config{
		Host:        host,
		AccessToken: token,
		VerifyTLS:   true,
	})
}

// normalizeEndpoint turns the configured host and port into a base URL with a
// scheme and no trailing slash. HTTPS is assumed unless the host spells out
// another scheme.
func normalizeEndpoint(config *smapi.Config) string {
	endpoint := strings.TrimRight(config.Host, "/")

	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	if config.Port > 0 {
		endpoint = fmt.Sprintf("%s:%d", endpoint, config.Port)
	}

	return endpoint
}
