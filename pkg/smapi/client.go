package smapi

import (
	"context"
	"time"
)

// APIVersion identifies the authentication protocol spoken by the backend.
type APIVersion int

const (
	// APIVersionUnknown means the backend has not been classified yet.
	APIVersionUnknown APIVersion = 0

	// APIVersionV2 backends use basic-auth login and a session token.
	APIVersionV2 APIVersion = 2

	// APIVersionV3 backends use a JSON login endpoint with bearer tokens.
	APIVersionV3 APIVersion = 3
)

// String implements fmt.Stringer.
func (v APIVersion) String() string {
	switch v {
	case APIVersionV2:
		return "v2"
	case APIVersionV3:
		return "v3"
	default:
		return "unknown"
	}
}

// EntitiesOperations exposes the generic verbs over named resource types.
type EntitiesOperations interface {
	// Create creates an instance and returns its full representation.
	Create(ctx context.Context, entity string, params Params) (Record, error)

	// Get fetches a single instance by id, applying any field projection.
	Get(ctx context.Context, entity, id string, query *QueryParams) (Record, error)

	// List fetches the instance collection, honoring filter and projection.
	List(ctx context.Context, entity string, query *QueryParams) (RecordSet, error)

	// GetRelated fetches instances related to the given instance.
	GetRelated(ctx context.Context, entity, id, related string, query *QueryParams) (RecordSet, error)

	// Delete removes an instance.
	Delete(ctx context.Context, entity, id string) error

	// Rename renames an instance and returns the updated representation.
	Rename(ctx context.Context, entity, id, newName string) (Record, error)

	// PerformAction invokes a named action on an instance.
	PerformAction(ctx context.Context, entity, id, action string, params Params) (Record, error)

	// QueryStatistics runs an aggregate statistics query over an entity type.
	QueryStatistics(ctx context.Context, entity, action string, params Params) (Record, error)
}

// Client is the public surface of the management API client.
type Client interface {
	// EnsureSession authenticates if needed and returns the detected version.
	EnsureSession(ctx context.Context) (APIVersion, error)

	// Logout invalidates the server-side token and clears local session state.
	Logout(ctx context.Context) error

	// APIVersion returns the currently detected version, if any.
	APIVersion() APIVersion

	// Entities returns the generic entity operations.
	Entities() EntitiesOperations
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a smapi.Client. It is
// supplied once at construction and never mutated afterwards.
//
// # Authentication
//
// Username and Password are required; the protocol used with them depends on
// the API version detected from the backend. AccessToken may be supplied to
// seed an already-established V3 session (the token is still replaced through
// the normal re-login path if the server rejects it).
//
// # Timeouts, retries, and TLS
//
// Timeout applies uniformly to version detection, login, logout, and entity
// calls. RetryMax defaults to 0: no request is retried automatically except
// the single 401-driven re-authentication; set it explicitly to opt in to
// transient-failure retries (5xx, 429, connection errors).
type Config struct {
	// Host is the management endpoint address (hostname or IP). A full URL
	// with scheme is also accepted.
	Host string
	// Port is the management port; 0 means the scheme default.
	Port int

	// Username for login.
	Username string
	// Password for login.
	Password string
	// AccessToken optionally seeds a V3 bearer session.
	AccessToken string

	// VerifyTLS controls certificate verification.
	VerifyTLS bool
	// CACertPath optionally points at a PEM bundle used for verification.
	CACertPath string

	// Timeout is the per-request timeout. Zero selects the default.
	Timeout time.Duration

	// RetryMax is the maximum number of automatic retries for transient
	// failures. Zero disables them.
	RetryMax int
	// RetryWaitMin is the minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between retries.
	RetryWaitMax time.Duration

	// Debug enables verbose HTTP logging when a Logger is provided.
	Debug bool
	// Logger is an optional structured logger.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Cache optionally configures the GET-response cache.
	Cache *CacheConfig
}
