package constants

import (
	"strings"
	"time"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as version detection.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits, applied only when retries are explicitly enabled.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Session endpoints.
const (
	// APIPathVersion is the unauthenticated version-detection endpoint.
	APIPathVersion = "/api/version"

	// APIPathLoginV2 is the V2 basic-auth login endpoint.
	APIPathLoginV2 = "/api/login"

	// APIPathLogoutV2 is the V2 logout endpoint.
	APIPathLogoutV2 = "/api/logout"

	// APIPathLoginV3 is the V3 JSON login endpoint.
	APIPathLoginV3 = "/api/auth/login"

	// APIPathLogoutV3 is the V3 logout endpoint.
	APIPathLogoutV3 = "/api/auth/logout"
)

// Resource path templates. Placeholders are resolved per call by ExpandPath;
// the templates themselves are stateless and shared across all calls.
const (
	// PathTemplateInstances addresses an entity type's instance collection.
	PathTemplateInstances = "/types/{entity}/instances"

	// PathTemplateInstance addresses a single instance.
	PathTemplateInstance = "/instances/{entity}::{entity_id}"

	// PathTemplateRelated addresses instances related to an instance.
	PathTemplateRelated = "/instances/{entity}::{entity_id}/relationships/{related}"

	// PathTemplateInstanceAction addresses an action on a single instance.
	PathTemplateInstanceAction = "/instances/{entity}::{entity_id}/action/{action}"

	// PathTemplateTypeAction addresses an action on an entity type.
	PathTemplateTypeAction = "/types/{entity}/instances/action/{action}"
)

// ExpandPath resolves the named placeholders of a path template. Unknown
// placeholders are left intact so malformed paths fail visibly server-side
// instead of silently collapsing.
func ExpandPath(template string, params map[string]string) string {
	expanded := template
	for name, value := range params {
		expanded = strings.ReplaceAll(expanded, "{"+name+"}", value)
	}

	return expanded
}

// Cache sizing defaults.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute
)
