// Package smclient constructs clients for the storage-management control
// plane. It validates configuration, normalizes the endpoint URL, and wires
// together the session manager, dispatcher, and entity operations defined in
// package smapi.
//
// The simplest entry points are NewWithPassword and NewWithToken; New accepts
// a full smapi.Config for timeouts, TLS, retries, logging, and caching.
// Configuration can also come from a YAML file plus SMAPI_* environment
// overrides via LoadConfig.
package smclient
