// Package smapi provides types, interfaces, and helpers for working with the
// storage-management control-plane REST API.
//
// # Overview
//
// The smapi package defines the public client surface: the Client and
// EntitiesOperations interfaces, the Config used to construct a client, typed
// API errors, and the flexible Record/Params result model. A concrete
// implementation is provided by the smclient package, which wires
// configuration, transport, authentication, and session lifecycle. Most
// consumers should import smclient to construct a client and then interact
// with the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/tidewater-io/smapi/pkg/smapi"
//	  "github.com/tidewater-io/smapi/pkg/smclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := smclient.New(ctx, &smapi.Config{
//	    Host:     "array.example.com",
//	    Username: "admin",
//	    Password: "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  vol, err := cli.Entities().Get(ctx, "volume", "vol-42", nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = vol
//	}
//
// # Sessions
//
// The client detects the backend API version (V2 or V3) on first use and logs
// in with the protocol that version requires. An expired token is discovered
// via a 401 response and refreshed by exactly one re-login followed by one
// retry of the failed call; a second 401 surfaces as AuthenticationFailed.
//
// # Errors
//
// API failures are represented by *Error carrying a kind (NotFound,
// CreateFailed, TransportFailed, ...), the resource name and id, and the raw
// server error payload verbatim. Helpers such as IsNotFound and
// IsAuthenticationFailed make it easy to branch on common cases.
//
// # Queries and projection
//
// QueryParams expresses collection filters and pagination. Field projection
// (WithFields) is applied client-side after decoding and never changes the
// request that is sent; combining a filter with an instance id is rejected
// locally before any network call.
package smapi
