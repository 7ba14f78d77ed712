package smapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies an API failure by the operation that produced it.
type ErrorKind string

const (
	ErrorKindAuthenticationFailed ErrorKind = "authentication_failed"
	ErrorKindNotFound             ErrorKind = "not_found"
	ErrorKindCreateFailed         ErrorKind = "create_failed"
	ErrorKindDeleteFailed         ErrorKind = "delete_failed"
	ErrorKindRenameFailed         ErrorKind = "rename_failed"
	ErrorKindOperationFailed      ErrorKind = "operation_failed"
	ErrorKindQueryFailed          ErrorKind = "query_failed"
	ErrorKindTransportFailed      ErrorKind = "transport_failed"
)

// Error represents a failure reported by the management API or the transport
// beneath it. Payload carries the server-provided error body verbatim so
// callers can diagnose the original failure.
type Error struct {
	Kind       ErrorKind
	Entity     string
	ID         string
	StatusCode int
	Message    string
	Payload    []byte
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && len(e.Payload) > 0 {
		msg = string(e.Payload)
	}

	switch {
	case e.Entity != "" && e.ID != "":
		return fmt.Sprintf("%s: %s %s: %s (status: %d)", e.Kind, e.Entity, e.ID, msg, e.StatusCode)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s: %s (status: %d)", e.Kind, e.Entity, msg, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s (status: %d)", e.Kind, msg, e.StatusCode)
	}
}

// errorPayload is the JSON shape the management API uses for error bodies.
type errorPayload struct {
	Error struct {
		Message  string   `json:"message"`
		Messages []string `json:"messages"`
	} `json:"error"`
	Message string `json:"message"`
}

// NewError builds an Error from a raw server error body. JSON-shaped payloads
// contribute their message; anything else is carried as raw text.
func NewError(kind ErrorKind, statusCode int, payload []byte) *Error {
	apiErr := &Error{
		Kind:       kind,
		StatusCode: statusCode,
		Payload:    payload,
	}

	var parsed errorPayload
	if err := json.Unmarshal(payload, &parsed); err == nil {
		switch {
		case parsed.Error.Message != "":
			apiErr.Message = parsed.Error.Message
		case len(parsed.Error.Messages) > 0:
			apiErr.Message = parsed.Error.Messages[0]
		case parsed.Message != "":
			apiErr.Message = parsed.Message
		}
	}

	return apiErr
}

// Static errors for local validation failures.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrHostRequired        = errors.New("host is required")
	ErrCredentialsRequired = errors.New("username and password are required")
	ErrEntityRequired      = errors.New("entity type is required")
	ErrEntityIDRequired    = errors.New("entity id is required")
	ErrActionRequired      = errors.New("action name is required")
	ErrFilterWithID        = errors.New("filter cannot be combined with an entity id")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrUnknownAPIVersion   = errors.New("unknown API version")
	ErrMissingIDInResponse = errors.New("create response did not contain an id")
)

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasKind(err, ErrorKindNotFound)
}

// IsAuthenticationFailed checks if the error is an authentication failure.
func IsAuthenticationFailed(err error) bool {
	return hasKind(err, ErrorKindAuthenticationFailed)
}

// IsTransportFailed checks if the error is a transport-level failure.
func IsTransportFailed(err error) bool {
	return hasKind(err, ErrorKindTransportFailed)
}

func hasKind(err error, kind ErrorKind) bool {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}

	return false
}
