package smapi

import (
	"encoding/json"
	"fmt"
)

// Record is a single decoded API resource as a flexible key/value map.
type Record map[string]interface{}

// RecordSet is a collection of Records.
type RecordSet []Record

// Params is a map of request parameters for create/action bodies.
type Params map[string]interface{}

// ID returns the record's id field as a string, or "" if absent.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Name returns the record's name field as a string, or "" if absent.
func (r Record) Name() string {
	if name, ok := r["name"].(string); ok {
		return name
	}

	return ""
}

// ListResponse represents a collection response from the management API.
type ListResponse struct {
	Entries RecordSet `json:"entries"`
}
