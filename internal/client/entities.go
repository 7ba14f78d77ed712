package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"unicode"

	"github.com/tidewater-io/smapi/internal/constants"
	internalhttp "github.com/tidewater-io/smapi/internal/http"
	"github.com/tidewater-io/smapi/pkg/smapi"
)

// EntitiesClient implements smapi.EntitiesOperations: generic verbs over
// arbitrary named resource types, each a thin composition over the dispatcher
// with resource-specific error tagging.
type EntitiesClient struct {
	httpClient *internalhttp.Client
}

// NewEntitiesClient creates a new EntitiesClient.
func NewEntitiesClient(httpClient *internalhttp.Client) *EntitiesClient {
	return &EntitiesClient{httpClient: httpClient}
}

// Create creates an instance of the entity type and returns its full
// representation, fetched by the id the server assigned.
func (c *EntitiesClient) Create(ctx context.Context, entity string, params smapi.Params) (smapi.Record, error) {
	if entity == "" {
		return nil, smapi.ErrEntityRequired
	}

	path := constants.ExpandPath(constants.PathTemplateInstances, map[string]string{
		"entity": entity,
	})

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     params,
		FailKind: smapi.ErrorKindCreateFailed,
		Entity:   entity,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", entity, err)
	}

	created, err := decodeRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing create response for %s: %w", entity, err)
	}

	id := created.ID()
	if id == "" {
		return nil, &smapi.Error{
			Kind:       smapi.ErrorKindCreateFailed,
			Entity:     entity,
			StatusCode: resp.StatusCode,
			Message:    smapi.ErrMissingIDInResponse.Error(),
			Payload:    resp.Body,
		}
	}

	return c.Get(ctx, entity, id, nil)
}

// Get fetches a single instance by id. A filter is only meaningful for
// collection queries, so combining one with an id fails fast locally.
func (c *EntitiesClient) Get(ctx context.Context, entity, id string, query *smapi.QueryParams) (smapi.Record, error) {
	if entity == "" {
		return nil, smapi.ErrEntityRequired
	}

	if id == "" {
		return nil, smapi.ErrEntityIDRequired
	}

	if query != nil && query.Filter != "" {
		return nil, smapi.ErrFilterWithID
	}

	path := constants.ExpandPath(constants.PathTemplateInstance, map[string]string{
		"entity":    entity,
		"entity_id": id,
	})

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query.ToValues(),
		Entity: entity,
		ID:     id,
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", entity, err)
	}

	record, err := decodeRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", entity, err)
	}

	return query.Project(record), nil
}

// List fetches the instance collection of an entity type.
func (c *EntitiesClient) List(ctx context.Context, entity string, query *smapi.QueryParams) (smapi.RecordSet, error) {
	if entity == "" {
		return nil, smapi.ErrEntityRequired
	}

	path := constants.ExpandPath(constants.PathTemplateInstances, map[string]string{
		"entity": entity,
	})

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query.ToValues(),
		Entity: entity,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", entity, err)
	}

	records, err := decodeRecordSet(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s list response: %w", entity, err)
	}

	return query.ProjectSet(records), nil
}

// GetRelated fetches instances related to the given instance.
func (c *EntitiesClient) GetRelated(ctx context.Context, entity, id, related string, query *smapi.QueryParams) (smapi.RecordSet, error) {
	if entity == "" {
		return nil, smapi.ErrEntityRequired
	}

	if id == "" {
		return nil, smapi.ErrEntityIDRequired
	}

	if related == "" {
		return nil, smapi.ErrEntityRequired
	}

	path := constants.ExpandPath(constants.PathTemplateRelated, map[string]string{
		"entity":    entity,
		"entity_id": id,
		"related":   related,
	})

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query.ToValues(),
		Entity: entity,
		ID:     id,
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s related to %s: %w", related, entity, err)
	}

	records, err := decodeRecordSet(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s relationships response: %w", entity, err)
	}

	return query.ProjectSet(records), nil
}

// Delete removes an instance via the entity's remove action.
func (c *EntitiesClient) Delete(ctx context.Context, entity, id string) error {
	if entity == "" {
		return smapi.ErrEntityRequired
	}

	if id == "" {
		return smapi.ErrEntityIDRequired
	}

	path := constants.ExpandPath(constants.PathTemplateInstanceAction, map[string]string{
		"entity":    entity,
		"entity_id": id,
		"action":    "remove" + capitalize(entity),
	})

	_, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPost,
		Path:     path,
		FailKind: smapi.ErrorKindDeleteFailed,
		Entity:   entity,
		ID:       id,
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", entity, err)
	}

	return nil
}

// Rename renames an instance and returns the updated representation.
func (c *EntitiesClient) Rename(ctx context.Context, entity, id, newName string) (smapi.Record, error) {
	if entity == "" {
		return nil, smapi.ErrEntityRequired
	}

	if id == "" {
		return nil, smapi.ErrEntityIDRequired
	}

	path := constants.ExpandPath(constants.PathTemplateInstanceAction, map[string]string{
		"entity":    entity,
		"entity_id": id,
		"action":    "rename",
	})

	_, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     smapi.Params{"name": newName},
		FailKind: smapi.ErrorKindRenameFailed,
		Entity:   entity,
		ID:       id,
	})
	if err != nil {
		return nil, fmt.Errorf("renaming %s: %w", entity, err)
	}

	return c.Get(ctx, entity, id, nil)
}

// PerformAction invokes a named action on an instance.
func (c *EntitiesClient) PerformAction(ctx context.Context, entity, id, action string, params smapi.Params) (smapi.Record, error) {
	if entity == "" {
		return nil, smapi.ErrEntityRequired
	}

	if id == "" {
		return nil, smapi.ErrEntityIDRequired
	}

	if action == "" {
		return nil, smapi.ErrActionRequired
	}

	path := constants.ExpandPath(constants.PathTemplateInstanceAction, map[string]string{
		"entity":    entity,
		"entity_id": id,
		"action":    action,
	})

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     params,
		FailKind: smapi.ErrorKindOperationFailed,
		Entity:   entity,
		ID:       id,
	})
	if err != nil {
		return nil, fmt.Errorf("performing %s on %s: %w", action, entity, err)
	}

	record, err := decodeRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s action response: %w", action, err)
	}

	return record, nil
}

// QueryStatistics runs an aggregate statistics query over an entity type.
func (c *EntitiesClient) QueryStatistics(ctx context.Context, entity, action string, params smapi.Params) (smapi.Record, error) {
	if entity == "" {
		return nil, smapi.ErrEntityRequired
	}

	if action == "" {
		return nil, smapi.ErrActionRequired
	}

	path := constants.ExpandPath(constants.PathTemplateTypeAction, map[string]string{
		"entity": entity,
		"action": action,
	})

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     params,
		FailKind: smapi.ErrorKindQueryFailed,
		Entity:   entity,
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s statistics: %w", entity, err)
	}

	record, err := decodeRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s statistics response: %w", entity, err)
	}

	return record, nil
}

// decodeRecord parses a single-record response body. An empty 2xx body is
// legal and yields a nil record.
func decodeRecord(body []byte) (smapi.Record, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var record smapi.Record

	err := json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	return record, nil
}

// decodeRecordSet parses a collection response body. Both the enveloped
// {"entries": [...]} shape and a bare JSON array are accepted.
func decodeRecordSet(body []byte) (smapi.RecordSet, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var list smapi.ListResponse

	err := json.Unmarshal(body, &list)
	if err == nil && list.Entries != nil {
		return list.Entries, nil
	}

	var records smapi.RecordSet

	err = json.Unmarshal(body, &records)
	if err != nil {
		return nil, fmt.Errorf("decoding record set: %w", err)
	}

	return records, nil
}

// capitalize upper-cases the first rune, turning an entity type name into
// its action suffix ("volume" -> "removeVolume").
func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}
