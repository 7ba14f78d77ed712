package smapi

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams represents query options for entity reads. Filter applies only
// to collection queries; Fields is a client-side projection applied after the
// response is decoded and never changes the request that is sent.
type QueryParams struct {
	Filter  string
	Fields  []string
	Page    int
	PerPage int
	OrderBy string
}

// NewQueryParams creates an empty QueryParams.
func NewQueryParams() *QueryParams {
	return &QueryParams{}
}

// WithFilter sets the server-side filter expression.
func (q *QueryParams) WithFilter(filter string) *QueryParams {
	q.Filter = filter

	return q
}

// WithFields appends fields to the client-side projection.
func (q *QueryParams) WithFields(fields ...string) *QueryParams {
	q.Fields = append(q.Fields, fields...)

	return q
}

// WithPage sets the page number.
func (q *QueryParams) WithPage(page int) *QueryParams {
	q.Page = page

	return q
}

// WithPerPage sets the page size.
func (q *QueryParams) WithPerPage(perPage int) *QueryParams {
	q.PerPage = perPage

	return q
}

// WithOrderBy sets the sort expression.
func (q *QueryParams) WithOrderBy(orderBy string) *QueryParams {
	q.OrderBy = orderBy

	return q
}

// ToValues converts the query parameters to url.Values. Fields is excluded:
// projection happens client-side.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.Filter != "" {
		values.Set("filter", q.Filter)
	}

	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}

	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}

	if q.OrderBy != "" {
		values.Set("order_by", q.OrderBy)
	}

	return values
}

// Project returns a copy of the record restricted to the configured fields.
// Field names are matched case-sensitively; "id" is always kept so the result
// stays addressable. A nil receiver or empty field list returns the record
// unchanged.
func (q *QueryParams) Project(record Record) Record {
	if q == nil || len(q.Fields) == 0 || record == nil {
		return record
	}

	projected := make(Record, len(q.Fields)+1)

	if id, ok := record["id"]; ok {
		projected["id"] = id
	}

	for _, field := range q.Fields {
		field = strings.TrimSpace(field)
		if value, ok := record[field]; ok {
			projected[field] = value
		}
	}

	return projected
}

// ProjectSet applies Project to every record in the set.
func (q *QueryParams) ProjectSet(records RecordSet) RecordSet {
	if q == nil || len(q.Fields) == 0 {
		return records
	}

	projected := make(RecordSet, len(records))
	for i, record := range records {
		projected[i] = q.Project(record)
	}

	return projected
}
