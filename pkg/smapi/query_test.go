package smapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryParams_ToValues(t *testing.T) {
	t.Parallel()

	t.Run("nil receiver yields empty values", func(t *testing.T) {
		t.Parallel()

		var q *QueryParams

		assert.Empty(t, q.ToValues())
	})

	t.Run("all server-side options", func(t *testing.T) {
		t.Parallel()

		values := NewQueryParams().
			WithFilter("capacity>100").
			WithPage(2).
			WithPerPage(50).
			WithOrderBy("name").
			ToValues()

		assert.Equal(t, "capacity>100", values.Get("filter"))
		assert.Equal(t, "2", values.Get("page"))
		assert.Equal(t, "50", values.Get("per_page"))
		assert.Equal(t, "name", values.Get("order_by"))
	})

	t.Run("fields never reach the wire", func(t *testing.T) {
		t.Parallel()

		values := NewQueryParams().WithFields("name", "capacity").ToValues()
		assert.Empty(t, values)
	})
}

func TestQueryParams_Project(t *testing.T) {
	t.Parallel()

	record := Record{
		"id":       "vol-1",
		"name":     "data",
		"capacity": 1024,
		"state":    "online",
	}

	t.Run("keeps requested fields plus id", func(t *testing.T) {
		t.Parallel()

		q := NewQueryParams().WithFields("name")

		assert.Equal(t, Record{"id": "vol-1", "name": "data"}, q.Project(record))
	})

	t.Run("unknown fields are skipped", func(t *testing.T) {
		t.Parallel()

		q := NewQueryParams().WithFields("name", "does_not_exist")

		assert.Equal(t, Record{"id": "vol-1", "name": "data"}, q.Project(record))
	})

	t.Run("no fields means no projection", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, record, NewQueryParams().Project(record))

		var q *QueryParams

		assert.Equal(t, record, q.Project(record))
	})

	t.Run("nil record passes through", func(t *testing.T) {
		t.Parallel()

		q := NewQueryParams().WithFields("name")

		assert.Nil(t, q.Project(nil))
	})
}

func TestQueryParams_ProjectSet(t *testing.T) {
	t.Parallel()

	records := RecordSet{
		{"id": "vol-1", "name": "a", "capacity": 1},
		{"id": "vol-2", "name": "b", "capacity": 2},
	}

	projected := NewQueryParams().WithFields("capacity").ProjectSet(records)

	assert.Equal(t, RecordSet{
		{"id": "vol-1", "capacity": 1},
		{"id": "vol-2", "capacity": 2},
	}, projected)

	// The originals are untouched.
	assert.Contains(t, records[0], "name")
}
