package smapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_ID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "vol-1", Record{"id": "vol-1"}.ID())
	assert.Equal(t, "42", Record{"id": float64(42)}.ID())
	assert.Equal(t, "17", Record{"id": json.Number("17")}.ID())
	assert.Equal(t, "", Record{}.ID())
	assert.Equal(t, "", Record{"id": true}.ID())

	var nilRecord Record

	assert.Equal(t, "", nilRecord.ID())
}

func TestRecord_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data", Record{"name": "data"}.Name())
	assert.Equal(t, "", Record{}.Name())
	assert.Equal(t, "", Record{"name": 7}.Name())
}

func TestListResponse_Decode(t *testing.T) {
	t.Parallel()

	body := []byte(`{"entries": [{"id": "vol-1", "name": "a"}, {"id": "vol-2"}]}`)

	var list ListResponse

	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Entries, 2)
	assert.Equal(t, "vol-1", list.Entries[0].ID())
	assert.Equal(t, "a", list.Entries[0].Name())
}
