package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailstone/osgraph/internal/core/domain"
)

func TestResultSetCapsAdditions(t *testing.T) {
	set := NewResultSet(2)
	assert.True(t, set.Add(domain.SearchResult{Title: "first"}))
	assert.False(t, set.Add(domain.SearchResult{Title: "second"}))
	assert.True(t, set.Full())

	assert.False(t, set.Add(domain.SearchResult{Title: "dropped"}))
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "first", set.Results()[0].Title)
	assert.Equal(t, "second", set.Results()[1].Title)
}

func TestResultSetUncapped(t *testing.T) {
	set := NewResultSet(0)
	for i := 0; i < 100; i++ {
		assert.True(t, set.Add(domain.SearchResult{}))
	}
	assert.False(t, set.Full())
	assert.Equal(t, 100, set.Len())
}

func TestResultSetEmptyResponse(t *testing.T) {
	body, err := json.Marshal(NewResultSet(5).Response())
	require.NoError(t, err)
	assert.JSONEq(t, `{"searchResults":[]}`, string(body))
}
