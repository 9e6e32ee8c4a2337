package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultsNormalizesNil(t *testing.T) {
	body, err := json.Marshal(Results(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"searchResults":[]}`, string(body))
}

func TestErrorfFormatsMessage(t *testing.T) {
	rsp := Errorf("bad thing: %d", 7)
	assert.True(t, rsp.IsError())

	body, err := json.Marshal(rsp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors":[{"message":"bad thing: 7"}]}`, string(body))
}

func TestMarshalEmitsExactlyOneField(t *testing.T) {
	rsp := Results([]SearchResult{{Key: "K1", Title: "Acme", Source: "Test API"}})
	body, err := json.Marshal(rsp)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Contains(t, decoded, "searchResults")
	assert.NotContains(t, decoded, "errors")
}

func TestUnmarshalRoundTrip(t *testing.T) {
	var rsp SearchResponse
	require.NoError(t, json.Unmarshal([]byte(`{"errors":[{"message":"upstream down"}]}`), &rsp))
	assert.True(t, rsp.IsError())
	assert.Equal(t, "upstream down", rsp.Errors[0].Message)
}
