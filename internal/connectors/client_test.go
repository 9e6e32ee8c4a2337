package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailstone/osgraph/internal/core/domain"
)

func TestGetJSONSendsHeadersAndParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "acme", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{"total":1}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, map[string]string{"X-Api-Key": "secret"})
	body, err := client.GetJSON(context.Background(), "/v1/search", url.Values{"q": {"acme"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), body.Get("total").Int())
}

func TestGetJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"no access"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	body, err := client.GetJSON(context.Background(), "/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
	assert.Equal(t, "no access", body.Get("error").String())
}

func TestGetJSONRejectsInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, nil)
	_, err := client.GetJSON(context.Background(), "/", nil)
	assert.ErrorIs(t, err, domain.ErrUpstreamDecode)
}

func TestGetJSONTransportFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 0, nil)
	_, err := client.GetJSON(context.Background(), "/", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUpstreamStatus)
}
