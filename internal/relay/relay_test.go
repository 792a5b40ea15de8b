package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsFieldsWithSubject(t *testing.T) {
	received := make(chan map[string]string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
		_, _ = w.Write([]byte(`{"success":"true"}`))
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL, HTTPClient: server.Client()})
	require.True(t, client.Enabled())

	fields := map[string]string{"name": "Ravi", "email": "ravi@example.test"}
	require.NoError(t, client.Send(context.Background(), "New contact inquiry", fields))

	payload := <-received
	require.Equal(t, "Ravi", payload["name"])
	require.Equal(t, "New contact inquiry", payload["_subject"])
	require.NotContains(t, fields, "_subject")
}

func TestSendReportsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL, HTTPClient: server.Client()})
	require.Error(t, client.Send(context.Background(), "subject", map[string]string{"a": "b"}))
}

func TestSendWithoutEndpointIsNoOp(t *testing.T) {
	client := New(Config{Endpoint: "   "})
	require.False(t, client.Enabled())
	require.NoError(t, client.Send(context.Background(), "subject", map[string]string{"a": "b"}))

	var disabled *Client
	require.False(t, disabled.Enabled())
}
