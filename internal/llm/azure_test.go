package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAzureClient(serverURL string) *AzureClient {
	return NewAzureClient(zerolog.Nop(), &AzureConfig{
		Endpoint: serverURL,
		APIKey:   "test-key",
	})
}

func TestAzureClient_Complete_Success(t *testing.T) {
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.Equal(t, "2024-12-01-preview", r.URL.Query().Get("api-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"finish_reason":"stop","message":{"content":"안녕!"}}]}`))
	}))
	defer server.Close()

	client := newTestAzureClient(server.URL)
	result, err := client.Complete(context.Background(), &Request{
		Messages:    []Message{{Role: "system", Content: "be kind"}, {Role: "user", Content: "hi"}},
		MaxTokens:   100,
		Temperature: 0.7,
		TopP:        1.0,
	})

	require.NoError(t, err)
	assert.Equal(t, "안녕!", result.Content)
	assert.Equal(t, FinishStop, result.FinishReason)
	assert.Len(t, gotBody.Messages, 2)
	assert.Equal(t, 100, gotBody.MaxTokens)
}

func TestAzureClient_Complete_ContentFilterNullContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"finish_reason":"content_filter","message":{"content":null}}]}`))
	}))
	defer server.Close()

	client := newTestAzureClient(server.URL)
	result, err := client.Complete(context.Background(), &Request{Messages: []Message{{Role: "user", Content: "hi"}}})

	// A filtered reply is a successful-but-empty result, not an error.
	require.NoError(t, err)
	assert.Empty(t, result.Content)
	assert.Equal(t, FinishContentFilter, result.FinishReason)
}

func TestAzureClient_Complete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestAzureClient(server.URL)
	_, err := client.Complete(context.Background(), &Request{Messages: []Message{{Role: "user", Content: "hi"}}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestAzureClient_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestAzureClient(server.URL)
	_, err := client.Complete(context.Background(), &Request{Messages: []Message{{Role: "user", Content: "hi"}}})

	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestAzureClient_Complete_NotConfigured(t *testing.T) {
	client := &AzureClient{config: &AzureConfig{}, client: http.DefaultClient, logger: zerolog.Nop()}

	_, err := client.Complete(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, FinishStop, mapFinishReason("stop"))
	assert.Equal(t, FinishContentFilter, mapFinishReason("content_filter"))
	assert.Equal(t, FinishOther, mapFinishReason("length"))
	assert.Equal(t, FinishOther, mapFinishReason(""))
}
