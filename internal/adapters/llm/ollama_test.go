package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate_SendsPayload(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"model":    "llama3",
			"response": "Hello there!",
			"done":     true,
		})
	}))
	defer server.Close()

	adapter := NewOllamaGenerateAdapter(server.URL+"/api/generate", "llama3", DefaultOptions(), time.Second, nil)
	resp, err := adapter.Generate(context.Background(), "be precise", "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", resp)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, "be precise", got["system"])
	assert.Equal(t, "the prompt", got["prompt"])
	assert.Equal(t, false, got["stream"])

	opts, ok := got["options"].(map[string]any)
	require.True(t, ok, "options must be an object")
	assert.Contains(t, opts, "temperature", "zero temperature must still be sent")
	assert.EqualValues(t, 0, opts["temperature"])
	assert.EqualValues(t, 0.9, opts["top_p"])
	assert.EqualValues(t, 4096, opts["num_ctx"])
}

func TestOllamaGenerate_StatusErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'llama3' not found"}`))
	}))
	defer server.Close()

	adapter := NewOllamaGenerateAdapter(server.URL, "llama3", DefaultOptions(), time.Second, nil)
	answer, err := adapter.Generate(context.Background(), "s", "p")

	require.Error(t, err)
	assert.Empty(t, answer)
	assert.ErrorIs(t, err, ErrEndpointStatus)
	assert.Contains(t, err.Error(), `model 'llama3' not found`)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, `{"error":"model 'llama3' not found"}`, statusErr.Body)
}

func TestOllamaGenerate_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing field", `{"done":true}`},
		{"wrong type", `{"response":42}`},
		{"null field", `{"response":null}`},
		{"not json", `upstream proxy error`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := NewOllamaGenerateAdapter(server.URL, "m", DefaultOptions(), time.Second, nil)
			_, err := adapter.Generate(context.Background(), "s", "p")
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.NotErrorIs(t, err, ErrEndpointStatus)
		})
	}
}

func TestOllamaGenerate_EmptyResponseIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":""}`))
	}))
	defer server.Close()

	adapter := NewOllamaGenerateAdapter(server.URL, "m", DefaultOptions(), time.Second, nil)
	resp, err := adapter.Generate(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Empty(t, resp)
}

func TestOllamaGenerate_UnescapesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"line one\nSchritt \"1\" (SOURCE: http://x/001)"}`))
	}))
	defer server.Close()

	adapter := NewOllamaGenerateAdapter(server.URL, "m", DefaultOptions(), time.Second, nil)
	resp, err := adapter.Generate(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "line one\nSchritt \"1\" (SOURCE: http://x/001)", resp)
}

func TestOllamaGenerate_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	adapter := NewOllamaGenerateAdapter(server.URL, "m", DefaultOptions(), 0, nil)
	_, err := adapter.Generate(ctx, "s", "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOllamaGenerate_DefaultValues(t *testing.T) {
	adapter := NewOllamaGenerateAdapter("", "", DefaultOptions(), 0, nil)
	assert.Equal(t, DefaultEndpoint, adapter.endpoint)
	assert.Equal(t, "llama3", adapter.Model())
}
