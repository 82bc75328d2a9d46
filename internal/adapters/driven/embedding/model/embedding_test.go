package model

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_PostsToAPIEmbeddingsAndNormalizes(t *testing.T) {
	var gotReq embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{3, 4}})
	}))
	defer server.Close()

	e := New(Config{BaseURL: server.URL, Model: "test-model"})
	vec, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, "hello world", gotReq.Prompt)

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestEmbed_NonOKStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	e := New(Config{BaseURL: server.URL})
	_, err := e.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestNew_FillsDefaults(t *testing.T) {
	e := New(Config{})
	assert.Equal(t, DefaultDim, e.Dimension())
	assert.Equal(t, "model:"+DefaultModel, e.BackendID())
}

func TestPing_FailsWhenBackendUnreachable(t *testing.T) {
	e := New(Config{BaseURL: "http://127.0.0.1:1"})
	err := e.Ping(context.Background())
	assert.Error(t, err)
}

func TestEmbedBatch_EmbedsEachTextIndependently(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 0}})
	}))
	defer server.Close()

	e := New(Config{BaseURL: server.URL})
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 3, calls)
}
