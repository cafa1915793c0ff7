package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InfinitIQFlow/AltDump/internal/config"
)

func TestHTTPEmbedderEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embedReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"hello vault"}, req.Input)

		resp := embedResp{Data: []struct {
			Embedding []float32 `json:"embedding"`
		}{{Embedding: []float32{3, 4}}}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	cfg := config.EmbeddingConfig{
		BaseURL:   srv.URL,
		Path:      "/v1/embeddings",
		Model:     "test-model",
		APIKey:    "test-key",
		APIHeader: "Authorization",
		TimeoutS:  5,
	}
	e := NewHTTPEmbedder(cfg)

	vec, err := e.Embed(context.Background(), "hello vault")
	require.NoError(t, err)
	require.Len(t, vec, 2)
	// 3,4 normalised is 0.6,0.8
	require.InDelta(t, 0.6, vec[0], 1e-6)
	require.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestHTTPEmbedderNon2xxIsExtractionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(config.EmbeddingConfig{BaseURL: srv.URL, Path: "/v1/embeddings", TimeoutS: 5})
	_, err := e.Embed(context.Background(), "x")
	require.Error(t, err)
}

func TestHTTPEmbedderCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(config.EmbeddingConfig{BaseURL: srv.URL, Path: "/v1/embeddings", TimeoutS: 5})
	_, err := e.Embed(context.Background(), "x")
	require.Error(t, err)
}

func TestFakeEmbedderIsDeterministic(t *testing.T) {
	f := NewFake(16)
	a, err := f.Embed(context.Background(), "remember the milk")
	require.NoError(t, err)
	b, err := f.Embed(context.Background(), "remember the milk")
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := f.Embed(context.Background(), "completely different text")
	require.NoError(t, err)
	require.NotEqual(t, a, c)
	require.Less(t, cosineFake(a, c), 0.999)
}
