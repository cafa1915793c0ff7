// Package embedding provides the pluggable text-embedding function the
// semantic index relies on. The engine treats whatever answers here as a
// black box: given text, return a fixed-dimension vector. HTTPEmbedder
// calls an OpenAI-style /v1/embeddings endpoint over HTTP, which fits a
// local, offline, single-endpoint embedding server.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/InfinitIQFlow/AltDump/internal/config"
	"github.com/InfinitIQFlow/AltDump/internal/vaulterr"
)

// Embedder turns text into a fixed-dimension vector, L2-normalised, ready
// for cosine comparison in the Semantic Index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	CheckReachability(ctx context.Context) error
}

type embedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResp struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// HTTPEmbedder calls a configured OpenAI-compatible embeddings endpoint.
type HTTPEmbedder struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewHTTPEmbedder returns an Embedder backed by cfg.
func NewHTTPEmbedder(cfg config.EmbeddingConfig) *HTTPEmbedder {
	return &HTTPEmbedder{cfg: cfg, client: http.DefaultClient}
}

func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *HTTPEmbedder) embedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidInput, fmt.Errorf("no inputs"))
	}

	reqBody, err := json.Marshal(embedReq{Model: e.cfg.Model, Input: inputs})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidInput, err)
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout())
	defer cancel()

	url := e.cfg.BaseURL + e.cfg.Path
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if e.cfg.APIHeader == "Authorization" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	} else if e.cfg.APIHeader != "" {
		req.Header.Set(e.cfg.APIHeader, e.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if cctx.Err() != nil {
			return nil, vaulterr.Wrap(vaulterr.ErrTimeout, err)
		}
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, vaulterr.Wrap(vaulterr.ErrExtractionFailure,
			fmt.Errorf("embeddings endpoint returned %s: %s", resp.Status, string(bodyBytes)))
	}

	var er embedResp
	if err := json.Unmarshal(bodyBytes, &er); err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrExtractionFailure,
			fmt.Errorf("parsing embedding response: %w", err))
	}
	if len(er.Data) != len(inputs) {
		return nil, vaulterr.Wrap(vaulterr.ErrExtractionFailure,
			fmt.Errorf("unexpected embedding count: got %d, want %d", len(er.Data), len(inputs)))
	}

	out := make([][]float32, len(er.Data))
	for i := range er.Data {
		out[i] = normalize(er.Data[i].Embedding)
	}
	return out, nil
}

// CheckReachability sends a small probe request to confirm the endpoint is
// up and answering in the expected shape (used at daemon startup).
func (e *HTTPEmbedder) CheckReachability(ctx context.Context) error {
	_, err := e.Embed(ctx, "ping")
	if err != nil {
		return fmt.Errorf("embedding endpoint reachability check failed: %w", err)
	}
	return nil
}

// normalize L2-normalises v so every stored vector is unit length and plain
// dot products behave as cosine similarity downstream.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(1.0 / math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}

var _ Embedder = (*HTTPEmbedder)(nil)
