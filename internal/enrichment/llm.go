package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/InfinitIQFlow/AltDump/internal/config"
)

// LLMEnricher computes llm_title/llm_keywords/llm_summary for a text item.
// Disabled unless config.LLMConfig.Enabled is true; the engine never calls
// it on the search path, only from this background pipeline.
type LLMEnricher interface {
	Enrich(ctx context.Context, text string) (LLMResult, error)
}

// LLMResult holds the three metadata fields the prompt adds before
// recomputing searchable_text.
type LLMResult struct {
	Title    string
	Keywords string
	Summary  string
}

// disabledLLM is the default LLMEnricher when config.LLMConfig.Enabled is
// false: every call fails, so the LLM stage logs a skip and moves on.
type disabledLLM struct{}

func (disabledLLM) Enrich(ctx context.Context, text string) (LLMResult, error) {
	return LLMResult{}, fmt.Errorf("llm enrichment disabled")
}

// httpLLM calls a local OpenAI-compatible chat-completions endpoint,
// mirroring the shape of embedding.HTTPEmbedder: same request/response
// idiom, different endpoint.
type httpLLM struct {
	cfg    config.LLMConfig
	client *http.Client
}

func newHTTPLLM(cfg config.LLMConfig) *httpLLM {
	return &httpLLM{cfg: cfg, client: http.DefaultClient}
}

type chatReq struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const llmPrompt = `Given the following captured text, respond with exactly three lines:
TITLE: <a short descriptive title, five words or fewer>
KEYWORDS: <comma separated keywords>
SUMMARY: <one sentence summary>

Text:
%s`

func (e *httpLLM) Enrich(ctx context.Context, text string) (LLMResult, error) {
	body, err := json.Marshal(chatReq{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(llmPrompt, text)},
		},
	})
	if err != nil {
		return LLMResult{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodPost, e.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return LLMResult{}, err
	}
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return LLMResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return LLMResult{}, fmt.Errorf("llm endpoint returned %s", resp.Status)
	}

	var cr chatResp
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return LLMResult{}, err
	}
	if len(cr.Choices) == 0 {
		return LLMResult{}, fmt.Errorf("llm returned no choices")
	}
	return parseLLMResponse(cr.Choices[0].Message.Content), nil
}

func parseLLMResponse(content string) LLMResult {
	var out LLMResult
	for _, line := range splitLines(content) {
		switch {
		case hasPrefixFold(line, "TITLE:"):
			out.Title = trimAfterColon(line)
		case hasPrefixFold(line, "KEYWORDS:"):
			out.Keywords = trimAfterColon(line)
		case hasPrefixFold(line, "SUMMARY:"):
			out.Summary = trimAfterColon(line)
		}
	}
	return out
}
