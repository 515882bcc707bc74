package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultTemperature and DefaultMaxTokens are fixed by the completion
	// contract for chat turns.
	DefaultTemperature float32 = 0.7
	DefaultMaxTokens           = 8192

	// DefaultTimeout bounds a single completion call. Generation of a full
	// multi-file site can take well over a minute, so this is deliberately
	// much longer than ordinary request timeouts.
	DefaultTimeout = 3 * time.Minute

	// maxResponseBytes caps how much of a provider response we will read.
	maxResponseBytes = 4 << 20
)

// Gateway sends completion requests to an OpenAI-compatible endpoint. It is
// the only component that talks to the provider. One attempt per call: retry
// is user-initiated resubmission, never server-side.
type Gateway struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// NewGateway creates a gateway for the given chat-completions endpoint.
func NewGateway(endpoint, apiKey string, logger *slog.Logger) *Gateway {
	return &Gateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: DefaultTimeout},
		logger:   logger,
	}
}

// Complete performs one completion call and normalizes every failure mode
// (missing key, network error, non-2xx, malformed body, empty choices) into a
// Result whose Content carries the ErrorPrefix sentinel. It never returns a
// Go error to the caller; the orchestrator branches on Result.IsError.
func (g *Gateway) Complete(ctx context.Context, model, systemPrompt string, messages []Message) *Result {
	if g.apiKey == "" {
		return errorResult("no API key configured")
	}

	reqMessages := make([]Message, 0, len(messages)+1)
	reqMessages = append(reqMessages, TextMessage("system", systemPrompt))
	reqMessages = append(reqMessages, messages...)

	payload := CompletionRequest{
		Model:       model,
		Messages:    reqMessages,
		Stream:      false,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errorResult(fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return errorResult(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("completion request failed", "model", model, "error", err)
		return errorResult(fmt.Sprintf("completion request failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errorResult(fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Error("completion request rejected",
			"model", model,
			"status", resp.StatusCode,
			"body", truncate(string(respBody), 500),
		)
		return errorResult(fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	var completion completionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return errorResult(fmt.Sprintf("decode response: %v", err))
	}

	if len(completion.Choices) == 0 {
		return errorResult("provider response contained no choices")
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return errorResult("provider response contained no content")
	}

	g.logger.Info("completion finished",
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
	)

	return &Result{
		Content:          content,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}
}

func errorResult(detail string) *Result {
	return &Result{Content: ErrorPrefix + detail}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
