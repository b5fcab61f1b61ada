package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tafahomerrors "tafahom/internal/errors"
	"tafahom/internal/httpclient"
	"tafahom/internal/logging"
	"tafahom/internal/observability"
	"tafahom/internal/ports"

	"github.com/goccy/go-json"
)

// Config carries the transport settings for an OpenAI-compatible provider.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout int // seconds
	Headers map[string]string
}

// OpenAI API compatible client. Together.ai speaks this dialect, which is
// why the default base URL points there.
type client struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	headers    map[string]string
}

const maxResponseBytes = 8 << 20

// NewClient constructs an LLM client that speaks the OpenAI-compatible
// chat completions API using the provided configuration.
func NewClient(model string, config Config) ports.LLMClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.together.xyz/v1"
	}

	timeout := 120 * time.Second
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}

	return &client{
		model:      model,
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpclient.New(timeout),
		logger:     logging.NewComponentLogger("LLMClient"),
		headers:    config.Headers,
	}
}

func (c *client) Model() string {
	return c.model
}

func (c *client) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	resp, err := c.complete(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.CompletionRequests.WithLabelValues(c.model, outcome).Inc()
	if resp != nil {
		observability.CompletionTokens.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		observability.CompletionTokens.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}
	return resp, err
}

func (c *client) complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	oaiReq := map[string]any{
		"model":       c.model,
		"messages":    convertMessages(req.Messages),
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"stream":      false,
	}
	if req.TopP > 0 {
		oaiReq["top_p"] = req.TopP
	}

	body, err := json.Marshal(oaiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	c.logger.Debug("=== LLM Request ===")
	c.logger.Debug("URL: POST %s", endpoint)
	c.logger.Debug("Model: %s, %d messages, temperature=%.2f max_tokens=%d top_p=%.2f",
		c.model, len(req.Messages), req.Temperature, req.MaxTokens, req.TopP)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("HTTP request failed: %v", err)
		return nil, tafahomerrors.NewTransientError(err,
			"Désolé, j'ai rencontré un problème technique. Pourriez-vous réessayer dans quelques instants ?")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := httpclient.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("=== LLM Response ===")
	c.logger.Debug("Status: %d %s", resp.StatusCode, resp.Status)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("Error response body: %s", string(respBody))
		return nil, tafahomerrors.MapHTTPStatus(resp.StatusCode, string(respBody))
	}

	var oaiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
		Error *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		c.logger.Debug("Failed to decode response: %v", err)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if oaiResp.Error != nil && oaiResp.Error.Message != "" {
		errMsg := oaiResp.Error.Message
		if oaiResp.Error.Type != "" {
			errMsg = fmt.Sprintf("%s: %s", oaiResp.Error.Type, oaiResp.Error.Message)
		}
		return nil, tafahomerrors.MapHTTPStatus(resp.StatusCode, errMsg)
	}

	if len(oaiResp.Choices) == 0 {
		c.logger.Debug("No choices in response")
		return nil, tafahomerrors.NewTransientError(errors.New("no choices in response"),
			"Le service de complétion a renvoyé une réponse vide. Réessayez.")
	}

	result := &ports.CompletionResponse{
		Content:    oaiResp.Choices[0].Message.Content,
		StopReason: oaiResp.Choices[0].FinishReason,
		Usage: ports.TokenUsage{
			PromptTokens:     oaiResp.Usage.PromptTokens,
			CompletionTokens: oaiResp.Usage.CompletionTokens,
			TotalTokens:      oaiResp.Usage.TotalTokens,
		},
	}

	c.logger.Debug("Stop reason: %s, content length: %d chars, usage: %d+%d=%d tokens",
		result.StopReason, len(result.Content),
		result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)

	return result, nil
}

func convertMessages(msgs []ports.Message) []map[string]any {
	result := make([]map[string]any, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, map[string]any{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}
	return result
}
