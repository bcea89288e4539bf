package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/config"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
)

// Completion is the normalized result of one oracle call
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64
	Duration         time.Duration
}

// Request describes one chat-style completion call
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Client talks to the chat-completions endpoint of the text-generation
// oracle. Cost is computed client-side from the static price table; the
// upstream reports token usage only.
type Client struct {
	cfg    config.AIConfig
	http   *http.Client
	logger *logging.Logger
}

// NewClient creates an oracle client
func NewClient(cfg config.AIConfig, logger *logging.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
}

// Configured reports whether an API credential is present. Callers degrade
// to heuristic-only behavior when it is not.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete invokes the oracle and returns the generated text with its
// token usage and computed cost
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	if !c.Configured() {
		return nil, apperrors.New(apperrors.KindUpstreamFailure, "no AI credential configured")
	}

	model := req.Model
	if model == "" {
		model = c.cfg.DefaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamFailure, "failed to build completion request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.logger.LogAIRequest(model, 0, 0, duration, err)
		return nil, apperrors.Wrap(apperrors.KindUpstreamFailure, "completion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := apperrors.Newf(apperrors.KindUpstreamFailure,
			"oracle returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		c.logger.LogAIRequest(model, 0, 0, duration, err)
		return nil, err
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamFailure, "failed to decode completion response", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, apperrors.New(apperrors.KindUpstreamFailure, "oracle returned no choices")
	}

	cost := ComputeCost(model, decoded.Usage.PromptTokens, decoded.Usage.CompletionTokens)
	c.logger.LogAIRequest(model, decoded.Usage.TotalTokens, cost, duration, nil)

	return &Completion{
		Text:             decoded.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     decoded.Usage.PromptTokens,
		CompletionTokens: decoded.Usage.CompletionTokens,
		TotalTokens:      decoded.Usage.TotalTokens,
		Cost:             cost,
		Duration:         duration,
	}, nil
}
