// Package openai rewrites text through the OpenAI chat completions
// API (translation, grammar fixes, custom instructions).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not configured")

// Config controls the chat completions endpoint.
type Config struct {
	APIKey     string
	APIBaseURL string
	Model      string
}

// Transformer implements ports.TextTransformer.
type Transformer struct {
	cfg  Config
	http *http.Client
}

func NewTransformer(cfg Config) *Transformer {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.openai.com/v1"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &Transformer{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
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
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transform sends text with the instruction as the system prompt and
// returns the model's rewrite.
func (t *Transformer) Transform(ctx context.Context, text string, instruction string) (string, error) {
	if strings.TrimSpace(t.cfg.APIKey) == "" {
		return "", ErrMissingAPIKey
	}

	payload, err := json.Marshal(chatRequest{
		Model: t.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: text},
		},
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.cfg.APIBaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		message := strings.TrimSpace(decoded.Error.Message)
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		return "", fmt.Errorf("openai returned %d: %s", resp.StatusCode, message)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
