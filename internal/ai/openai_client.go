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

	"habitquest/internal/config"
)

// OpenAIClient implements Client against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// openaiRequest represents the wire format for chat-completion requests
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

// openaiMessage represents a message in the wire format
type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse represents the wire format for chat-completion responses
type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
	Error   *openaiError   `json:"error,omitempty"`
}

// openaiChoice represents one choice in the response
type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// openaiUsage represents token usage in the response
type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// openaiError represents an API-level error in the response body
type openaiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewOpenAIClient creates a new client for an OpenAI-compatible endpoint
func NewOpenAIClient(cfg config.CompletionConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Complete sends a chat-completion request and returns the first choice
func (o *OpenAIClient) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	messages := make([]openaiMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openaiMessage{Role: msg.Role, Content: msg.Content}
	}

	wireReq := &openaiRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}

	wireResp, err := o.makeAPICall(ctx, wireReq)
	if err != nil {
		return nil, fmt.Errorf("completion API call failed: %w", err)
	}

	var content string
	if len(wireResp.Choices) > 0 {
		content = wireResp.Choices[0].Message.Content
	}

	return &ChatResponse{
		Content: content,
		Model:   wireResp.Model,
		Usage: TokenUsage{
			Input:  wireResp.Usage.PromptTokens,
			Output: wireResp.Usage.CompletionTokens,
			Total:  wireResp.Usage.TotalTokens,
		},
	}, nil
}

// endpoint joins the configured base URL with the chat-completions path
func (o *OpenAIClient) endpoint() string {
	return strings.TrimSuffix(o.baseURL, "/") + "/chat/completions"
}

// makeAPICall makes the actual HTTP call to the completion endpoint
func (o *OpenAIClient) makeAPICall(ctx context.Context, req *openaiRequest) (*openaiResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint(), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, string(body))
	}

	var wireResp openaiResponse
	if err := json.Unmarshal(body, &wireResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if wireResp.Error != nil {
		return nil, fmt.Errorf("completion API error: %s", wireResp.Error.Message)
	}

	return &wireResp, nil
}
