// Package ai provides the chat-completion client used by the suggestion
// requester.
package ai

import "context"

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a chat-completion request
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// ChatResponse represents a chat-completion response. Content is the first
// choice's message content, empty when the service returned no choices.
type ChatResponse struct {
	Content string     `json:"content"`
	Model   string     `json:"model"`
	Usage   TokenUsage `json:"usage"`
}

// TokenUsage represents token consumption for a completion call
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Client is the interface to a chat-completion service
type Client interface {
	// Complete sends a chat-completion request and returns the response.
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
