package ai

import (
	"context"
	"fmt"
	"sync"
)

// MockClient implements Client for testing. Responses are served from a
// script in order; once the script is exhausted the last entry repeats.
// Safe for concurrent use; read Calls only after all calls have returned.
type MockClient struct {
	Script []ScriptedResponse
	Calls  int

	mu sync.Mutex
}

// ScriptedResponse is one scripted completion result
type ScriptedResponse struct {
	Content string
	Err     error
}

// NewMockClient creates a mock client that always answers with content
func NewMockClient(content string) *MockClient {
	return &MockClient{Script: []ScriptedResponse{{Content: content}}}
}

// NewFailingMockClient creates a mock client that always errors
func NewFailingMockClient(err error) *MockClient {
	return &MockClient{Script: []ScriptedResponse{{Err: err}}}
}

// Complete implements the Client interface
func (m *MockClient) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.Script) == 0 {
		return nil, fmt.Errorf("mock client has no scripted responses")
	}

	m.mu.Lock()
	idx := m.Calls
	if idx >= len(m.Script) {
		idx = len(m.Script) - 1
	}
	m.Calls++
	m.mu.Unlock()

	scripted := m.Script[idx]
	if scripted.Err != nil {
		return nil, scripted.Err
	}
	return &ChatResponse{
		Content: scripted.Content,
		Model:   "mock-model",
	}, nil
}
