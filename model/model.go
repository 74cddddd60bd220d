// Package model defines the minimal generative-model contract consumed by
// the generation agent. Provider adapters live in subpackages (openai,
// anthropic); MockCompleter serves tests and offline development.
package model

import (
	"context"
	"fmt"
	"sync"
)

// Completer turns a fully constructed prompt into completion text. No
// structured output or streaming is assumed; the generation agent owns
// prompt construction and response shaping.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// MockCompleter is a lightweight in-memory Completer useful for tests and
// examples. Unmatched prompts receive a deterministic fallback.
type MockCompleter struct {
	mu        sync.RWMutex
	responses map[string]string
}

// NewMockCompleter constructs an empty MockCompleter.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{responses: make(map[string]string)}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockCompleter) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Complete implements Completer.
func (m *MockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}
