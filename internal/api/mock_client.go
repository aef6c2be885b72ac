package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockResponse is one scripted reply of the MockClient
type MockResponse struct {
	Text string
	Err  error
}

// MockClient is a scripted Generator for tests and offline demos.
// Responses are consumed in order; once exhausted the last one repeats.
// With no responses it echoes a templated rewrite of the prompt's message.
type MockClient struct {
	Responses []MockResponse

	mu      sync.Mutex
	calls   int
	prompts []string
	models  []string
}

// Ensure MockClient implements Generator
var _ Generator = (*MockClient)(nil)

// NewMockClient creates a MockClient with the given scripted responses
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{Responses: responses}
}

// Generate records the call and returns the next scripted response
func (m *MockClient) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.models = append(m.models, modelID)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(m.Responses) == 0 {
		return echoRewrite(prompt), nil
	}

	idx := m.calls - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	r := m.Responses[idx]
	return r.Text, r.Err
}

// Calls returns the number of Generate calls
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the most recent prompt, or ""
func (m *MockClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// Models returns the model IDs of all calls in order
func (m *MockClient) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.models))
	copy(out, m.models)
	return out
}

func echoRewrite(prompt string) string {
	msg := prompt
	if idx := strings.LastIndex(prompt, "Message:\n"); idx >= 0 {
		msg = prompt[idx+len("Message:\n"):]
	}
	msg = strings.TrimSpace(msg)

	return fmt.Sprintf("**Rewritten Message:**\n%s\n\n**Original Tone:**\nneutral\n\n**Reason for Change:**\nMock mode returns the message unchanged.", msg)
}
