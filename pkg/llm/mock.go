package llm

import (
	"context"
	"sync"
)

// MockProvider returns canned responses without any network calls. Useful
// for tests and for running the server with LLM_MODE=mock.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	calls     []string
}

// NewMockProvider returns a provider that replays the given responses in
// order, repeating the last one once exhausted. With no responses it
// answers with a fixed acknowledgement.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(_ context.Context, _ string, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, userMessage)
	if len(m.responses) == 0 {
		return "Acknowledged (mock mode).", nil
	}
	i := len(m.calls) - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

// Calls returns the user messages received so far.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
