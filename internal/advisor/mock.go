package advisor

import (
	"context"
	"sync"
)

// MockClient is a test double recording prompts and returning canned advice.
type MockClient struct {
	mu      sync.Mutex
	Prompts []string

	// Response is returned by every Advise call.
	Response string
	// AdviseErr, when set, is returned instead.
	AdviseErr error
}

// NewMockClient creates a mock returning the given advice.
func NewMockClient(response string) *MockClient {
	return &MockClient{Response: response}
}

// Advise records the prompt and returns the canned response.
func (m *MockClient) Advise(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AdviseErr != nil {
		return "", m.AdviseErr
	}
	m.Prompts = append(m.Prompts, prompt)
	return m.Response, nil
}

var _ Client = (*MockClient)(nil)
