package notify

import "sync"

// MockNotifier records sent notifications for tests.
type MockNotifier struct {
	mu   sync.Mutex
	Sent []Notification

	// SendErr, when set, is returned by every Send.
	SendErr error
}

// NewMockNotifier creates an empty mock.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the notification.
func (m *MockNotifier) Send(n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, n)
	return nil
}

// Count returns how many notifications were sent.
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Last returns the most recent notification, or a zero value if none.
func (m *MockNotifier) Last() Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Notification{}
	}
	return m.Sent[len(m.Sent)-1]
}

var _ Notifier = (*MockNotifier)(nil)
