package notify

import (
	"context"
	"sync"
)

// MockAdapter is an in-memory Adapter for tests. It records every sent
// message and can be told to fail.
type MockAdapter struct {
	mu      sync.Mutex
	name    string
	sent    []Outbound
	sendErr error
	closed  bool
}

// NewMockAdapter creates a MockAdapter reporting the given platform name.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{name: name}
}

// Name implements Adapter.
func (m *MockAdapter) Name() string { return m.name }

// Send implements Adapter, recording the message.
func (m *MockAdapter) Send(_ context.Context, msg Outbound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Close implements Adapter.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// FailWith makes subsequent Sends return err.
func (m *MockAdapter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Sent returns a copy of the recorded messages.
func (m *MockAdapter) Sent() []Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Outbound, len(m.sent))
	copy(out, m.sent)
	return out
}

// Closed reports whether Close was called.
func (m *MockAdapter) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
