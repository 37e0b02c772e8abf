package mocks

import (
	"context"
	"sync"

	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// MockNotifier records notifications for testing
type MockNotifier struct {
	mu      sync.Mutex
	Created []driven.PRDCreatedNotification
	Decided []driven.PRDDecidedNotification

	// Err, when set, is returned by every notify call
	Err error
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyPRDCreated(ctx context.Context, n driven.PRDCreatedNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Created = append(m.Created, n)
	return nil
}

func (m *MockNotifier) NotifyPRDDecided(ctx context.Context, n driven.PRDDecidedNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Decided = append(m.Decided, n)
	return nil
}
