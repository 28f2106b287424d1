package bowl

import (
	"context"
	"sync"
	"time"
)

// MockPublisher is a test mock for events.Publisher
type MockPublisher struct {
	mu              sync.Mutex
	PublishedEvents []PublishedEvent
	PublishFunc     func(ctx context.Context, topic string, data []byte) error
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}

func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.PublishedEvents...)
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

var testStart = time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

func newTestOperator(pub *MockPublisher) (*Registry, *Operator) {
	registry := NewRegistry(nil)
	var op *Operator
	if pub != nil {
		op = NewOperator(registry, pub, nil)
	} else {
		op = NewOperator(registry, nil, nil)
	}
	op.now = fixedClock(testStart)
	return registry, op
}

func newTestReconciler(registry *Registry, pub *MockPublisher) *Reconciler {
	var r *Reconciler
	if pub != nil {
		r = NewReconciler(registry, pub, nil)
	} else {
		r = NewReconciler(registry, nil, nil)
	}
	r.now = fixedClock(testStart.Add(time.Hour))
	return r
}
