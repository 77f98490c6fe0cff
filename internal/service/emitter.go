package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples services from wailsRuntime
// ─────────────────────────────────────────────────────────────

// Events emitted to the hosting page.
const (
	EventLayoutApplied   = "layout:applied"
	EventCardRendered    = "card:rendered"
	EventCardRemoved     = "card:removed"
	EventMenuChanged     = "menu:changed"
	EventGestureFrame    = "gesture:frame"
	EventGridSpecChanged = "grid:spec-changed"
	EventLayoutError     = "layout:error"
)

// EventEmitter is an interface for emitting events to the frontend.
// The App struct implements this by delegating to wailsRuntime.EventsEmit.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// NopEmitter drops every event. Used when no frontend is attached (MCP stdio mode).
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
// Layout passes emit from the event loop, so reads go through Snapshot.
type MockEmitter struct {
	mu     sync.Mutex
	events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, EmittedEvent{Event: event, Data: data})
}

// Snapshot returns a copy of the recorded events.
func (m *MockEmitter) Snapshot() []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmittedEvent(nil), m.events...)
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	n := 0
	for _, e := range m.Snapshot() {
		if e.Event == event {
			n++
		}
	}
	return n
}

// Last returns the data of the latest emission of event.
func (m *MockEmitter) Last(event string) (any, bool) {
	events := m.Snapshot()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Event == event {
			return events[i].Data, true
		}
	}
	return nil, false
}
