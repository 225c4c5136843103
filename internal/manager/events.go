package manager

import (
	"sync"
	"time"
)

// Event types emitted over the lifecycle of a model.
const (
	EventInitStarted = "init_started"
	EventReady       = "ready"
	EventInitFailed  = "init_failed"
	EventReleased    = "released"
)

// Event records one lifecycle transition.
type Event struct {
	Type  string    `json:"type"`
	Model string    `json:"model"`
	At    time.Time `json:"at"`
	Err   string    `json:"err,omitempty"`
}

// EventPublisher receives lifecycle events. Publish must not block; the
// manager calls it while holding no locks but on the initialize path.
type EventPublisher interface {
	Publish(ev Event)
}

// noopPublisher drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// NopPublisher returns a publisher that discards all events.
func NopPublisher() EventPublisher { return noopPublisher{} }

// MemoryPublisher buffers events in memory. Intended for tests and for the
// status endpoint's recent-events view.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemoryPublisher returns a publisher retaining at most limit events
// (oldest dropped first). limit <= 0 means unbounded.
func NewMemoryPublisher(limit int) *MemoryPublisher {
	return &MemoryPublisher{limit: limit}
}

// Publish appends ev, evicting the oldest event when over the limit.
func (p *MemoryPublisher) Publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	if p.limit > 0 && len(p.events) > p.limit {
		p.events = p.events[len(p.events)-p.limit:]
	}
}

// Events returns a copy of the buffered events in publish order.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
