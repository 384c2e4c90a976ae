package spend

import "sync"

// EventType discriminates pipeline events.
type EventType int

const (
	// EventDraftBuilt fires when a draft gains a fresh build.
	EventDraftBuilt EventType = iota

	// EventSignDone fires when a signing task completes, in either outcome.
	EventSignDone

	// EventBroadcastDone fires when a broadcast task completes, in either
	// outcome.
	EventBroadcastDone

	// EventLabelFailed fires when the post-broadcast label attach fails.
	// The broadcast itself stands.
	EventLabelFailed

	// EventInvoiceFailed fires when marking an invoice paid fails after the
	// payee accepted the payment. The payment itself stands.
	EventInvoiceFailed
)

// String renders the event type for logs.
func (t EventType) String() string {
	switch t {
	case EventDraftBuilt:
		return "draft-built"
	case EventSignDone:
		return "sign-done"
	case EventBroadcastDone:
		return "broadcast-done"
	case EventLabelFailed:
		return "label-failed"
	case EventInvoiceFailed:
		return "invoice-failed"
	}
	return "unknown"
}

// Event is one pipeline notification. Err is set when the event reports a
// failure.
type Event struct {
	Type    EventType
	DraftID uint64
	TxID    string // display hex, when known
	Err     error
}

// Bus fans pipeline events out to subscribers. Zero subscribers is valid;
// publishing is then a no-op. Subscribers are invoked synchronously on the
// publishing goroutine, so they must not block.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn for all future events and returns a cancel
// function that removes the subscription.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers evt to every subscriber. A panicking subscriber is
// logged and does not disturb the others or the publishing worker.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		b.invoke(fn, evt)
	}
}

func (b *Bus) invoke(fn func(Event), evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("event subscriber panic on %s: %v", evt.Type, r)
		}
	}()
	fn(evt)
}
