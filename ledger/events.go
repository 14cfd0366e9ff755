package ledger

import (
	"sync"
	"time"
)

type EventKind string

const (
	EventRateUpdated              EventKind = "rate_updated"
	EventTransactionAdded         EventKind = "transaction_added"
	EventTransactionStatusChanged EventKind = "transaction_status_changed"
	EventReconciliationCompleted  EventKind = "reconciliation_completed"
)

// Event is delivered to every subscriber in append order. Seq increases by
// one per published event, so consumers can detect their own gaps.
type Event struct {
	Seq     uint64      `json:"seq"`
	Kind    EventKind   `json:"kind"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload"`
}

// Publisher fans events out to an explicit subscriber list. Delivery is
// at-least-once and in append order per subscriber: the publish path blocks
// on a full subscriber buffer rather than drop or reorder, so size buffers
// for the consumer's lag.
type Publisher struct {
	mu     sync.Mutex
	seq    uint64
	subs   []chan Event
	closed bool
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe registers a new consumer. The returned channel is closed by
// Close; events published before Subscribe are not replayed.
func (p *Publisher) Subscribe(buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(ch)
		return ch
	}
	p.subs = append(p.subs, ch)
	return ch
}

func (p *Publisher) publish(kind EventKind, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.seq++
	ev := Event{Seq: p.seq, Kind: kind, At: time.Now().UTC(), Payload: payload}
	for _, ch := range p.subs {
		ch <- ev
	}
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
}
