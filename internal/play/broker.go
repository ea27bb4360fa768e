package play

import (
	"encoding/json"
	"sync"
)

// Broker is an in-process pub/sub of round snapshots keyed by round ID.
// It feeds the SSE and WebSocket streams.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded snapshots of the round.
func (b *Broker) Subscribe(roundID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[roundID] == nil {
		b.subs[roundID] = make(map[chan []byte]struct{})
	}
	b.subs[roundID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(roundID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[roundID], ch)
	if len(b.subs[roundID]) == 0 {
		delete(b.subs, roundID)
	}
	b.mu.Unlock()
}

// Publish sends the snapshot to every subscriber of its round.
func (b *Broker) Publish(s Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	b.mu.RLock()
	for ch := range b.subs[s.ID] {
		select {
		case ch <- data:
		default:
			// Slow subscriber; it will catch up on the next snapshot.
		}
	}
	b.mu.RUnlock()
}

func (b *Broker) Subscribers(roundID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[roundID])
}
