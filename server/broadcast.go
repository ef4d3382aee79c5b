package server

import (
	"sync"

	"github.com/lixenwraith/chunkflow/navigation"
)

// Broadcaster fans simulation snapshots out to stream subscribers
// Slow subscribers miss snapshots rather than stall the simulation
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan navigation.Snapshot
	next   int
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan navigation.Snapshot)}
}

// Subscribe returns a snapshot channel and a cancel func that closes it
func (b *Broadcaster) Subscribe() (<-chan navigation.Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan navigation.Snapshot, streamBufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers snap to every subscriber with buffer room
func (b *Broadcaster) Publish(snap navigation.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Len returns the number of live subscribers
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
}
