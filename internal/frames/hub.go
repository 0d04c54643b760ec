// Package frames drives the layout simulation at a fixed cadence and fans the
// resulting snapshots out to subscribers.
package frames

import (
	"sync"

	"github.com/hyperjump/waygraph/internal/layout"
)

// Hub delivers the latest snapshot to every subscriber. Publish never blocks:
// a subscriber that has not consumed the previous frame gets it replaced.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan layout.Snapshot
	nextID int
}

// NewHub returns a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan layout.Snapshot)}
}

// Subscribe returns a channel of frames and a cancel function that closes it.
func (h *Hub) Subscribe() (<-chan layout.Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan layout.Snapshot, 1)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish offers snap to every subscriber, dropping any frame still unread.
func (h *Hub) Publish(snap layout.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
