package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber is one live listener on a match channel. Messages arrive on C
// in seq order; C is closed when the subscriber is evicted or unsubscribed.
type Subscriber struct {
	ch     chan MessageDTO
	closed bool
}

// C is the subscriber's delivery channel.
func (s *Subscriber) C() <-chan MessageDTO {
	return s.ch
}

// hub tracks the per-match channels. Each channel carries its own lock,
// which serializes seq assignment, persistence, fan-out and subscriber
// registration for that match.
type hub struct {
	mu       sync.Mutex
	channels map[uuid.UUID]*channel
}

func newHub() *hub {
	return &hub{channels: map[uuid.UUID]*channel{}}
}

func (h *hub) channel(matchID uuid.UUID) *channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.channels[matchID]
	if !ok {
		ch = &channel{subscribers: map[*Subscriber]struct{}{}}
		h.channels[matchID] = ch
	}
	return ch
}

type channel struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
	nextSeq     int64 // 0 = not yet loaded from storage
}

// register must be called with ch.mu held.
func (c *channel) register(buffer int) *Subscriber {
	sub := &Subscriber{ch: make(chan MessageDTO, buffer)}
	c.subscribers[sub] = struct{}{}
	return sub
}

// unregister must be called with ch.mu held.
func (c *channel) unregister(sub *Subscriber) {
	if _, ok := c.subscribers[sub]; !ok {
		return
	}
	delete(c.subscribers, sub)
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// broadcast must be called with ch.mu held. Subscribers that cannot keep up
// (full queue) are evicted and their channel closed.
func (c *channel) broadcast(msg MessageDTO) {
	for sub := range c.subscribers {
		select {
		case sub.ch <- msg:
		default:
			c.unregister(sub)
		}
	}
}
