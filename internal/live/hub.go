package live

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
)

const (
	AdminTopic = "admin"

	defaultBuffer = 16
)

func UserTopic(id uuid.UUID) string {
	return "user:" + id.String()
}

// Hub fans JSON messages out to subscribers by topic. A subscriber whose
// buffer is full is dropped instead of blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscriber]struct{}
	buffer int
}

type Subscriber struct {
	C      <-chan []byte
	ch     chan []byte
	topics []string
	hub    *Hub
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscriber]struct{}), buffer: defaultBuffer}
}

func (h *Hub) Subscribe(topics ...string) *Subscriber {
	ch := make(chan []byte, h.buffer)
	s := &Subscriber{C: ch, ch: ch, topics: topics, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		set, ok := h.subs[t]
		if !ok {
			set = make(map[*Subscriber]struct{})
			h.subs[t] = set
		}
		set[s] = struct{}{}
	}
	return s
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscriber) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.drop(s)
}

// drop must be called with h.mu held.
func (h *Hub) drop(s *Subscriber) {
	if s.closed {
		return
	}
	s.closed = true
	for _, t := range s.topics {
		if set, ok := h.subs[t]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, t)
			}
		}
	}
	close(s.ch)
}

// Publish encodes msg and delivers it to the topic's subscribers.
func (h *Hub) Publish(ctx context.Context, topic string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.FromContext(ctx).Error("live_encode_failed", "topic", topic, "error", err)
		return
	}
	if dropped := h.Deliver(topic, data); dropped > 0 {
		logging.FromContext(ctx).Warn("live_subscriber_dropped", "topic", topic, "count", dropped)
	}
}

// Deliver sends an encoded message and returns how many slow subscribers were dropped.
func (h *Hub) Deliver(topic string, data []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for s := range h.subs[topic] {
		select {
		case s.ch <- data:
		default:
			h.drop(s)
			dropped++
		}
	}
	return dropped
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}
