package events

import (
	"context"
	"sync"
)

type Recorded struct {
	Topic string
	Key   string
	Event Event
}

// Recorder keeps published events in memory. Tests use it in place of Kafka.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, _ := event.(Event)
	r.events = append(r.events, Recorded{Topic: topic, Key: key, Event: ev})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types(topic string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Topic == topic {
			out = append(out, e.Event.Type)
		}
	}
	return out
}
