package pubsub

import (
	"context"
	"errors"
	"sync"
)

// ErrShutdown is returned when subscribing to a hub that has been shut down
var ErrShutdown = errors.New("pubsub: hub is shut down")

// DefaultBuffer is the per-subscription channel capacity
const DefaultBuffer = 16

// Hub fans typed messages out to topic subscribers. It keeps the most
// recent message per topic so late subscribers start from current state.
type Hub[T any] struct {
	subscribers map[string]map[*Subscription[T]]struct{}
	latest      map[string]T
	buffer      int
	mu          sync.RWMutex
	shutdown    chan struct{}
	isShutdown  bool
}

// Subscription is one consumer of a topic
type Subscription[T any] struct {
	topic     string
	channel   chan T
	hub       *Hub[T]
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewHub creates a hub whose subscriptions buffer up to buffer messages
func NewHub[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub[T]{
		subscribers: make(map[string]map[*Subscription[T]]struct{}),
		latest:      make(map[string]T),
		buffer:      buffer,
		shutdown:    make(chan struct{}),
	}
}

// Subscribe registers a subscription to topic. If the topic already has a
// retained message it is delivered first. The subscription ends when ctx is
// cancelled, Unsubscribe is called or the hub shuts down.
func (h *Hub[T]) Subscribe(ctx context.Context, topic string) (*Subscription[T], error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		topic:   topic,
		channel: make(chan T, h.buffer),
		hub:     h,
		cancel:  cancel,
	}

	h.mu.Lock()
	if h.isShutdown {
		h.mu.Unlock()
		cancel()
		return nil, ErrShutdown
	}
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[*Subscription[T]]struct{})
	}
	h.subscribers[topic][sub] = struct{}{}
	if msg, ok := h.latest[topic]; ok {
		sub.channel <- msg
	}
	h.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-h.shutdown:
		}
	}()

	return sub, nil
}

// Publish delivers message to every subscriber of topic without blocking.
// Subscribers whose buffer is full miss the message; they will see the
// next one.
func (h *Hub[T]) Publish(topic string, message T) {
	h.mu.Lock()
	if h.isShutdown {
		h.mu.Unlock()
		return
	}
	h.latest[topic] = message
	subs := make([]*Subscription[T], 0, len(h.subscribers[topic]))
	for sub := range h.subscribers[topic] {
		subs = append(subs, sub)
	}
	// Sends happen under the lock so Unsubscribe cannot close a channel
	// mid-send; they never block.
	for _, sub := range subs {
		select {
		case sub.channel <- message:
		default:
		}
	}
	h.mu.Unlock()
}

// Latest returns the retained message for topic
func (h *Hub[T]) Latest(topic string) (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, ok := h.latest[topic]
	return msg, ok
}

// Forget drops the retained message for topic
func (h *Hub[T]) Forget(topic string) {
	h.mu.Lock()
	delete(h.latest, topic)
	h.mu.Unlock()
}

// SubscriberCount returns the number of subscribers for a topic
func (h *Hub[T]) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// Shutdown closes all subscriptions. Further publishes are ignored.
func (h *Hub[T]) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.isShutdown {
		return
	}
	h.isShutdown = true
	close(h.shutdown)

	for topic, subs := range h.subscribers {
		for sub := range subs {
			sub.close()
			sub.cancel()
		}
		delete(h.subscribers, topic)
	}
}

// Channel returns the subscription's message channel. It is closed when
// the subscription ends.
func (s *Subscription[T]) Channel() <-chan T {
	return s.channel
}

// Topic returns the subscribed topic
func (s *Subscription[T]) Topic() string {
	return s.topic
}

// Unsubscribe removes the subscription and closes its channel
func (s *Subscription[T]) Unsubscribe() {
	s.cancel()

	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if subs := s.hub.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.hub.subscribers, s.topic)
		}
	}
	s.close()
}

func (s *Subscription[T]) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
