package visualization

import (
	"sync/atomic"

	"github.com/dd0wney/cluso-storymap/pkg/pubsub"
)

// Publisher receives snapshots from a simulation. Publish is called on the
// simulation's goroutine and must not block for long.
type Publisher interface {
	Publish(Snapshot)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(Snapshot)

// Publish calls f
func (f PublisherFunc) Publish(s Snapshot) { f(s) }

// HubPublisher forwards snapshots to one topic of a pub/sub hub
type HubPublisher struct {
	hub   *pubsub.Hub[Snapshot]
	topic string
}

// NewHubPublisher creates a publisher bound to topic
func NewHubPublisher(hub *pubsub.Hub[Snapshot], topic string) *HubPublisher {
	return &HubPublisher{hub: hub, topic: topic}
}

// Publish implements Publisher
func (p *HubPublisher) Publish(s Snapshot) {
	p.hub.Publish(p.topic, s)
}

// Topic returns the hub topic snapshots are sent to
func (p *HubPublisher) Topic() string {
	return p.topic
}

// Latest keeps only the most recent snapshot for polling readers. It is
// safe to read from any goroutine.
type Latest struct {
	current atomic.Pointer[Snapshot]
}

// Publish implements Publisher
func (l *Latest) Publish(s Snapshot) {
	l.current.Store(&s)
}

// Load returns the most recent snapshot, if any has been published
func (l *Latest) Load() (Snapshot, bool) {
	s := l.current.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

type teePublisher []Publisher

func (t teePublisher) Publish(s Snapshot) {
	for _, p := range t {
		p.Publish(s)
	}
}

// Tee fans one snapshot stream out to several publishers. Nil entries are
// ignored.
func Tee(publishers ...Publisher) Publisher {
	out := make(teePublisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// shouldPublish decides whether tick produces a snapshot: every nth tick
// and always on the final one.
func shouldPublish(tick, every int, final bool) bool {
	return final || tick%every == 0
}
