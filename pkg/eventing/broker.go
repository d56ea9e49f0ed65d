// Package eventing fans rollout progress events out to interested consumers,
// keeping the synchronous environment loop decoupled from whoever watches it.
package eventing

import (
	"fmt"
	"sync"
	"time"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// Kind labels what an event reports.
type Kind string

const (
	// KindEpisodeStarted fires after a successful reset.
	KindEpisodeStarted Kind = "episode_started"
	// KindStep fires for noteworthy steps: nonzero reward or termination.
	KindStep Kind = "step"
	// KindEpisodeFinished fires once an episode ends, whatever the outcome.
	KindEpisodeFinished Kind = "episode_finished"
)

// Event is one rollout progress notification.
type Event struct {
	Kind       Kind
	RunID      string
	Episode    int
	Step       int
	Action     core.Action
	Reward     int
	Return     int
	Terminated bool
	Outcome    string
	Timestamp  time.Time
}

// Broker broadcasts events to all subscribers. Sends never block the rollout
// loop: a subscriber whose channel is full surfaces as an error instead of a
// stall.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]chan<- Event
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[string]chan<- Event)}
}

// Publish broadcasts the event to every subscriber.
func (b *Broker) Publish(ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			return fmt.Errorf("subscriber %s's channel is full", id)
		}
	}
	return nil
}

// Subscribe registers a consumer channel under an identifier.
func (b *Broker) Subscribe(id string, ch chan<- Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; exists {
		return fmt.Errorf("subscriber %s is already registered", id)
	}
	b.subscribers[id] = ch
	return nil
}

// Unsubscribe removes a consumer.
func (b *Broker) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; !exists {
		return fmt.Errorf("subscriber %s is not registered", id)
	}
	delete(b.subscribers, id)
	return nil
}

// Reset drops all subscriptions.
func (b *Broker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string]chan<- Event)
}
