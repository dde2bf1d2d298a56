// Package realtime pushes newly stored messages to active sessions.
// It provides best-effort fan-out with no ordering or durability
// guarantee: the message log stays authoritative and clients re-sync
// through the aggregator after a reconnect.
package realtime

import (
	"fmt"
	"log/slog"
	"sync"

	"secure-dm/domain/event"
)

// Subscription is one session's filtered view: every stored message
// addressed to the subscribing user. Close is idempotent and
// guarantees no further delivery, so an abandoned view cannot keep
// consuming events.
type Subscription struct {
	userID string
	events chan event.MessageStored
	broker *Broker
	once   sync.Once
}

// Events yields one event per message addressed to the subscriber.
// The channel is closed by Close.
func (s *Subscription) Events() <-chan event.MessageStored {
	return s.events
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.unsubscribe(s)
	})
}

// Broker routes stored-message events to the receiver's active
// subscriptions. Safe for concurrent use.
type Broker struct {
	log        *slog.Logger
	mu         sync.RWMutex
	subs       map[string]map[*Subscription]struct{}
	bufferSize int
}

func NewBroker(log *slog.Logger, bufferSize int) *Broker {
	return &Broker{
		log:        log,
		subs:       make(map[string]map[*Subscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscribe registers interest in messages where the receiver is
// userID. A user may hold several subscriptions (one per session).
func (b *Broker) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		userID: userID,
		events: make(chan event.MessageStored, b.bufferSize),
		broker: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[userID]; !ok {
		b.subs[userID] = make(map[*Subscription]struct{})
	}
	b.subs[userID][sub] = struct{}{}
	return sub
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if members, ok := b.subs[sub.userID]; ok {
		delete(members, sub)
		if len(members) == 0 {
			delete(b.subs, sub.userID)
		}
	}
	// Publish sends under the read lock, so once the write lock is
	// held nobody can still be sending on this channel.
	close(sub.events)
}

// Publish delivers the event to every subscription of the receiver.
// Delivery is non-blocking: a full session buffer drops the event,
// the client catches up on its next explicit fetch.
func (b *Broker) Publish(evt event.MessageStored) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[evt.ReceiverID] {
		select {
		case sub.events <- evt:
		default:
			b.log.Debug(fmt.Sprintf("Subscription buffer full for %s, dropping event", evt.ReceiverID))
		}
	}
}

// ActiveSubscribers reports how many users currently hold at least
// one open subscription.
func (b *Broker) ActiveSubscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
