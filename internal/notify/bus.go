// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

// Package notify is the process-wide broadcast bus for sync events.
// Delivery is lossy: each subscriber buffers up to the bus capacity and
// a subscriber that falls behind loses its oldest events, observing a
// Lagged marker instead of blocking publishers.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/keydrop/keydrop/models"
)

// DefaultBufferSize is the per-subscriber ring capacity when the
// configuration does not set one.
const DefaultBufferSize = 100

// Event is one delivery to a subscriber. When Lagged is set the
// subscriber fell behind and Skipped events were dropped; the
// subscription stays live and subsequent events follow.
type Event struct {
	Lagged       bool
	Skipped      int
	Notification models.SyncNotification
}

// Subscription is one device's live feed. Events arrive on C until
// Close is called or the bus shuts down.
type Subscription struct {
	UserID   uuid.UUID
	DeviceID uuid.UUID

	C <-chan Event

	bus     *Bus
	ch      chan Event
	mu      sync.Mutex
	skipped int
	closed  bool
}

// Close detaches the subscription from the bus and closes C.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

// Bus fans notifications out to per-device subscriptions. Publishers
// never block.
type Bus struct {
	mu       sync.RWMutex
	capacity int
	subs     map[*Subscription]struct{}
}

// NewBus creates a bus with the given per-subscriber capacity.
// Non-positive capacities fall back to [DefaultBufferSize].
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Bus{
		capacity: capacity,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a device feed. The caller owns the subscription
// and must Close it when the transport ends.
func (b *Bus) Subscribe(userID, deviceID uuid.UUID) *Subscription {
	ch := make(chan Event, b.capacity)
	sub := &Subscription{
		UserID:   userID,
		DeviceID: deviceID,
		C:        ch,
		ch:       ch,
		bus:      b,
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Publish broadcasts n to every subscription of the same user except
// the originating device. Subscribers with a full buffer lose their
// oldest pending event and accrue a lag count surfaced on the next
// successful delivery.
func (b *Bus) Publish(n models.SyncNotification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		if sub.UserID != n.UserID || sub.DeviceID == n.SourceDeviceID {
			continue
		}
		sub.push(n)
	}
}

func (s *Subscription) push(n models.SyncNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	ev := Event{Notification: n}
	if s.skipped > 0 {
		ev.Lagged = true
		ev.Skipped = s.skipped
	}

	select {
	case s.ch <- ev:
		s.skipped = 0
	default:
		// buffer full: drop the oldest pending event to make room
		select {
		case <-s.ch:
			s.skipped++
		default:
		}
		select {
		case s.ch <- Event{Lagged: true, Skipped: s.skipped + 1, Notification: n}:
			s.skipped = 0
		default:
			s.skipped++
		}
	}
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// SubscriberCount reports live subscriptions. Test helper.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
