/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package auth

import (
	"sync"
	"time"

	"github.com/humaidq/labtrack/db"
)

// EventType names a session change.
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
	EventUserUpdated    EventType = "user_updated"
)

// Event is published by the provider after every session change.
type Event struct {
	Type      EventType
	SessionID string
	// Identity is nil for EventSignedOut when the session held no identity.
	Identity  *db.Identity
	ExpiresAt time.Time
	At        time.Time
}

// Listener receives provider events. It runs on the publishing goroutine and
// must not call back into the provider.
type Listener func(Event)

type subscriber struct {
	id       uint64
	listener Listener
}

type broker struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers []subscriber
}

func (b *broker) subscribe(listener Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscriber{id: id, listener: listener})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, sub := range b.subscribers {
				if sub.id == id {
					b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *broker) publish(event Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.listener(event)
	}
}

func (b *broker) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
