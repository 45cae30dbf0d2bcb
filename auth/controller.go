/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flamego/session"
	"github.com/google/uuid"
)

type controllerEntry struct {
	state      State
	identityID uuid.UUID
	expiresAt  time.Time
}

// Controller owns the authentication state of every live browser session.
// It holds the only provider subscription of the process.
type Controller struct {
	provider    *Provider
	unsubscribe func()
	closeOnce   sync.Once

	mu      sync.RWMutex
	entries map[string]controllerEntry
}

// NewController subscribes to provider events. Call Close on shutdown.
func NewController(provider *Provider) *Controller {
	c := &Controller{
		provider: provider,
		entries:  make(map[string]controllerEntry),
	}
	c.unsubscribe = provider.Subscribe(c.handleEvent)

	return c
}

// Close removes the provider subscription. Further calls do nothing.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.unsubscribe()
		logger.Debug("Auth controller unsubscribed")
	})
}

// State returns the known state of a session id. Unknown sessions are
// reported as loading.
func (c *Controller) State(sid string) State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[sid]
	if !ok {
		return StateLoading
	}
	return entry.state
}

// Len returns the number of tracked sessions.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Resolve settles the state of s. A loading session is resolved from the
// persisted session; a session past half of its lifetime is refreshed.
func (c *Controller) Resolve(ctx context.Context, s session.Session) (State, *Session) {
	current, err := c.provider.CurrentSession(s)
	if err != nil {
		c.Forget(s.ID())
		return StateUnauthenticated, nil
	}

	if c.provider.NeedsRefresh(current) {
		refreshed, err := c.provider.Refresh(ctx, s)
		switch {
		case err == nil:
			current = refreshed
		case errors.Is(err, ErrSessionMissing), errors.Is(err, ErrSessionExpired):
			c.Forget(s.ID())
			return StateUnauthenticated, nil
		default:
			logger.Warn("Failed to refresh session", "identity_id", current.Identity.ID, "error", err)
		}
	}

	c.mu.RLock()
	entry, ok := c.entries[s.ID()]
	c.mu.RUnlock()
	if ok && entry.identityID == current.Identity.ID {
		return entry.state, current
	}

	state := StateFor(current.Identity)
	c.set(s.ID(), controllerEntry{
		state:      state,
		identityID: current.Identity.ID,
		expiresAt:  current.ExpiresAt,
	})

	return state, current
}

func (c *Controller) handleEvent(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case EventSignedIn, EventTokenRefreshed:
		if event.Identity == nil {
			return
		}
		c.entries[event.SessionID] = controllerEntry{
			state:      StateFor(event.Identity),
			identityID: event.Identity.ID,
			expiresAt:  event.ExpiresAt,
		}
	case EventUserUpdated:
		if event.Identity == nil {
			return
		}
		state := StateFor(event.Identity)
		for sid, entry := range c.entries {
			if entry.identityID == event.Identity.ID {
				entry.state = state
				c.entries[sid] = entry
			}
		}
		if entry, ok := c.entries[event.SessionID]; ok {
			entry.expiresAt = event.ExpiresAt
			c.entries[event.SessionID] = entry
		}
	case EventSignedOut:
		delete(c.entries, event.SessionID)
	}

	c.pruneLocked(event.At)
}

func (c *Controller) set(sid string, entry controllerEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sid] = entry
}

// Forget drops the tracked state of sid, e.g. after the session ID has been
// rotated away.
func (c *Controller) Forget(sid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sid)
}

func (c *Controller) pruneLocked(now time.Time) {
	if now.IsZero() {
		return
	}
	for sid, entry := range c.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(c.entries, sid)
		}
	}
}
