/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flamego/session"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/humaidq/labtrack/db"
)

const (
	defaultLifetime         = time.Hour
	defaultRememberLifetime = 14 * 24 * time.Hour
)

// Options configures a Provider. Zero values select defaults.
type Options struct {
	// Lifetime is the session duration without "remember me".
	Lifetime time.Duration
	// RememberLifetime is the session duration with "remember me".
	RememberLifetime time.Duration
	// BcryptCost is the cost used for new password hashes.
	BcryptCost int
	// Now returns the current time.
	Now func() time.Time
}

// Session is the identity carried by a browser session.
type Session struct {
	ID        string
	Identity  *db.Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Lifetime returns how long the session was issued for.
func (s *Session) Lifetime() time.Duration {
	return s.ExpiresAt.Sub(s.IssuedAt)
}

// SignInInput holds the credentials of a sign-in attempt.
type SignInInput struct {
	Email    string
	Password string
	Remember bool
}

// SignUpInput holds the fields of a new registration.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Provider is the identity provider. Sessions live in flamego sessions and
// every change is published to subscribers.
type Provider struct {
	store            IdentityStore
	lifetime         time.Duration
	rememberLifetime time.Duration
	cost             int
	now              func() time.Time
	events           broker
}

// NewProvider returns a provider backed by store.
func NewProvider(store IdentityStore, opts Options) *Provider {
	if opts.Lifetime <= 0 {
		opts.Lifetime = defaultLifetime
	}
	if opts.RememberLifetime <= 0 {
		opts.RememberLifetime = defaultRememberLifetime
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Provider{
		store:            store,
		lifetime:         opts.Lifetime,
		rememberLifetime: opts.RememberLifetime,
		cost:             opts.BcryptCost,
		now:              opts.Now,
	}
}

// Subscribe registers listener for session events. The returned function
// removes the registration and is safe to call more than once.
func (p *Provider) Subscribe(listener Listener) func() {
	return p.events.subscribe(listener)
}

// Now returns the provider clock.
func (p *Provider) Now() time.Time {
	return p.now()
}

// CurrentSession returns the session persisted in s. An expired session is
// cleared and reported as ErrSessionExpired.
func (p *Provider) CurrentSession(s session.Session) (*Session, error) {
	current, ok := readSession(s)
	if !ok {
		return nil, ErrSessionMissing
	}

	if !p.now().Before(current.ExpiresAt) {
		clearSession(s)
		p.events.publish(Event{
			Type:      EventSignedOut,
			SessionID: s.ID(),
			Identity:  current.Identity,
			At:        p.now(),
		})
		return nil, ErrSessionExpired
	}

	return current, nil
}

// Authenticate checks credentials without touching any session.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (*db.Identity, error) {
	email = db.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	identity, hash, err := p.store.GetIdentityCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrIdentityNotFound) {
			_, _ = verifyPassword(string(dummyHash), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	ok, err := verifyPassword(hash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}

// SignIn authenticates and, on success, issues a session into s. A failed
// attempt leaves s untouched.
func (p *Provider) SignIn(ctx context.Context, s session.Session, input SignInInput) (*Session, error) {
	identity, err := p.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	return p.StartSession(s, identity, input.Remember), nil
}

// StartSession issues a session for an already authenticated identity.
func (p *Provider) StartSession(s session.Session, identity *db.Identity, remember bool) *Session {
	lifetime := p.lifetime
	if remember {
		lifetime = p.rememberLifetime
	}

	now := p.now()
	issued := &Session{
		ID:        s.ID(),
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(lifetime),
	}
	writeSession(s, issued)

	logger.Info("Session issued", "identity_id", identity.ID, "expires_at", issued.ExpiresAt)
	p.events.publish(Event{
		Type:      EventSignedIn,
		SessionID: issued.ID,
		Identity:  identity,
		ExpiresAt: issued.ExpiresAt,
		At:        now,
	})

	return issued
}

// SignUp registers a new identity and signs it in.
func (p *Provider) SignUp(ctx context.Context, s session.Session, input SignUpInput) (*Session, error) {
	email := db.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := hashPassword(input.Password, p.cost)
	if err != nil {
		return nil, err
	}

	var displayName *string
	if name := strings.TrimSpace(input.DisplayName); name != "" {
		displayName = &name
	}

	identity, err := p.store.CreateIdentity(ctx, db.CreateIdentityInput{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	})
	if err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return nil, ErrUserAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}

	return p.StartSession(s, identity, false), nil
}

// SignOut clears the identity from s. Signing out an empty session is not an
// error.
func (p *Provider) SignOut(_ context.Context, s session.Session) error {
	var identity *db.Identity
	if current, ok := readSession(s); ok {
		identity = current.Identity
	}

	clearSession(s)
	p.events.publish(Event{
		Type:      EventSignedOut,
		SessionID: s.ID(),
		Identity:  identity,
		At:        p.now(),
	})

	return nil
}

// Refresh reloads the identity and extends the session by its original
// lifetime.
func (p *Provider) Refresh(ctx context.Context, s session.Session) (*Session, error) {
	current, err := p.CurrentSession(s)
	if err != nil {
		return nil, err
	}

	identity, err := p.fetchIdentity(ctx, s, current)
	if err != nil {
		return nil, err
	}

	now := p.now()
	refreshed := &Session{
		ID:        s.ID(),
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(current.Lifetime()),
	}
	writeSession(s, refreshed)

	p.events.publish(Event{
		Type:      EventTokenRefreshed,
		SessionID: refreshed.ID,
		Identity:  identity,
		ExpiresAt: refreshed.ExpiresAt,
		At:        now,
	})

	return refreshed, nil
}

// NeedsRefresh reports whether the session is past half of its lifetime.
func (p *Provider) NeedsRefresh(current *Session) bool {
	if current == nil {
		return false
	}
	half := current.IssuedAt.Add(current.Lifetime() / 2)
	return !p.now().Before(half)
}

// User fetches the identity of s fresh from the store. When the stored
// identity differs from the session copy the session is rewritten and
// EventUserUpdated is published.
func (p *Provider) User(ctx context.Context, s session.Session) (*db.Identity, error) {
	current, err := p.CurrentSession(s)
	if err != nil {
		return nil, err
	}

	identity, err := p.fetchIdentity(ctx, s, current)
	if err != nil {
		return nil, err
	}

	if identityChanged(current.Identity, identity) {
		current.Identity = identity
		writeSession(s, current)

		logger.Info("Identity changed since sign in", "identity_id", identity.ID, "role", roleValue(identity))
		p.events.publish(Event{
			Type:      EventUserUpdated,
			SessionID: s.ID(),
			Identity:  identity,
			ExpiresAt: current.ExpiresAt,
			At:        p.now(),
		})
	}

	return identity, nil
}

// fetchIdentity loads the identity behind current. A deleted identity ends
// the session.
func (p *Provider) fetchIdentity(ctx context.Context, s session.Session, current *Session) (*db.Identity, error) {
	identity, err := p.store.GetIdentityByID(ctx, current.Identity.ID.String())
	if err == nil {
		return identity, nil
	}

	if errors.Is(err, db.ErrIdentityNotFound) {
		_ = p.SignOut(ctx, s)
		return nil, ErrSessionMissing
	}

	return nil, fmt.Errorf("failed to load identity: %w", err)
}

func identityChanged(old, fresh *db.Identity) bool {
	return old.Email != fresh.Email ||
		roleValue(old) != roleValue(fresh) ||
		stringValue(old.DisplayName) != stringValue(fresh.DisplayName)
}

func roleValue(identity *db.Identity) string {
	if identity == nil {
		return ""
	}
	return stringValue(identity.Role)
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func writeSession(s session.Session, current *Session) {
	s.Set(db.SessionKeyIdentityID, current.Identity.ID.String())
	s.Set(db.SessionKeyEmail, current.Identity.Email)
	s.Set(db.SessionKeyDisplayName, stringValue(current.Identity.DisplayName))
	s.Set(db.SessionKeyRole, stringValue(current.Identity.Role))
	s.Set(db.SessionKeyIssuedAt, current.IssuedAt.Unix())
	s.Set(db.SessionKeyExpiresAt, current.ExpiresAt.Unix())
}

func readSession(s session.Session) (*Session, bool) {
	rawID, ok := s.Get(db.SessionKeyIdentityID).(string)
	if !ok || rawID == "" {
		return nil, false
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, false
	}

	issuedAt, ok := s.Get(db.SessionKeyIssuedAt).(int64)
	if !ok {
		return nil, false
	}
	expiresAt, ok := s.Get(db.SessionKeyExpiresAt).(int64)
	if !ok {
		return nil, false
	}

	email, _ := s.Get(db.SessionKeyEmail).(string)
	displayName, _ := s.Get(db.SessionKeyDisplayName).(string)
	role, _ := s.Get(db.SessionKeyRole).(string)

	return &Session{
		ID: s.ID(),
		Identity: &db.Identity{
			ID:          id,
			Email:       email,
			DisplayName: optionalString(displayName),
			Role:        optionalString(role),
		},
		IssuedAt:  time.Unix(issuedAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, true
}

func clearSession(s session.Session) {
	s.Delete(db.SessionKeyIdentityID)
	s.Delete(db.SessionKeyEmail)
	s.Delete(db.SessionKeyDisplayName)
	s.Delete(db.SessionKeyRole)
	s.Delete(db.SessionKeyIssuedAt)
	s.Delete(db.SessionKeyExpiresAt)
}
