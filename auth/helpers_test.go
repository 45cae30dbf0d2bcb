// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/humaidq/labtrack/db"
)

type testSession struct {
	id    string
	data  map[interface{}]interface{}
	flash interface{}
}

func newTestSession(id string) *testSession {
	return &testSession{
		id:   id,
		data: make(map[interface{}]interface{}),
	}
}

func (s *testSession) ID() string { return s.id }

func (s *testSession) RegenerateID(http.ResponseWriter, *http.Request) error { return nil }

func (s *testSession) Get(key interface{}) interface{} { return s.data[key] }

func (s *testSession) Set(key, val interface{}) { s.data[key] = val }

func (s *testSession) SetFlash(val interface{}) { s.flash = val }

func (s *testSession) Delete(key interface{}) { delete(s.data, key) }

func (s *testSession) Flush() { s.data = make(map[interface{}]interface{}) }

func (s *testSession) Encode() ([]byte, error) { return nil, nil }

func (s *testSession) HasChanged() bool { return true }

type fakeIdentityStore struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*db.Identity
	hashes     map[uuid.UUID]string
	lookupErr  error
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{
		identities: make(map[uuid.UUID]*db.Identity),
		hashes:     make(map[uuid.UUID]string),
	}
}

func (f *fakeIdentityStore) CreateIdentity(_ context.Context, input db.CreateIdentityInput) (*db.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email := db.NormalizeEmail(input.Email)
	for _, identity := range f.identities {
		if identity.Email == email {
			return nil, db.ErrEmailTaken
		}
	}

	identity := &db.Identity{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: input.DisplayName,
	}
	f.identities[identity.ID] = identity
	f.hashes[identity.ID] = input.PasswordHash

	copied := *identity
	return &copied, nil
}

func (f *fakeIdentityStore) GetIdentityByID(_ context.Context, id string) (*db.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lookupErr != nil {
		return nil, f.lookupErr
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, db.ErrIdentityNotFound
	}
	identity, ok := f.identities[parsed]
	if !ok {
		return nil, db.ErrIdentityNotFound
	}

	copied := *identity
	return &copied, nil
}

func (f *fakeIdentityStore) GetIdentityCredentials(_ context.Context, email string) (*db.Identity, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email = db.NormalizeEmail(email)
	for id, identity := range f.identities {
		if identity.Email == email {
			copied := *identity
			return &copied, f.hashes[id], nil
		}
	}

	return nil, "", db.ErrIdentityNotFound
}

func (f *fakeIdentityStore) setRole(t *testing.T, email string, role *string) {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, identity := range f.identities {
		if identity.Email == email {
			identity.Role = role
			return
		}
	}
	t.Fatalf("identity %q not found", email)
}

func (f *fakeIdentityStore) remove(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, identity := range f.identities {
		if identity.Email == email {
			delete(f.identities, id)
			delete(f.hashes, id)
		}
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, time.March, 4, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]EventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

func newTestProvider(t *testing.T) (*Provider, *fakeIdentityStore, *fakeClock) {
	t.Helper()

	store := newFakeIdentityStore()
	clock := newFakeClock()
	provider := NewProvider(store, Options{
		Lifetime:         time.Hour,
		RememberLifetime: 24 * time.Hour,
		BcryptCost:       bcrypt.MinCost,
		Now:              clock.Now,
	})

	return provider, store, clock
}

func mustSignUp(t *testing.T, p *Provider, s *testSession, email string) *Session {
	t.Helper()

	issued, err := p.SignUp(context.Background(), s, SignUpInput{
		Email:    email,
		Password: "secret-password",
	})
	if err != nil {
		t.Fatalf("SignUp(%q) failed: %v", email, err)
	}
	return issued
}

func stringPtr(v string) *string {
	return &v
}
