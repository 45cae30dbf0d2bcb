/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package auth

import (
	"context"

	"github.com/humaidq/labtrack/db"
)

// IdentityStore is the persistence the provider needs.
type IdentityStore interface {
	CreateIdentity(ctx context.Context, input db.CreateIdentityInput) (*db.Identity, error)
	GetIdentityByID(ctx context.Context, id string) (*db.Identity, error)
	GetIdentityCredentials(ctx context.Context, email string) (*db.Identity, string, error)
}

type dbStore struct{}

// NewDBStore returns an IdentityStore backed by the db package.
func NewDBStore() IdentityStore {
	return dbStore{}
}

func (dbStore) CreateIdentity(ctx context.Context, input db.CreateIdentityInput) (*db.Identity, error) {
	return db.CreateIdentity(ctx, input)
}

func (dbStore) GetIdentityByID(ctx context.Context, id string) (*db.Identity, error) {
	return db.GetIdentityByID(ctx, id)
}

func (dbStore) GetIdentityCredentials(ctx context.Context, email string) (*db.Identity, string, error) {
	return db.GetIdentityCredentials(ctx, email)
}
