/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

const identityColumns = `id, email, display_name, role, created_at, updated_at`

// CreateIdentityInput defines data for registering an identity.
type CreateIdentityInput struct {
	Email        string
	PasswordHash string
	DisplayName  *string
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanIdentity(row pgx.Row) (*Identity, error) {
	var identity Identity
	if err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.DisplayName,
		&identity.Role,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &identity, nil
}

// CreateIdentity registers a new identity with no role attribute.
func CreateIdentity(ctx context.Context, input CreateIdentityInput) (*Identity, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	query := `
		INSERT INTO identities (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING ` + identityColumns

	identity, err := scanIdentity(pool.QueryRow(ctx, query, email, input.PasswordHash, input.DisplayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	return identity, nil
}

// GetIdentityByID returns an identity by ID.
func GetIdentityByID(ctx context.Context, id string) (*Identity, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrIdentityNotFound
	}

	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`

	identity, err := scanIdentity(pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return identity, nil
}

// GetIdentityCredentials returns the identity and its password hash for an email.
func GetIdentityCredentials(ctx context.Context, email string) (*Identity, string, error) {
	if pool == nil {
		return nil, "", ErrDatabaseConnectionNotInitialized
	}

	var (
		identity Identity
		hash     string
	)

	query := `
		SELECT ` + identityColumns + `, password_hash
		FROM identities
		WHERE lower(email) = $1
	`
	err := pool.QueryRow(ctx, query, NormalizeEmail(email)).Scan(
		&identity.ID,
		&identity.Email,
		&identity.DisplayName,
		&identity.Role,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&hash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrIdentityNotFound
		}
		return nil, "", fmt.Errorf("failed to get identity credentials: %w", err)
	}

	return &identity, hash, nil
}

// SetIdentityRole sets or clears (nil) the role attribute of the identity with the given email.
func SetIdentityRole(ctx context.Context, email string, role *string) (*Identity, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		UPDATE identities
		SET role = $1, updated_at = now()
		WHERE lower(email) = $2
		RETURNING ` + identityColumns

	identity, err := scanIdentity(pool.QueryRow(ctx, query, role, NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to set identity role: %w", err)
	}

	return identity, nil
}

// ListIdentities returns all identities ordered by email.
func ListIdentities(ctx context.Context) ([]Identity, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY email ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var identities []Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, *identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identities: %w", err)
	}

	return identities, nil
}
