/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flamego/session"
	"github.com/jackc/pgx/v5"
)

// Session keys written by the identity provider.
const (
	SessionKeyIdentityID  = "identity_id"
	SessionKeyEmail       = "identity_email"
	SessionKeyDisplayName = "identity_display_name"
	SessionKeyRole        = "identity_role"
	SessionKeyIssuedAt    = "identity_issued_at"
	SessionKeyExpiresAt   = "identity_expires_at"
)

const (
	defaultSessionLifetime = 30 * 24 * time.Hour
	defaultSessionTable    = "flamego_sessions"
)

// PostgresSessionConfig contains options for the PostgreSQL session store
type PostgresSessionConfig struct {
	// Lifetime is the idle duration before a session is recycled. Default is 30 days.
	Lifetime time.Duration
	// TableName is the name of the session table. Default is "flamego_sessions".
	TableName string
	// Encoder is the encoder to encode session data. Default is session.GobEncoder.
	Encoder session.Encoder
	// Decoder is the decoder to decode session data. Default is session.GobDecoder.
	Decoder session.Decoder
}

// PostgresSessionStore implements session.Store for PostgreSQL
type PostgresSessionStore struct {
	config   PostgresSessionConfig
	encoder  session.Encoder
	decoder  session.Decoder
	idWriter session.IDWriter
}

// NewPostgresSessionStore returns a store with defaults applied to config.
func NewPostgresSessionStore(config PostgresSessionConfig) *PostgresSessionStore {
	if config.Lifetime == 0 {
		config.Lifetime = defaultSessionLifetime
	}
	if config.TableName == "" {
		config.TableName = defaultSessionTable
	}
	if config.Encoder == nil {
		config.Encoder = session.GobEncoder
	}
	if config.Decoder == nil {
		config.Decoder = session.GobDecoder
	}

	return &PostgresSessionStore{
		config:   config,
		encoder:  config.Encoder,
		decoder:  config.Decoder,
		idWriter: func(http.ResponseWriter, *http.Request, string) {},
	}
}

// PostgresSessionIniter returns the Initer for the PostgreSQL session store.
// The session.IDWriter passed by the session middleware is used to send a
// regenerated session ID back to the client.
func PostgresSessionIniter() session.Initer {
	return func(ctx context.Context, args ...interface{}) (session.Store, error) {
		var (
			config   PostgresSessionConfig
			idWriter session.IDWriter
		)
		for _, arg := range args {
			switch v := arg.(type) {
			case PostgresSessionConfig:
				config = v
			case session.IDWriter:
				idWriter = v
			default:
				return nil, ErrInvalidSessionConfig
			}
		}

		store := NewPostgresSessionStore(config)
		if idWriter != nil {
			store.idWriter = idWriter
		}

		return store, nil
	}
}

// Exist returns true if the session with given ID exists and hasn't expired
func (s *PostgresSessionStore) Exist(ctx context.Context, sid string) bool {
	if pool == nil {
		return false
	}

	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+s.table()+` WHERE id = $1 AND expires_at > NOW())`,
		sid,
	).Scan(&exists)
	return err == nil && exists
}

// Read returns the session with given ID. A missing or undecodable session
// yields a fresh session with the same ID.
func (s *PostgresSessionStore) Read(ctx context.Context, sid string) (session.Session, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var data []byte
	err := pool.QueryRow(ctx,
		`SELECT data FROM `+s.table()+` WHERE id = $1 AND expires_at > NOW()`,
		sid,
	).Scan(&data)

	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if errors.Is(err, pgx.ErrNoRows) || len(data) == 0 {
		return session.NewBaseSession(sid, s.encoder, s.idWriter), nil
	}

	sessionData, err := s.decoder(data)
	if err != nil {
		logger.Warn("Discarding undecodable session", "error", err)
		return session.NewBaseSession(sid, s.encoder, s.idWriter), nil
	}

	return session.NewBaseSessionWithData(sid, s.encoder, s.idWriter, sessionData), nil
}

// Destroy deletes session with given ID from the session store completely
func (s *PostgresSessionStore) Destroy(ctx context.Context, sid string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, sid)
	return err
}

// Touch updates the expiry time of the session with given ID
func (s *PostgresSessionStore) Touch(ctx context.Context, sid string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx,
		`UPDATE `+s.table()+` SET expires_at = $1 WHERE id = $2`,
		time.Now().Add(s.config.Lifetime),
		sid,
	)
	return err
}

// Save persists session data to the session store
func (s *PostgresSessionStore) Save(ctx context.Context, sess session.Session) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	data, err := sess.Encode()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at`,
		sess.ID(),
		data,
		time.Now().Add(s.config.Lifetime),
	)

	return err
}

// GC performs a garbage collection operation on the session store
func (s *PostgresSessionStore) GC(ctx context.Context) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE expires_at < NOW()`)
	return err
}

// SessionData is a decoded signed-in session row.
type SessionData struct {
	ID         string
	ExpiresAt  time.Time
	IdentityID string
	Email      string
}

// ListIdentitySessions returns the live signed-in sessions. An empty
// identityID returns sessions of every identity.
func (s *PostgresSessionStore) ListIdentitySessions(ctx context.Context, identityID string) ([]SessionData, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		`SELECT id, data, expires_at FROM `+s.table()+` WHERE expires_at > NOW() ORDER BY expires_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionData
	for rows.Next() {
		var (
			id        string
			data      []byte
			expiresAt time.Time
		)

		if err := rows.Scan(&id, &data, &expiresAt); err != nil {
			return nil, err
		}

		sessionData, err := s.decoder(data)
		if err != nil {
			continue
		}

		sessionIdentity, _ := sessionData[SessionKeyIdentityID].(string)
		if sessionIdentity == "" {
			continue
		}
		if identityID != "" && sessionIdentity != identityID {
			continue
		}

		email, _ := sessionData[SessionKeyEmail].(string)

		sessions = append(sessions, SessionData{
			ID:         id,
			ExpiresAt:  expiresAt,
			IdentityID: sessionIdentity,
			Email:      email,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// DestroyIdentitySessions deletes every live session of an identity and
// returns how many were removed.
func (s *PostgresSessionStore) DestroyIdentitySessions(ctx context.Context, identityID string) (int, error) {
	if identityID == "" {
		return 0, ErrIdentityNotFound
	}

	sessions, err := s.ListIdentitySessions(ctx, identityID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, sess := range sessions {
		if err := s.Destroy(ctx, sess.ID); err != nil {
			return deleted, err
		}
		deleted++
	}

	return deleted, nil
}

func (s *PostgresSessionStore) table() string {
	return pgx.Identifier{s.config.TableName}.Sanitize()
}
