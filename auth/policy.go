/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package auth

import "github.com/humaidq/labtrack/db"

// State is the authentication state of one browser session.
type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateUser
	StateAdmin
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateUser:
		return "authenticated-user"
	case StateAdmin:
		return "authenticated-admin"
	default:
		return "unknown"
	}
}

// SignedIn reports whether the state carries any identity.
func (s State) SignedIn() bool {
	return s == StateUser || s == StateAdmin
}

// IsAdmin reports whether the identity holds the administrator role. It never
// consults the store; callers that need a fresh answer must refetch first.
func IsAdmin(identity *db.Identity) bool {
	return identity != nil && identity.Role != nil && *identity.Role == db.RoleAdmin
}

// StateFor maps an identity to its authenticated state.
func StateFor(identity *db.Identity) State {
	switch {
	case identity == nil:
		return StateUnauthenticated
	case IsAdmin(identity):
		return StateAdmin
	default:
		return StateUser
	}
}
