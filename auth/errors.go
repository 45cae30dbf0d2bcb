/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package auth

import "errors"

// Provider errors are shown to the user as-is.
//
//nolint:staticcheck // user-facing messages
var (
	ErrInvalidCredentials    = errors.New("Invalid login credentials")
	ErrUserAlreadyRegistered = errors.New("User already registered")
	ErrEmailRequired         = errors.New("Email is required")
	ErrPasswordRequired      = errors.New("Password is required")
	ErrWeakPassword          = errors.New("Password should be at least 6 characters")
	ErrSessionMissing        = errors.New("Auth session missing")
	ErrSessionExpired        = errors.New("Session expired, please sign in again")
	ErrAdminRequired         = errors.New("Access denied. Admin privileges required.")
)
