/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	ErrDatabaseURLRequired              = errors.New("database URL is required")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in connection string")
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")

	ErrIdentityNotFound = errors.New("identity not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrEmailRequired    = errors.New("email is required")

	ErrTestingItemNotFound      = errors.New("testing item not found")
	ErrTestingItemFieldRequired = errors.New("testing item field is required")

	ErrEmptySubmission       = errors.New("submission has no results")
	ErrSubmissionUserMissing = errors.New("submission user is required")

	ErrInvalidSessionConfig = errors.New("invalid PostgresSessionConfig")
)
