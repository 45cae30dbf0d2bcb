/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TestResultEntry is one submitted before/after pair.
type TestResultEntry struct {
	TestingItemID uuid.UUID
	BeforeValue   float64
	AfterValue    float64
}

// SubmitTestResultsInput describes one submission event.
type SubmitTestResultsInput struct {
	UserID      uuid.UUID
	SubmittedAt time.Time
	Entries     []TestResultEntry
}

const resultWithUserColumns = `id, testing_item_id, user_id, before_value, after_value, test_date,
	name_en, name_secondary, reference_range, measurement_unit, interpretation, email, display_name`

// SubmitTestResults stores every entry of a submission in one transaction.
// Either all rows are created or none are.
func SubmitTestResults(ctx context.Context, input SubmitTestResultsInput) ([]TestResult, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}
	if input.UserID == uuid.Nil {
		return nil, ErrSubmissionUserMissing
	}
	if len(input.Entries) == 0 {
		return nil, ErrEmptySubmission
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO user_test_results (testing_item_id, user_id, before_value, after_value, test_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, testing_item_id, user_id, before_value, after_value, test_date, created_at
	`

	batch := &pgx.Batch{}
	for _, entry := range input.Entries {
		batch.Queue(query, entry.TestingItemID, input.UserID, entry.BeforeValue, entry.AfterValue, input.SubmittedAt)
	}

	results := tx.SendBatch(ctx, batch)

	created := make([]TestResult, 0, len(input.Entries))
	for range input.Entries {
		var result TestResult
		if err := results.QueryRow().Scan(
			&result.ID, &result.TestingItemID, &result.UserID,
			&result.BeforeValue, &result.AfterValue, &result.TestDate, &result.CreatedAt,
		); err != nil {
			results.Close()
			return nil, fmt.Errorf("failed to insert test result: %w", err)
		}
		created = append(created, result)
	}

	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish test result batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit test results: %w", err)
	}

	return created, nil
}

func scanResultsWithUsers(rows pgx.Rows) ([]TestResultWithUser, error) {
	defer rows.Close()

	results := []TestResultWithUser{}
	for rows.Next() {
		var r TestResultWithUser
		if err := rows.Scan(
			&r.ID, &r.TestingItemID, &r.UserID, &r.BeforeValue, &r.AfterValue, &r.TestDate,
			&r.NameEn, &r.NameSecondary, &r.ReferenceRange, &r.MeasurementUnit, &r.Interpretation,
			&r.Email, &r.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan test result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating test results: %w", err)
	}

	return results, nil
}

// ListTestResultsWithUsers returns every result joined with its submitter, newest first.
func ListTestResultsWithUsers(ctx context.Context) ([]TestResultWithUser, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT `+resultWithUserColumns+`
		FROM user_test_results_with_users
		ORDER BY test_date DESC, name_en ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list test results: %w", err)
	}

	return scanResultsWithUsers(rows)
}

// ListTestResultsForUser returns one identity's results, newest first.
func ListTestResultsForUser(ctx context.Context, userID string) ([]TestResultWithUser, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT `+resultWithUserColumns+`
		FROM user_test_results_with_users
		WHERE user_id = $1
		ORDER BY test_date DESC, name_en ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list test history: %w", err)
	}

	return scanResultsWithUsers(rows)
}
