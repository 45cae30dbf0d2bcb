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
)

// TestingItemOrder selects the ordering of a catalog listing.
type TestingItemOrder int

const (
	// OrderByName sorts by English name, as used by the submission form.
	OrderByName TestingItemOrder = iota
	// OrderByNewest sorts by creation time descending, as used by the management list.
	OrderByNewest
)

const testingItemColumns = `id, name_en, name_secondary, reference_range, measurement_unit,
	risk_level_low, risk_level_high, interpretation, notes, created_at`

// CreateTestingItemInput holds the fields of a new catalog item.
type CreateTestingItemInput struct {
	NameEn          string
	NameSecondary   *string
	ReferenceRange  string
	MeasurementUnit string
	RiskLevelLow    *float64
	RiskLevelHigh   *float64
	Interpretation  string
	Notes           *string
}

// Validate trims the required fields and reports the first missing one.
func (in *CreateTestingItemInput) Validate() error {
	in.NameEn = strings.TrimSpace(in.NameEn)
	in.ReferenceRange = strings.TrimSpace(in.ReferenceRange)
	in.MeasurementUnit = strings.TrimSpace(in.MeasurementUnit)
	in.Interpretation = strings.TrimSpace(in.Interpretation)

	required := []struct {
		name  string
		value string
	}{
		{"English name", in.NameEn},
		{"reference range", in.ReferenceRange},
		{"measurement unit", in.MeasurementUnit},
		{"interpretation", in.Interpretation},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%w: %s", ErrTestingItemFieldRequired, field.name)
		}
	}

	return nil
}

func scanTestingItem(row pgx.Row) (*TestingItem, error) {
	var item TestingItem
	if err := row.Scan(
		&item.ID, &item.NameEn, &item.NameSecondary, &item.ReferenceRange, &item.MeasurementUnit,
		&item.RiskLevelLow, &item.RiskLevelHigh, &item.Interpretation, &item.Notes, &item.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListTestingItems returns the whole catalog in the requested order.
func ListTestingItems(ctx context.Context, order TestingItemOrder) ([]TestingItem, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	orderBy := "name_en ASC, created_at ASC"
	if order == OrderByNewest {
		orderBy = "created_at DESC, name_en ASC"
	}

	rows, err := pool.Query(ctx, `SELECT `+testingItemColumns+` FROM testing_items ORDER BY `+orderBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list testing items: %w", err)
	}
	defer rows.Close()

	items := []TestingItem{}
	for rows.Next() {
		item, err := scanTestingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan testing item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating testing items: %w", err)
	}

	return items, nil
}

// GetTestingItem returns a single catalog item.
func GetTestingItem(ctx context.Context, id string) (*TestingItem, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTestingItemNotFound
	}

	item, err := scanTestingItem(pool.QueryRow(ctx, `SELECT `+testingItemColumns+` FROM testing_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestingItemNotFound
		}
		return nil, fmt.Errorf("failed to get testing item: %w", err)
	}

	return item, nil
}

// CreateTestingItem inserts a catalog item and returns the stored row.
func CreateTestingItem(ctx context.Context, input CreateTestingItemInput) (*TestingItem, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO testing_items (name_en, name_secondary, reference_range, measurement_unit,
			risk_level_low, risk_level_high, interpretation, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + testingItemColumns

	item, err := scanTestingItem(pool.QueryRow(ctx, query,
		input.NameEn, input.NameSecondary, input.ReferenceRange, input.MeasurementUnit,
		input.RiskLevelLow, input.RiskLevelHigh, input.Interpretation, input.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create testing item: %w", err)
	}

	return item, nil
}

// DeleteTestingItem removes a catalog item and, by cascade, its results.
func DeleteTestingItem(ctx context.Context, id string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if _, err := uuid.Parse(id); err != nil {
		return ErrTestingItemNotFound
	}

	command, err := pool.Exec(ctx, `DELETE FROM testing_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete testing item: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrTestingItemNotFound
	}

	return nil
}

// CountResultsForTestingItem returns how many stored results reference the item.
func CountResultsForTestingItem(ctx context.Context, id string) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_test_results WHERE testing_item_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}

	return count, nil
}
