/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"
)

// RoleAdmin is the role attribute value that grants administrator capability.
const RoleAdmin = "admin"

// Identity represents a registered account.
type Identity struct {
	ID          uuid.UUID `db:"id"`
	Email       string    `db:"email"`
	DisplayName *string   `db:"display_name"`
	Role        *string   `db:"role"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Name returns the display name, falling back to the email address.
func (i *Identity) Name() string {
	if i.DisplayName != nil && *i.DisplayName != "" {
		return *i.DisplayName
	}
	return i.Email
}

// TestingItem is an administrator-defined lab measurement.
type TestingItem struct {
	ID              uuid.UUID `db:"id"`
	NameEn          string    `db:"name_en"`
	NameSecondary   *string   `db:"name_secondary"`
	ReferenceRange  string    `db:"reference_range"`
	MeasurementUnit string    `db:"measurement_unit"`
	RiskLevelLow    *float64  `db:"risk_level_low"`
	RiskLevelHigh   *float64  `db:"risk_level_high"`
	Interpretation  string    `db:"interpretation"`
	Notes           *string   `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
}

// TestResult is one before/after measurement for one testing item.
type TestResult struct {
	ID            uuid.UUID `db:"id"`
	TestingItemID uuid.UUID `db:"testing_item_id"`
	UserID        uuid.UUID `db:"user_id"`
	BeforeValue   float64   `db:"before_value"`
	AfterValue    float64   `db:"after_value"`
	TestDate      time.Time `db:"test_date"`
	CreatedAt     time.Time `db:"created_at"`
}

// TestResultWithUser is a row of the user_test_results_with_users view.
type TestResultWithUser struct {
	ID              uuid.UUID `db:"id"`
	TestingItemID   uuid.UUID `db:"testing_item_id"`
	UserID          uuid.UUID `db:"user_id"`
	BeforeValue     float64   `db:"before_value"`
	AfterValue      float64   `db:"after_value"`
	TestDate        time.Time `db:"test_date"`
	NameEn          string    `db:"name_en"`
	NameSecondary   *string   `db:"name_secondary"`
	ReferenceRange  string    `db:"reference_range"`
	MeasurementUnit string    `db:"measurement_unit"`
	Interpretation  string    `db:"interpretation"`
	Email           string    `db:"email"`
	DisplayName     *string   `db:"display_name"`
}
