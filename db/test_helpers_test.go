// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
)

func testContext() context.Context {
	return context.Background()
}

func stringPtr(value string) *string {
	return &value
}

func mustCreateIdentity(t *testing.T, email string, displayName string) *Identity {
	t.Helper()
	identity, err := CreateIdentity(testContext(), CreateIdentityInput{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  stringPtr(displayName),
	})
	if err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}
	return identity
}

func mustCreateTestingItem(t *testing.T, name string) *TestingItem {
	t.Helper()
	item, err := CreateTestingItem(testContext(), CreateTestingItemInput{
		NameEn:          name,
		ReferenceRange:  "1 - 2",
		MeasurementUnit: "mg/dL",
		Interpretation:  "Interpretation of " + name,
	})
	if err != nil {
		t.Fatalf("failed to create testing item: %v", err)
	}
	return item
}
