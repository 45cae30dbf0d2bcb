// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateTestingItemValidation(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	_, err := CreateTestingItem(ctx, CreateTestingItemInput{
		NameEn:          "Glucose",
		ReferenceRange:  "70 - 100",
		MeasurementUnit: "   ",
		Interpretation:  "Blood sugar",
	})
	if !errors.Is(err, ErrTestingItemFieldRequired) {
		t.Fatalf("expected ErrTestingItemFieldRequired, got %v", err)
	}

	items, err := ListTestingItems(ctx, OrderByName)
	if err != nil {
		t.Fatalf("ListTestingItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items after failed create, got %d", len(items))
	}
}

func TestCreateAndGetTestingItem(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	low, high := 70.0, 100.0
	created, err := CreateTestingItem(ctx, CreateTestingItemInput{
		NameEn:          " Glucose ",
		NameSecondary:   stringPtr("Blutzucker"),
		ReferenceRange:  "70 - 100",
		MeasurementUnit: "mg/dL",
		RiskLevelLow:    &low,
		RiskLevelHigh:   &high,
		Interpretation:  "Blood sugar",
	})
	if err != nil {
		t.Fatalf("CreateTestingItem failed: %v", err)
	}
	if created.NameEn != "Glucose" {
		t.Fatalf("expected trimmed name, got %q", created.NameEn)
	}

	item, err := GetTestingItem(ctx, created.ID.String())
	if err != nil {
		t.Fatalf("GetTestingItem failed: %v", err)
	}
	if item.NameSecondary == nil || *item.NameSecondary != "Blutzucker" {
		t.Fatalf("unexpected secondary name: %v", item.NameSecondary)
	}
	if item.RiskLevelLow == nil || *item.RiskLevelLow != 70 || item.RiskLevelHigh == nil || *item.RiskLevelHigh != 100 {
		t.Fatalf("unexpected thresholds: %v %v", item.RiskLevelLow, item.RiskLevelHigh)
	}
	if item.Notes != nil {
		t.Fatalf("expected no notes, got %q", *item.Notes)
	}

	if _, err := GetTestingItem(ctx, uuid.NewString()); !errors.Is(err, ErrTestingItemNotFound) {
		t.Fatalf("expected ErrTestingItemNotFound, got %v", err)
	}
}

func TestListTestingItemsOrder(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	mustCreateTestingItem(t, "Triglyceride")
	time.Sleep(5 * time.Millisecond)
	mustCreateTestingItem(t, "Albumin")
	time.Sleep(5 * time.Millisecond)
	mustCreateTestingItem(t, "Cholesterol")

	byName, err := ListTestingItems(ctx, OrderByName)
	if err != nil {
		t.Fatalf("ListTestingItems(OrderByName) failed: %v", err)
	}
	if len(byName) != 3 {
		t.Fatalf("expected 3 items, got %d", len(byName))
	}
	if byName[0].NameEn != "Albumin" || byName[1].NameEn != "Cholesterol" || byName[2].NameEn != "Triglyceride" {
		t.Fatalf("unexpected name order: %s, %s, %s", byName[0].NameEn, byName[1].NameEn, byName[2].NameEn)
	}

	newest, err := ListTestingItems(ctx, OrderByNewest)
	if err != nil {
		t.Fatalf("ListTestingItems(OrderByNewest) failed: %v", err)
	}
	if len(newest) != 3 {
		t.Fatalf("expected 3 items, got %d", len(newest))
	}
	if newest[0].NameEn != "Cholesterol" || newest[2].NameEn != "Triglyceride" {
		t.Fatalf("unexpected newest order: %s, %s, %s", newest[0].NameEn, newest[1].NameEn, newest[2].NameEn)
	}
}

func TestDeleteTestingItemRemovesResults(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	identity := mustCreateIdentity(t, "erin@example.com", "Erin")
	kept := mustCreateTestingItem(t, "Albumin")
	removed := mustCreateTestingItem(t, "Cholesterol")

	_, err := SubmitTestResults(ctx, SubmitTestResultsInput{
		UserID:      identity.ID,
		SubmittedAt: time.Now(),
		Entries: []TestResultEntry{
			{TestingItemID: kept.ID, BeforeValue: 4, AfterValue: 4.2},
			{TestingItemID: removed.ID, BeforeValue: 180, AfterValue: 170},
		},
	})
	if err != nil {
		t.Fatalf("SubmitTestResults failed: %v", err)
	}

	count, err := CountResultsForTestingItem(ctx, removed.ID.String())
	if err != nil {
		t.Fatalf("CountResultsForTestingItem failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 result for item, got %d", count)
	}

	if err := DeleteTestingItem(ctx, removed.ID.String()); err != nil {
		t.Fatalf("DeleteTestingItem failed: %v", err)
	}

	items, err := ListTestingItems(ctx, OrderByName)
	if err != nil {
		t.Fatalf("ListTestingItems failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != kept.ID {
		t.Fatalf("expected only the kept item, got %+v", items)
	}

	results, err := ListTestResultsWithUsers(ctx)
	if err != nil {
		t.Fatalf("ListTestResultsWithUsers failed: %v", err)
	}
	if len(results) != 1 || results[0].TestingItemID != kept.ID {
		t.Fatalf("expected results of the deleted item to be removed, got %+v", results)
	}

	if err := DeleteTestingItem(ctx, removed.ID.String()); !errors.Is(err, ErrTestingItemNotFound) {
		t.Fatalf("expected ErrTestingItemNotFound on second delete, got %v", err)
	}
	if err := DeleteTestingItem(ctx, "bogus"); !errors.Is(err, ErrTestingItemNotFound) {
		t.Fatalf("expected ErrTestingItemNotFound for malformed id, got %v", err)
	}
}
