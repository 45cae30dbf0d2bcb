// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSubmitTestResultsStoresEveryEntry(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	identity := mustCreateIdentity(t, "frank@example.com", "Frank")
	tc := mustCreateTestingItem(t, "Total Cholesterol (TC)")
	tg := mustCreateTestingItem(t, "Triglyceride (TG)")

	submittedAt := time.Date(2025, time.March, 4, 9, 30, 0, 0, time.UTC)
	created, err := SubmitTestResults(ctx, SubmitTestResultsInput{
		UserID:      identity.ID,
		SubmittedAt: submittedAt,
		Entries: []TestResultEntry{
			{TestingItemID: tc.ID, BeforeValue: 210, AfterValue: 185.5},
			{TestingItemID: tg.ID, BeforeValue: 160, AfterValue: 0.1},
		},
	})
	if err != nil {
		t.Fatalf("SubmitTestResults failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 created results, got %d", len(created))
	}
	for _, result := range created {
		if !result.TestDate.Equal(submittedAt) {
			t.Fatalf("expected test date %v, got %v", submittedAt, result.TestDate)
		}
		if result.UserID != identity.ID {
			t.Fatalf("unexpected user id %s", result.UserID)
		}
	}

	results, err := ListTestResultsForUser(ctx, identity.ID.String())
	if err != nil {
		t.Fatalf("ListTestResultsForUser failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byName := map[string]TestResultWithUser{}
	for _, result := range results {
		byName[result.NameEn] = result
	}
	if got := byName["Triglyceride (TG)"]; got.AfterValue != 0.1 || got.BeforeValue != 160 {
		t.Fatalf("expected exact values to round trip, got %+v", got)
	}
	if got := byName["Total Cholesterol (TC)"]; got.AfterValue != 185.5 || got.Email != "frank@example.com" {
		t.Fatalf("unexpected joined row: %+v", got)
	}
}

func TestSubmitTestResultsIsAllOrNothing(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	identity := mustCreateIdentity(t, "gina@example.com", "Gina")
	item := mustCreateTestingItem(t, "Albumin")

	_, err := SubmitTestResults(ctx, SubmitTestResultsInput{
		UserID:      identity.ID,
		SubmittedAt: time.Now(),
		Entries: []TestResultEntry{
			{TestingItemID: item.ID, BeforeValue: 4, AfterValue: 4.1},
			{TestingItemID: uuid.New(), BeforeValue: 1, AfterValue: 2},
		},
	})
	if err == nil {
		t.Fatalf("expected error for unknown testing item")
	}

	results, err := ListTestResultsWithUsers(ctx)
	if err != nil {
		t.Fatalf("ListTestResultsWithUsers failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no stored results after failed batch, got %d", len(results))
	}
}

func TestSubmitTestResultsRejectsEmptyInput(t *testing.T) {
	ctx := testContext()

	if _, err := SubmitTestResults(ctx, SubmitTestResultsInput{UserID: uuid.New()}); !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("expected ErrEmptySubmission, got %v", err)
	}

	_, err := SubmitTestResults(ctx, SubmitTestResultsInput{
		Entries: []TestResultEntry{{TestingItemID: uuid.New()}},
	})
	if !errors.Is(err, ErrSubmissionUserMissing) {
		t.Fatalf("expected ErrSubmissionUserMissing, got %v", err)
	}
}

func TestListTestResultsWithUsersNewestFirst(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	hana := mustCreateIdentity(t, "hana@example.com", "Hana")
	ivan := mustCreateIdentity(t, "ivan@example.com", "Ivan")
	item := mustCreateTestingItem(t, "Albumin")

	older := time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	for _, submission := range []SubmitTestResultsInput{
		{UserID: hana.ID, SubmittedAt: older, Entries: []TestResultEntry{{TestingItemID: item.ID, BeforeValue: 1, AfterValue: 2}}},
		{UserID: ivan.ID, SubmittedAt: newer, Entries: []TestResultEntry{{TestingItemID: item.ID, BeforeValue: 3, AfterValue: 4}}},
	} {
		if _, err := SubmitTestResults(ctx, submission); err != nil {
			t.Fatalf("SubmitTestResults failed: %v", err)
		}
	}

	results, err := ListTestResultsWithUsers(ctx)
	if err != nil {
		t.Fatalf("ListTestResultsWithUsers failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Email != "ivan@example.com" || results[1].Email != "hana@example.com" {
		t.Fatalf("expected newest first, got %s then %s", results[0].Email, results[1].Email)
	}
	if results[1].DisplayName == nil || *results[1].DisplayName != "Hana" {
		t.Fatalf("expected display name from identities, got %v", results[1].DisplayName)
	}

	own, err := ListTestResultsForUser(ctx, hana.ID.String())
	if err != nil {
		t.Fatalf("ListTestResultsForUser failed: %v", err)
	}
	if len(own) != 1 || own[0].UserID != hana.ID {
		t.Fatalf("expected only Hana's result, got %+v", own)
	}
}
