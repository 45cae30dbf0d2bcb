// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import "testing"

func TestSeedTestingItems(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	want := len(DefaultCatalog())

	inserted, err := SeedTestingItems(ctx, false)
	if err != nil {
		t.Fatalf("SeedTestingItems failed: %v", err)
	}
	if inserted != want {
		t.Fatalf("expected %d inserted, got %d", want, inserted)
	}

	inserted, err = SeedTestingItems(ctx, false)
	if err != nil {
		t.Fatalf("second SeedTestingItems failed: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected existing items to be skipped, got %d inserted", inserted)
	}

	mustCreateTestingItem(t, "Custom item")

	inserted, err = SeedTestingItems(ctx, true)
	if err != nil {
		t.Fatalf("SeedTestingItems(replace) failed: %v", err)
	}
	if inserted != want {
		t.Fatalf("expected %d inserted after replace, got %d", want, inserted)
	}

	items, err := ListTestingItems(ctx, OrderByName)
	if err != nil {
		t.Fatalf("ListTestingItems failed: %v", err)
	}
	if len(items) != want {
		t.Fatalf("expected custom item to be replaced, got %d items", len(items))
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range DefaultCatalog() {
		if err := def.Validate(); err != nil {
			t.Fatalf("catalog entry %q invalid: %v", def.NameEn, err)
		}
		if seen[def.NameEn] {
			t.Fatalf("duplicate catalog entry %q", def.NameEn)
		}
		seen[def.NameEn] = true
	}
}
