/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
)

func floatPtr(v float64) *float64 {
	return &v
}

func textPtr(v string) *string {
	return &v
}

// DefaultCatalog returns the built-in testing item definitions.
func DefaultCatalog() []CreateTestingItemInput {
	return []CreateTestingItemInput{
		{
			NameEn:          "Blood Viscosity",
			NameSecondary:   textPtr("血液粘度"),
			ReferenceRange:  "1.3 - 1.7",
			MeasurementUnit: "mPa·s",
			RiskLevelLow:    floatPtr(1.3),
			RiskLevelHigh:   floatPtr(1.7),
			Interpretation:  "Indicates blood flow characteristics and potential circulation issues",
		},
		{
			NameEn:          "Total Cholesterol (TC)",
			NameSecondary:   textPtr("总胆固醇"),
			ReferenceRange:  "125 - 200",
			MeasurementUnit: "mg/dL",
			RiskLevelLow:    floatPtr(125),
			RiskLevelHigh:   floatPtr(200),
			Interpretation:  "Measures overall cholesterol levels in blood",
		},
		{
			NameEn:          "Triglyceride (TG)",
			NameSecondary:   textPtr("甘油三酯"),
			ReferenceRange:  "50 - 150",
			MeasurementUnit: "mg/dL",
			RiskLevelLow:    floatPtr(50),
			RiskLevelHigh:   floatPtr(150),
			Interpretation:  "Indicates fat levels in blood",
		},
		{
			NameEn:          "High-Density Lipoprotein (HDL-C)",
			NameSecondary:   textPtr("高密度脂蛋白"),
			ReferenceRange:  "40 - 60",
			MeasurementUnit: "mg/dL",
			RiskLevelLow:    floatPtr(40),
			Interpretation:  "Good cholesterol that helps remove other forms of cholesterol",
		},
		{
			NameEn:          "Low-Density Lipoprotein (LDL-C)",
			NameSecondary:   textPtr("低密度脂蛋白"),
			ReferenceRange:  "70 - 130",
			MeasurementUnit: "mg/dL",
			RiskLevelHigh:   floatPtr(130),
			Interpretation:  "Bad cholesterol that can build up in arteries",
		},
		{
			NameEn:          "Neutral Fat (MB)",
			NameSecondary:   textPtr("中性脂肪"),
			ReferenceRange:  "3.5 - 5.2",
			MeasurementUnit: "mmol/L",
			RiskLevelLow:    floatPtr(3.5),
			RiskLevelHigh:   floatPtr(5.2),
			Interpretation:  "Measures stored fat levels in the body",
		},
		{
			NameEn:          "Circulating Immune Complex (CIC)",
			NameSecondary:   textPtr("循环免疫复合物"),
			ReferenceRange:  "1.5 - 4.0",
			MeasurementUnit: "μg/mL",
			RiskLevelLow:    floatPtr(1.5),
			RiskLevelHigh:   floatPtr(4.0),
			Interpretation:  "Indicates immune system activity and potential autoimmune responses",
		},
	}
}

// SeedTestingItems inserts the default catalog. Existing items (and their
// results) are removed first when replace is set; otherwise definitions whose
// English name already exists are skipped.
func SeedTestingItems(ctx context.Context, replace bool) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	definitions := DefaultCatalog()
	logger.Infof("Seeding %d testing item definitions...", len(definitions))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if replace {
		if _, err := tx.Exec(ctx, `DELETE FROM testing_items`); err != nil {
			return 0, fmt.Errorf("failed to clear testing items: %w", err)
		}
	}

	query := `
		INSERT INTO testing_items (name_en, name_secondary, reference_range, measurement_unit,
			risk_level_low, risk_level_high, interpretation, notes)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::double precision, $6::double precision, $7::text, $8::text
		WHERE NOT EXISTS (SELECT 1 FROM testing_items WHERE name_en = $1::text)
	`

	inserted := 0

	for _, def := range definitions {
		command, err := tx.Exec(ctx, query,
			def.NameEn, def.NameSecondary, def.ReferenceRange, def.MeasurementUnit,
			def.RiskLevelLow, def.RiskLevelHigh, def.Interpretation, def.Notes,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to seed testing item %s: %w", def.NameEn, err)
		}

		inserted += int(command.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}

	logger.Infof("Seeded %d testing items", inserted)

	return inserted, nil
}
