/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"strconv"
	"strings"
)

// formatValue prints the shortest text that parses back to v.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func withUnit(v float64, unit string) string {
	if unit == "" {
		return formatValue(v)
	}
	return formatValue(v) + " " + unit
}

func transcriptFilename(summary SubmissionSummary) string {
	return "test-results-" + summary.SubmittedAt.Format("2006-01-02") + ".txt"
}

// FormatTranscript renders a submission summary as plain text.
func FormatTranscript(summary SubmissionSummary) string {
	var b strings.Builder

	b.WriteString("Test Results\n")
	b.WriteString("Submitted: " + summary.SubmittedAt.Format("2006-01-02 15:04 MST") + "\n")
	b.WriteString("Tests: " + strconv.Itoa(len(summary.Entries)) + "\n")

	for i, entry := range summary.Entries {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(i+1) + ". " + entry.NameEn)
		if entry.NameSecondary != "" {
			b.WriteString(" (" + entry.NameSecondary + ")")
		}
		b.WriteString("\n")
		b.WriteString("   Before: " + withUnit(entry.BeforeValue, entry.MeasurementUnit) + "\n")
		b.WriteString("   After: " + withUnit(entry.AfterValue, entry.MeasurementUnit) + "\n")
		b.WriteString("   Reference range: " + entry.ReferenceRange + "\n")
		b.WriteString("   Interpretation: " + entry.Interpretation + "\n")
	}

	return b.String()
}
