// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labtrack/templates"
)

func TestParseRuntimeEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    runtimeEnv
		wantErr bool
	}{
		{raw: "", want: envProduction},
		{raw: "prod", want: envProduction},
		{raw: " Production ", want: envProduction},
		{raw: "dev", want: envDevelopment},
		{raw: "DEVELOPMENT", want: envDevelopment},
		{raw: "staging", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseRuntimeEnv(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, errInvalidRuntimeEnv) {
				t.Fatalf("parseRuntimeEnv(%q): expected errInvalidRuntimeEnv, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("parseRuntimeEnv(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
		}
	}
}

func TestTemplateFuncs(t *testing.T) {
	t.Parallel()

	tpl, err := template.New("row").Funcs(templateFuncs()).Parse(
		`{{ formatValue .Before }}|{{ optionalValue .Low }}|{{ optionalValue .High }}|{{ optionalText .Notes }}|{{ formatDate .When }}|{{ fieldName "before" .ID }}`,
	)
	if err != nil {
		t.Fatalf("failed to parse template: %v", err)
	}

	high := 6.5
	id := uuid.MustParse("5b0e1c8e-7d43-4a0c-9a3e-0f3c2d1b6a11")

	var rendered strings.Builder
	if err := tpl.Execute(&rendered, map[string]interface{}{
		"Before": 0.1,
		"Low":    (*float64)(nil),
		"High":   &high,
		"Notes":  (*string)(nil),
		"When":   time.Date(2025, time.March, 4, 9, 30, 0, 0, time.UTC),
		"ID":     id,
	}); err != nil {
		t.Fatalf("failed to execute template: %v", err)
	}

	want := "0.1|-|6.5||2025-03-04|before_5b0e1c8e-7d43-4a0c-9a3e-0f3c2d1b6a11"
	if got := rendered.String(); got != want {
		t.Fatalf("rendered %q, want %q", got, want)
	}
}

func TestEmbeddedTemplatesParse(t *testing.T) {
	t.Parallel()

	if _, err := template.New("").Funcs(templateFuncs()).ParseFS(templates.Templates, "*.html"); err != nil {
		t.Fatalf("embedded templates failed to parse: %v", err)
	}
}
