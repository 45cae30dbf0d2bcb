// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// labtrackTables lists every table the migrations create, children first.
var labtrackTables = []string{
	"user_test_results",
	"testing_items",
	defaultSessionTable,
	"identities",
}

// TestMain runs the integration tests inside a throwaway schema of the
// database named by DATABASE_URL.
func TestMain(m *testing.M) {
	os.Exit(runInTestSchema(m))
}

func runInTestSchema(m *testing.M) int {
	ctx := context.Background()

	baseURL := os.Getenv("DATABASE_URL")
	if baseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is not set")
		return 1
	}

	if err := ensureDatabaseExists(ctx, baseURL); err != nil {
		fmt.Fprintln(os.Stderr, "failed to ensure database exists:", err)
		return 1
	}

	schemaName := fmt.Sprintf("labtrack_test_%d", time.Now().UnixNano())
	schema := pgx.Identifier{schemaName}.Sanitize()
	if err := execOnce(ctx, baseURL, "CREATE SCHEMA "+schema); err != nil {
		fmt.Fprintln(os.Stderr, "failed to create test schema:", err)
		return 1
	}
	defer func() {
		if err := execOnce(ctx, baseURL, "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			fmt.Fprintln(os.Stderr, "failed to drop test schema:", err)
		}
	}()

	schemaURL, err := url.Parse(baseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to parse DATABASE_URL:", err)
		return 1
	}
	query := schemaURL.Query()
	query.Set("options", "-c search_path="+schemaName+",public")
	schemaURL.RawQuery = query.Encode()

	if err := Init(ctx, schemaURL.String()); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init database:", err)
		return 1
	}
	defer Close()

	if err := SyncSchema(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "failed to sync schema:", err)
		return 1
	}

	return m.Run()
}

func execOnce(ctx context.Context, databaseURL string, statement string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx) //nolint:errcheck

	_, err = conn.Exec(ctx, statement)
	return err
}

// resetDatabase empties every labtrack table between tests.
func resetDatabase(t *testing.T) {
	t.Helper()

	if pool == nil {
		t.Fatalf("database pool is not initialized")
	}

	statement := "TRUNCATE " + strings.Join(labtrackTables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := pool.Exec(context.Background(), statement); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
