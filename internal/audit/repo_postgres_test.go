package audit

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrations_AreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected at least one migration")
	}
	b, err := fs.ReadFile(migrationsFS, "migrations/"+entries[0].Name())
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	body := string(b)
	if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
		t.Fatalf("expected goose annotations in %s", entries[0].Name())
	}
	if !strings.Contains(body, "call_events") {
		t.Fatalf("expected call_events table")
	}
}

func TestInsertEventSQL_ColumnsMatchPlaceholders(t *testing.T) {
	if got := strings.Count(insertEventSQL, "$"); got != 9 {
		t.Fatalf("expected 9 placeholders, got %d", got)
	}
}
