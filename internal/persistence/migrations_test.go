package persistence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestMigrationNamesSorted(t *testing.T) {
	names, err := MigrationNames()
	if err != nil {
		t.Fatalf("MigrationNames() error = %v", err)
	}
	if len(names) == 0 {
		t.Fatal("expected bundled migrations")
	}
	if names[0] != "0001_init.sql" {
		t.Errorf("first migration = %q", names[0])
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations out of order: %q before %q", names[i-1], names[i])
		}
	}
}

func TestInitMigrationDefinesVersionColumn(t *testing.T) {
	content, err := migrationFiles.ReadFile("migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	sql := string(content)
	for _, fragment := range []string{"version       BIGINT", "ON DELETE CASCADE", "email         TEXT NOT NULL UNIQUE"} {
		if !strings.Contains(sql, fragment) {
			t.Errorf("init migration missing %q", fragment)
		}
	}
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	if err := RunMigrations(context.Background(), nil, zap.NewNop()); err != nil {
		t.Errorf("RunMigrations(nil) error = %v", err)
	}
}

func TestPingUnconfigured(t *testing.T) {
	var pg *Postgres
	if err := pg.Ping(context.Background()); !errors.Is(err, ErrPostgresNotConfigured) {
		t.Errorf("Ping() error = %v", err)
	}
	var rd *Redis
	if err := rd.Ping(context.Background()); err == nil {
		t.Error("expected error for nil redis")
	}
}
