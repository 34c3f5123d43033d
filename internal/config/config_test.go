package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("TICKETS_MAX_PAGE_SIZE", "")
	t.Setenv("APP_TIMEZONE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.StoreDriver != StoreDriverPostgres {
		t.Errorf("StoreDriver = %q, want %q", cfg.App.StoreDriver, StoreDriverPostgres)
	}
	if cfg.Tickets.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, want 100", cfg.Tickets.MaxPageSize)
	}
	if cfg.Tickets.DefaultPageSize != 10 {
		t.Errorf("DefaultPageSize = %d, want 10", cfg.Tickets.DefaultPageSize)
	}
	if cfg.App.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.App.Timezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("TICKETS_MAX_PAGE_SIZE", "10")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.StoreDriver != StoreDriverMemory {
		t.Errorf("StoreDriver = %q, want memory", cfg.App.StoreDriver)
	}
	if cfg.Tickets.MaxPageSize != 10 {
		t.Errorf("MaxPageSize = %d, want 10", cfg.Tickets.MaxPageSize)
	}
	if cfg.App.RequestTimeout() != 5*time.Second {
		t.Errorf("RequestTimeout() = %v, want 5s", cfg.App.RequestTimeout())
	}
	if cfg.Postgres.RunMigrations {
		t.Error("RunMigrations should be false")
	}
	if cfg.Auth.AccessTokenTTLMinutes != 60 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Auth.AccessTokenTTLMinutes)
	}
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:     AppConfig{Env: "development", StoreDriver: StoreDriverMemory, Timezone: "UTC"},
			Auth:    AuthConfig{JWTSecret: "dev-secret"},
			Tickets: TicketsConfig{DefaultPageSize: 10, MaxPageSize: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "memory store", mutate: func(*Config) {}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.App.StoreDriver = StoreDriverPostgres }, wantErr: true},
		{name: "postgres with dsn", mutate: func(c *Config) {
			c.App.StoreDriver = StoreDriverPostgres
			c.Postgres.DSN = "postgres://localhost/helpdesk"
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.App.StoreDriver = "mongo" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.App.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "zero page ceiling", mutate: func(c *Config) { c.Tickets.MaxPageSize = 0 }, wantErr: true},
		{name: "production default secret", mutate: func(c *Config) { c.App.Env = "production" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
