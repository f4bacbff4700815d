package database

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"time"
)

func TestConnect_Validation(t *testing.T) {
	if _, err := Connect(context.Background(), "", PoolOptions{}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}

	if _, err := Connect(context.Background(), "invalid-dsn", PoolOptions{}); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}

func TestPoolConfig(t *testing.T) {
	dsn := "postgres://u:p@db:5432/crm?sslmode=disable"

	cfg, err := poolConfig(dsn, PoolOptions{MaxConns: 8, MinConns: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxConns != 8 || cfg.MinConns != 2 {
		t.Fatalf("unexpected pool sizes: max=%d min=%d", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxConnLifetime != time.Hour || cfg.HealthCheckPeriod != 30*time.Second {
		t.Fatalf("unexpected lifetimes: %s %s", cfg.MaxConnLifetime, cfg.HealthCheckPeriod)
	}

	defaults, err := poolConfig(dsn, PoolOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if defaults.MaxConns <= 0 || defaults.MinConns != 0 {
		t.Fatalf("expected pgx default sizes, got max=%d min=%d", defaults.MaxConns, defaults.MinConns)
	}

	for _, opts := range []PoolOptions{{MaxConns: -1}, {MinConns: -1}, {MaxConns: 2, MinConns: 3}} {
		if _, err := poolConfig(dsn, opts); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
}

func TestMigrationURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/crm?sslmode=disable": "pgx5://u:p@db:5432/crm?sslmode=disable",
		"postgresql://db/crm":                        "pgx5://db/crm",
		" pgx5://db/crm ":                            "pgx5://db/crm",
	}
	for in, want := range cases {
		got, err := migrationURL(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("migrationURL(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := migrationURL(""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
	if _, err := migrationURL("host=db dbname=crm"); err == nil {
		t.Fatalf("expected error for key/value dsn")
	}
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	ups, downs := 0, 0
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(entry.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Fatalf("expected paired migrations, got %d up and %d down", ups, downs)
	}
}
