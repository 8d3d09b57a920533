package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"condo/internal/config"
	"condo/internal/storage"
	"condo/internal/storage/memory"
)

const seed = `{
  "people": [{"id": "ADMIN", "first_name": "Administracion"}],
  "payments": [{"id": "P1", "amount": "100", "date": "2025-03-10", "concept": "cuota", "method": "transferencia"}],
  "payment_relationships": [{"payment_id": "P1", "payer_id": "R1", "beneficiary_id": "ADMIN"}]
}`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "path is required"},
		{"sheets is gone", Config{Type: "sheets"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "/tmp/c.db", SeedFile: "s.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SeedFile != "s.json" {
		t.Fatalf("unexpected backend config %+v", cfg)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	seedPath := writeSeed(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Type: MemoryBackend, SeedFile: seedPath}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "condo.db"), SeedFile: seedPath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, tt.cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer store.Close()

			if err := store.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
			payments, err := store.ListPayments(ctx)
			if err != nil || len(payments) != 1 {
				t.Fatalf("expected seeded payment, got %d (%v)", len(payments), err)
			}

			// Reseeding keeps one copy of every row.
			if _, err := Seed(ctx, store, seedPath); err != nil {
				t.Fatalf("Seed: %v", err)
			}
			rels, _ := store.ListPaymentRelationships(ctx)
			if len(rels) != 1 {
				t.Fatalf("expected 1 relationship after reseed, got %d", len(rels))
			}
		})
	}
}

func TestOpenMissingSeed(t *testing.T) {
	_, err := Open(context.Background(), Config{Type: MemoryBackend, SeedFile: "/does/not/exist.json"}, nil)
	if err == nil {
		t.Fatal("expected error for missing seed file")
	}
}

func TestSeedMemoryStore(t *testing.T) {
	var s Store = memory.New(storage.Records{})
	if _, err := Seed(context.Background(), s, writeSeed(t)); err != nil {
		t.Fatalf("memory store must accept seeds: %v", err)
	}
}
