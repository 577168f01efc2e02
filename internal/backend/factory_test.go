package backend

import (
	"context"
	"path/filepath"
	"testing"

	"allowance/internal/config"
	"allowance/internal/core"
)

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Type: MemoryBackend}},
		{name: "sqlite", cfg: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "a.db")}},
		{name: "sqlite without path", cfg: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "postgres without url", cfg: Config{Type: PostgresBackend}, wantErr: true},
		{name: "unknown", cfg: Config{Type: "sheets"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Cleanup()

			if err := res.Store.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
			tx := core.Transaction{ID: "t1", OwnerID: "kid", Type: core.Income, Amount: 1, Date: core.MustParseDate("2024-01-01")}
			if err := res.Store.InsertTransaction(ctx, tx); err != nil {
				t.Fatalf("InsertTransaction: %v", err)
			}
		})
	}
}

func TestOptionalIntegrationsDisabled(t *testing.T) {
	f := NewFactory(nil)

	pub, err := f.CreatePublisher(Config{})
	if err != nil || pub != nil {
		t.Errorf("CreatePublisher() = %v, %v; want nil, nil", pub, err)
	}
	ledger, err := f.CreateLedger(context.Background(), Config{})
	if err != nil || ledger != nil {
		t.Errorf("CreateLedger() = %v, %v; want nil, nil", ledger, err)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://x/y", AMQPQueue: "q"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.DatabaseURL != "postgres://x/y" || cfg.AMQPQueue != "q" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "nope"}); err == nil {
		t.Error("expected error for invalid backend")
	}
}

func TestBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	want := []string{"memory", "sqlite", "postgres"}
	if len(got) != len(want) {
		t.Fatalf("GetBackendTypeStrings() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetBackendTypeStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
