package memory

import (
	"context"
	"errors"
	"testing"

	"allowance/internal/core"
)

func TestLedgerUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	l := New()

	tx := core.Transaction{ID: "t1", OwnerID: "kid", Type: core.Income, Amount: 5, Date: core.MustParseDate("2024-03-01")}
	ref, err := l.UpsertTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("UpsertTransaction: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	tx.Amount = 7
	ref2, err := l.UpsertTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("UpsertTransaction: %v", err)
	}
	if ref2 != ref {
		t.Errorf("ref changed on update: %q -> %q", ref, ref2)
	}
	rows := l.Rows()
	if len(rows) != 1 || rows[0].Amount != 7 {
		t.Fatalf("Rows() = %+v", rows)
	}

	if err := l.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := l.DeleteTransaction(ctx, "t1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLedgerRejectsInvalid(t *testing.T) {
	_, err := New().UpsertTransaction(context.Background(), core.Transaction{ID: "x", OwnerID: "kid", Type: core.Income})
	if !errors.Is(err, core.ErrInvalidRecord) {
		t.Errorf("err = %v, want ErrInvalidRecord", err)
	}
}
