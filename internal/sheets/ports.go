package sheets

import (
	"context"
	"errors"

	"allowance/internal/core"
)

// Ports for outbound ledger mirrors.
type (
	// LedgerWriter appends or replaces one transaction row.
	LedgerWriter interface {
		UpsertTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	LedgerDeleter interface {
		DeleteTransaction(ctx context.Context, id string) error
	}

	// Ledger is a full mirror target.
	Ledger interface {
		LedgerWriter
		LedgerDeleter
	}
)

// ErrRejected marks a write the ledger refused outright. Retrying it
// cannot succeed.
var ErrRejected = errors.New("ledger rejected write")
