package backend

import (
	"context"

	"allowance/internal/amqp"
	"allowance/internal/records"
	"allowance/internal/sheets"
)

// CleanupFunc releases what a factory call opened.
type CleanupFunc func() error

// BackendResult contains the store and its cleanup function
type BackendResult struct {
	Store   records.Store
	Cleanup CleanupFunc
}

// Factory builds the stateful dependencies of both binaries from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreatePublisher returns nil, nil when AMQP is not configured.
	CreatePublisher(config Config) (*amqp.Client, error)
	// CreateLedger returns nil, nil when no spreadsheet is configured.
	CreateLedger(ctx context.Context, config Config) (sheets.Ledger, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sheets client reads its own credentials from the environment.
	GoogleSpreadsheetID string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
