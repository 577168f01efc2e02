package records

import (
	"context"
	"time"

	"allowance/internal/core"
)

// Ports for the record stores. Every method is scoped to one owner; an id that
// belongs to another owner behaves like a missing record (core.ErrNotFound).
type (
	TransactionStore interface {
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
		InsertTransaction(ctx context.Context, tx core.Transaction) error
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, ownerID, id string) error
	}

	GoalStore interface {
		ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
		GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error)
		InsertGoal(ctx context.Context, g core.Goal) error
		// SetGoalAchieved stamps achieved_at. It does not check progress.
		SetGoalAchieved(ctx context.Context, ownerID, id string, at time.Time) error
		DeleteGoal(ctx context.Context, ownerID, id string) error
	}

	// BadgeStore is append-only. InsertBadges silently skips ids the owner
	// already holds.
	BadgeStore interface {
		ListBadges(ctx context.Context, ownerID string) ([]core.Badge, error)
		InsertBadges(ctx context.Context, badges []core.Badge) error
	}

	ProfileStore interface {
		// GetProfile returns core.ErrNotFound when no profile was saved yet.
		GetProfile(ctx context.Context, ownerID string) (core.Profile, error)
		UpsertProfile(ctx context.Context, p core.Profile) error
	}

	// OwnerLister enumerates owners with at least one record.
	OwnerLister interface {
		ListOwners(ctx context.Context) ([]string, error)
	}

	Store interface {
		TransactionStore
		GoalStore
		BadgeStore
		ProfileStore
		OwnerLister
		Ping(ctx context.Context) error
		Close() error
	}
)

// SnapshotReader is the read side needed to build a core.Snapshot.
type SnapshotReader interface {
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
	ListBadges(ctx context.Context, ownerID string) ([]core.Badge, error)
}
