package records

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"allowance/internal/core"
)

// LoadSnapshot fetches the owner's transactions, goals and badges concurrently.
// It returns either a fully loaded snapshot or the first error; a partial
// snapshot is never returned.
func LoadSnapshot(ctx context.Context, r SnapshotReader, ownerID string) (core.Snapshot, error) {
	if ownerID == "" {
		return core.Snapshot{}, core.ErrEmptyOwner
	}

	var (
		txs    []core.Transaction
		goals  []core.Goal
		badges []core.Badge
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if txs, err = r.ListTransactions(gctx, ownerID); err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if goals, err = r.ListGoals(gctx, ownerID); err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if badges, err = r.ListBadges(gctx, ownerID); err != nil {
			return fmt.Errorf("list badges: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	core.SortTransactions(txs)
	core.SortGoals(goals)
	return core.Snapshot{
		OwnerID:      ownerID,
		Transactions: txs,
		Goals:        goals,
		Badges:       badges,
	}, nil
}
