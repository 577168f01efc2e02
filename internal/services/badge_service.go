package services

import (
	"context"
	"errors"
	"fmt"

	"allowance/internal/core"
	"allowance/internal/records"
)

// BadgeStore is the slice of records.Store that reconciliation touches.
type BadgeStore interface {
	records.SnapshotReader
	records.OwnerLister
	InsertBadges(ctx context.Context, badges []core.Badge) error
}

// BadgeBoard is the badge page: level card plus the catalog split by status.
type BadgeBoard struct {
	Level    core.LevelCard         `json:"level"`
	Earned   []core.BadgeDefinition `json:"earned"`
	Unearned []core.BadgeDefinition `json:"unearned"`
	Awarded  []core.Badge           `json:"awarded"`
}

type BadgeService struct {
	store BadgeStore
	deps
}

func NewBadgeService(store BadgeStore, opts ...Option) *BadgeService {
	return &BadgeService{store: store, deps: applyOptions(opts)}
}

// Reconcile awards every badge the owner's history satisfies but the store
// does not hold yet. Running it again without new records awards nothing.
func (s *BadgeService) Reconcile(ctx context.Context, ownerID string) ([]core.Badge, error) {
	snap, err := records.LoadSnapshot(ctx, s.store, ownerID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, snap)
}

func (s *BadgeService) reconcile(ctx context.Context, snap core.Snapshot) ([]core.Badge, error) {
	earned := core.CheckEarnedBadgeIDs(snap.Transactions, snap.Goals)
	delta := core.BadgeDelta(earned, core.PersistedBadgeIDs(snap.Badges))
	if len(delta) == 0 {
		return nil, nil
	}

	now := s.now()
	awarded := make([]core.Badge, 0, len(delta))
	for _, id := range delta {
		awarded = append(awarded, core.Badge{
			ID:         s.newID(),
			OwnerID:    snap.OwnerID,
			BadgeID:    id,
			AchievedAt: now,
		})
	}
	if err := s.store.InsertBadges(ctx, awarded); err != nil {
		return nil, fmt.Errorf("insert badges: %w", err)
	}

	for _, b := range awarded {
		s.logger.InfoContext(ctx, "Badge awarded", "owner_id", b.OwnerID, "badge_id", b.BadgeID)
	}
	return awarded, nil
}

// Board reconciles first so the page never shows a stale badge set.
func (s *BadgeService) Board(ctx context.Context, sess Session) (BadgeBoard, error) {
	snap, err := records.LoadSnapshot(ctx, s.store, sess.OwnerID)
	if err != nil {
		return BadgeBoard{}, err
	}
	awarded, err := s.reconcile(ctx, snap)
	if err != nil {
		return BadgeBoard{}, err
	}

	earned, unearned := core.PartitionBadges(append(snap.Badges, awarded...))
	return BadgeBoard{
		Level:    core.NewLevelCard(core.ChoreCount(snap.Transactions)),
		Earned:   earned,
		Unearned: unearned,
		Awarded:  awarded,
	}, nil
}

// ReconcileAll sweeps every known owner and returns how many badges were
// awarded. One owner failing does not stop the sweep.
func (s *BadgeService) ReconcileAll(ctx context.Context) (int, error) {
	owners, err := s.store.ListOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	var (
		total int
		errs  []error
	)
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		awarded, err := s.Reconcile(ctx, owner)
		if err != nil {
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
			continue
		}
		total += len(awarded)
	}
	return total, errors.Join(errs...)
}
