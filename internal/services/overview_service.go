package services

import (
	"context"

	"allowance/internal/cache"
	"allowance/internal/core"
	"allowance/internal/records"
)

// OverviewService derives the overview page. Results are memoized by snapshot
// fingerprint, so any record change produces a fresh computation.
type OverviewService struct {
	store records.SnapshotReader
	cache cache.Cache[core.Overview]
}

// NewOverviewService accepts a nil cache to disable memoization.
func NewOverviewService(store records.SnapshotReader, c cache.Cache[core.Overview]) *OverviewService {
	return &OverviewService{store: store, cache: c}
}

func (s *OverviewService) Get(ctx context.Context, sess Session) (core.Overview, error) {
	snap, err := records.LoadSnapshot(ctx, s.store, sess.OwnerID)
	if err != nil {
		return core.Overview{}, err
	}
	if s.cache == nil {
		return core.BuildOverview(snap), nil
	}

	key := snap.Fingerprint()
	if ov, ok := s.cache.Get(key); ok {
		return ov, nil
	}

	ov := core.BuildOverview(snap)
	// Older fingerprints of this owner can never match again.
	s.cache.DeletePrefix(sess.OwnerID + ":")
	s.cache.Set(key, ov)
	return ov, nil
}
