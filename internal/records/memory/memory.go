package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"allowance/internal/core"
)

type ownerData struct {
	txs     []core.Transaction
	goals   []core.Goal
	badges  []core.Badge
	profile *core.Profile
}

// Store keeps every owner's records in process memory.
type Store struct {
	mu     sync.Mutex
	owners map[string]*ownerData
}

func New() *Store {
	return &Store{owners: map[string]*ownerData{}}
}

// owner returns the owner's bucket, creating it. Callers hold s.mu.
func (s *Store) owner(id string) *ownerData {
	d, ok := s.owners[id]
	if !ok {
		d = &ownerData{}
		s.owners[id] = d
	}
	return d
}

func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Transaction(nil), s.owner(ownerID).txs...)
	core.SortTransactions(out)
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.owner(ownerID).txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.owner(tx.OwnerID)
	d.txs = append(d.txs, tx)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.owner(tx.OwnerID)
	for i := range d.txs {
		if d.txs[i].ID == tx.ID {
			tx.CreatedAt = d.txs[i].CreatedAt
			d.txs[i] = tx
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.owner(ownerID)
	for i := range d.txs {
		if d.txs[i].ID == id {
			d.txs = append(d.txs[:i], d.txs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, ownerID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.owner(ownerID).goals
	out := make([]core.Goal, len(src))
	for i, g := range src {
		out[i] = copyGoal(g)
	}
	core.SortGoals(out)
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, ownerID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.owner(ownerID).goals {
		if g.ID == id {
			return copyGoal(g), nil
		}
	}
	return core.Goal{}, core.ErrNotFound
}

func (s *Store) InsertGoal(_ context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.owner(g.OwnerID)
	d.goals = append(d.goals, copyGoal(g))
	return nil
}

func (s *Store) SetGoalAchieved(_ context.Context, ownerID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.owner(ownerID)
	for i := range d.goals {
		if d.goals[i].ID == id {
			at := at
			d.goals[i].AchievedAt = &at
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.owner(ownerID)
	for i := range d.goals {
		if d.goals[i].ID == id {
			d.goals = append(d.goals[:i], d.goals[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListBadges(_ context.Context, ownerID string) ([]core.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Badge(nil), s.owner(ownerID).badges...), nil
}

// InsertBadges appends badges the owner does not hold yet.
func (s *Store) InsertBadges(_ context.Context, badges []core.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range badges {
		if b.OwnerID == "" {
			return core.ErrEmptyOwner
		}
		d := s.owner(b.OwnerID)
		if hasBadge(d.badges, b.BadgeID) {
			continue
		}
		d.badges = append(d.badges, b)
	}
	return nil
}

func (s *Store) GetProfile(_ context.Context, ownerID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.owner(ownerID).profile
	if p == nil {
		return core.Profile{}, core.ErrNotFound
	}
	return *p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p core.Profile) error {
	if p.OwnerID == "" {
		return core.ErrEmptyOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner(p.OwnerID).profile = &p
	return nil
}

// ListOwners returns owners holding at least one record, sorted.
func (s *Store) ListOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, d := range s.owners {
		if len(d.txs) == 0 && len(d.goals) == 0 && len(d.badges) == 0 && d.profile == nil {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func hasBadge(badges []core.Badge, id core.BadgeID) bool {
	for _, b := range badges {
		if b.BadgeID == id {
			return true
		}
	}
	return false
}

func copyGoal(g core.Goal) core.Goal {
	if g.AchievedAt != nil {
		at := *g.AchievedAt
		g.AchievedAt = &at
	}
	return g
}
