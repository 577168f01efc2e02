package services

import (
	"context"
	"fmt"
	"strings"

	"allowance/internal/amqp"
	"allowance/internal/core"
	"allowance/internal/records"
)

type GoalInput struct {
	Title        string `json:"title"`
	TargetAmount int64  `json:"target_amount"`
}

// GoalStore is what GoalService needs: goals plus the transactions that
// determine the balance.
type GoalStore interface {
	records.GoalStore
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
}

type GoalService struct {
	store GoalStore
	deps
}

func NewGoalService(store GoalStore, opts ...Option) *GoalService {
	return &GoalService{store: store, deps: applyOptions(opts)}
}

func (s *GoalService) Create(ctx context.Context, sess Session, in GoalInput) (core.Goal, error) {
	g := core.Goal{
		ID:           s.newID(),
		OwnerID:      sess.OwnerID,
		Title:        strings.TrimSpace(in.Title),
		TargetAmount: in.TargetAmount,
		CreatedAt:    s.now(),
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.store.InsertGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal created", "owner_id", g.OwnerID, "id", g.ID, "target_amount", g.TargetAmount)
	s.notify(ctx, g.OwnerID, amqp.GoalCreated, g.ID)
	return g, nil
}

// List returns every goal, newest first, projected against the current balance.
func (s *GoalService) List(ctx context.Context, sess Session) ([]core.GoalProgress, error) {
	goals, err := s.store.ListGoals(ctx, sess.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	balance, err := s.balance(ctx, sess.OwnerID)
	if err != nil {
		return nil, err
	}

	core.SortGoals(goals)
	out := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, core.NewGoalProgress(g, balance))
	}
	return out, nil
}

// MarkAchieved stamps the goal as achieved. It refuses goals that are already
// achieved and goals whose projected progress is below 100%.
func (s *GoalService) MarkAchieved(ctx context.Context, sess Session, id string) (core.Goal, error) {
	g, err := s.store.GetGoal(ctx, sess.OwnerID, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	if g.IsAchieved() {
		return core.Goal{}, core.ErrGoalAlreadyAchieved
	}

	balance, err := s.balance(ctx, sess.OwnerID)
	if err != nil {
		return core.Goal{}, err
	}
	if !core.CanMarkAchieved(g, balance) {
		return core.Goal{}, core.ErrGoalNotReached
	}

	at := s.now()
	if err := s.store.SetGoalAchieved(ctx, sess.OwnerID, id, at); err != nil {
		return core.Goal{}, fmt.Errorf("mark goal achieved: %w", err)
	}
	g.AchievedAt = &at

	s.logger.InfoContext(ctx, "Goal achieved", "owner_id", sess.OwnerID, "id", id, "balance", balance)
	s.notify(ctx, sess.OwnerID, amqp.GoalAchieved, id)
	return g, nil
}

func (s *GoalService) Delete(ctx context.Context, sess Session, id string) error {
	if err := s.store.DeleteGoal(ctx, sess.OwnerID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.notify(ctx, sess.OwnerID, amqp.GoalDeleted, id)
	return nil
}

func (s *GoalService) balance(ctx context.Context, ownerID string) (int64, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	return core.CalculateBalance(txs), nil
}
