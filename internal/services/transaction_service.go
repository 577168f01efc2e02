package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"allowance/internal/amqp"
	"allowance/internal/core"
	"allowance/internal/records"
)

var ErrInvalidMonth = fmt.Errorf("%w: month must be YYYY-MM", core.ErrInvalidRecord)

// TransactionInput is the user-editable part of a transaction. An empty Date
// means today.
type TransactionInput struct {
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// History is one page of the history view.
type History struct {
	Months       []string           `json:"months"`
	Month        string             `json:"month"`
	Transactions []core.Transaction `json:"transactions"`
	Summary      core.MonthSummary  `json:"summary"`
}

// TransactionService records chores and spending.
type TransactionService struct {
	store records.TransactionStore
	deps
}

func NewTransactionService(store records.TransactionStore, opts ...Option) *TransactionService {
	return &TransactionService{store: store, deps: applyOptions(opts)}
}

func (s *TransactionService) Create(ctx context.Context, sess Session, in TransactionInput) (core.Transaction, error) {
	now := s.now()
	tx := core.Transaction{
		ID:        s.newID(),
		OwnerID:   sess.OwnerID,
		CreatedAt: now,
	}
	if err := s.apply(&tx, in, now); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		"owner_id", tx.OwnerID,
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount)
	s.notify(ctx, tx.OwnerID, amqp.TransactionCreated, tx.ID)
	return tx, nil
}

func (s *TransactionService) Update(ctx context.Context, sess Session, id string, in TransactionInput) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, sess.OwnerID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if err := s.apply(&tx, in, s.now()); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.notify(ctx, tx.OwnerID, amqp.TransactionUpdated, tx.ID)
	return tx, nil
}

// Delete removes a transaction. Badges it helped earn are kept.
func (s *TransactionService) Delete(ctx context.Context, sess Session, id string) error {
	if err := s.store.DeleteTransaction(ctx, sess.OwnerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.notify(ctx, sess.OwnerID, amqp.TransactionDeleted, id)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, sess Session, id string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, sess.OwnerID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// List returns the owner's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, sess Session) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, sess.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	core.SortTransactions(txs)
	return txs, nil
}

// History filters by month ("" for all) and totals the result.
func (s *TransactionService) History(ctx context.Context, sess Session, month string) (History, error) {
	month = strings.TrimSpace(month)
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return History{}, ErrInvalidMonth
		}
	}

	txs, err := s.List(ctx, sess)
	if err != nil {
		return History{}, err
	}
	filtered := core.FilterByMonth(txs, month)
	return History{
		Months:       core.AvailableMonths(txs),
		Month:        month,
		Transactions: filtered,
		Summary:      core.SummarizeMonth(month, filtered),
	}, nil
}

func (s *TransactionService) apply(tx *core.Transaction, in TransactionInput, now time.Time) error {
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return err
	}

	date := core.NewDate(now.Year(), int(now.Month()), now.Day())
	if strings.TrimSpace(in.Date) != "" {
		if date, err = core.ParseDate(in.Date); err != nil {
			return err
		}
	}

	tx.Type = typ
	tx.Amount = in.Amount
	tx.Description = strings.TrimSpace(in.Description)
	tx.Date = date
	return tx.Validate()
}
