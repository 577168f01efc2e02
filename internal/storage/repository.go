package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"allowance/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so TEXT timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return transactionFromRow(row)
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := r.queries.CreateTransaction(ctx, transactionToRow(tx)); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"type", tx.Type,
		"amount", tx.Amount)
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateTransaction(ctx, transactionToRow(tx))
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := r.queries.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		g, err := goalFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	row, err := r.queries.GetGoal(ctx, ownerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return goalFromRow(row)
}

func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	row := Goal{
		ID:           g.ID,
		OwnerID:      g.OwnerID,
		Title:        g.Title,
		TargetAmount: g.TargetAmount,
		CreatedAt:    formatTime(g.CreatedAt),
	}
	if g.AchievedAt != nil {
		row.AchievedAt = sql.NullString{String: formatTime(*g.AchievedAt), Valid: true}
	}
	if err := r.queries.CreateGoal(ctx, row); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetGoalAchieved(ctx context.Context, ownerID, id string, at time.Time) error {
	n, err := r.queries.SetGoalAchieved(ctx, formatTime(at), ownerID, id)
	if err != nil {
		return fmt.Errorf("set goal achieved: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	n, err := r.queries.DeleteGoal(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListBadges(ctx context.Context, ownerID string) ([]core.Badge, error) {
	rows, err := r.queries.ListBadges(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	out := make([]core.Badge, 0, len(rows))
	for _, row := range rows {
		at, err := parseTime(row.AchievedAt)
		if err != nil {
			return nil, fmt.Errorf("parse badge %s: %w", row.ID, err)
		}
		out = append(out, core.Badge{
			ID:         row.ID,
			OwnerID:    row.OwnerID,
			BadgeID:    core.BadgeID(row.BadgeID),
			AchievedAt: at,
		})
	}
	return out, nil
}

// InsertBadges writes all badges in one transaction. Rows that collide with
// the (owner_id, badge_id) unique index are skipped.
func (r *SQLiteRepository) InsertBadges(ctx context.Context, badges []core.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin badge insert: %w", err)
	}
	defer sqlTx.Rollback()

	q := r.queries.WithTx(sqlTx)
	for _, b := range badges {
		if b.OwnerID == "" {
			return core.ErrEmptyOwner
		}
		err := q.CreateBadge(ctx, Badge{
			ID:         b.ID,
			OwnerID:    b.OwnerID,
			BadgeID:    string(b.BadgeID),
			AchievedAt: formatTime(b.AchievedAt),
		})
		if err != nil {
			return fmt.Errorf("create badge %s: %w", b.BadgeID, err)
		}
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit badge insert: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, ownerID string) (core.Profile, error) {
	row, err := r.queries.GetProfile(ctx, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return core.Profile{OwnerID: row.OwnerID, Name: row.Name, AvatarEmoji: row.AvatarEmoji}, nil
}

func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p core.Profile) error {
	if p.OwnerID == "" {
		return core.ErrEmptyOwner
	}
	err := r.queries.UpsertProfile(ctx, Profile{
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		AvatarEmoji: p.AvatarEmoji,
		UpdatedAt:   formatTime(time.Now()),
	})
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]string, error) {
	owners, err := r.queries.ListOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

func transactionToRow(tx core.Transaction) Transaction {
	return Transaction{
		ID:          tx.ID,
		OwnerID:     tx.OwnerID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Description: tx.Description,
		Date:        tx.Date.String(),
		CreatedAt:   formatTime(tx.CreatedAt),
	}
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction %s date: %w", row.ID, err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction %s created_at: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Type:        core.TransactionType(row.Type),
		Amount:      row.Amount,
		Description: row.Description,
		Date:        date,
		CreatedAt:   created,
	}, nil
}

func goalFromRow(row Goal) (core.Goal, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse goal %s created_at: %w", row.ID, err)
	}
	g := core.Goal{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		Title:        row.Title,
		TargetAmount: row.TargetAmount,
		CreatedAt:    created,
	}
	if row.AchievedAt.Valid {
		at, err := parseTime(row.AchievedAt.String)
		if err != nil {
			return core.Goal{}, fmt.Errorf("parse goal %s achieved_at: %w", row.ID, err)
		}
		g.AchievedAt = &at
	}
	return g, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
