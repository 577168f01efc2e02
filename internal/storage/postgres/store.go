// Package postgres stores records in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"allowance/internal/core"
)

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL, pings it and applies migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const transactionColumns = `id, owner_id, type, amount, description, date, created_at`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		tx   core.Transaction
		typ  string
		date time.Time
	)
	if err := row.Scan(&tx.ID, &tx.OwnerID, &typ, &tx.Amount, &tx.Description, &date, &tx.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = $1 ORDER BY date DESC, created_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	tx, err := scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = $1 AND id = $2`, ownerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tx.ID, tx.OwnerID, string(tx.Type), tx.Amount, tx.Description, tx.Date.Time, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE transactions SET type = $1, amount = $2, description = $3, date = $4 WHERE owner_id = $5 AND id = $6`,
		string(tx.Type), tx.Amount, tx.Description, tx.Date.Time, tx.OwnerID, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return s.deleteOne(ctx, `DELETE FROM transactions WHERE owner_id = $1 AND id = $2`, ownerID, id)
}

const goalColumns = `id, owner_id, title, target_amount, created_at, achieved_at`

func scanGoal(row pgx.Row) (core.Goal, error) {
	var g core.Goal
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Title, &g.TargetAmount, &g.CreatedAt, &g.AchievedAt); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

func (s *Store) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE owner_id = $1 AND id = $2`, ownerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *Store) InsertGoal(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.OwnerID, g.Title, g.TargetAmount, g.CreatedAt, g.AchievedAt)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (s *Store) SetGoalAchieved(ctx context.Context, ownerID, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE goals SET achieved_at = $1 WHERE owner_id = $2 AND id = $3`, at, ownerID, id)
	if err != nil {
		return fmt.Errorf("set goal achieved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, ownerID, id string) error {
	return s.deleteOne(ctx, `DELETE FROM goals WHERE owner_id = $1 AND id = $2`, ownerID, id)
}

func (s *Store) ListBadges(ctx context.Context, ownerID string) ([]core.Badge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, badge_id, achieved_at FROM badges WHERE owner_id = $1 ORDER BY achieved_at, badge_id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var out []core.Badge
	for rows.Next() {
		var (
			b       core.Badge
			badgeID string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &badgeID, &b.AchievedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		b.BadgeID = core.BadgeID(badgeID)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return out, nil
}

// InsertBadges queues one insert per badge in a single batch inside a
// transaction; duplicates hit the unique index and are ignored.
func (s *Store) InsertBadges(ctx context.Context, badges []core.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, b := range badges {
		if b.OwnerID == "" {
			return core.ErrEmptyOwner
		}
		batch.Queue(
			`INSERT INTO badges (id, owner_id, badge_id, achieved_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (owner_id, badge_id) DO NOTHING`,
			b.ID, b.OwnerID, string(b.BadgeID), b.AchievedAt)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("insert badges: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, ownerID string) (core.Profile, error) {
	var p core.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT owner_id, name, avatar_emoji FROM profiles WHERE owner_id = $1`, ownerID,
	).Scan(&p.OwnerID, &p.Name, &p.AvatarEmoji)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Profile{}, core.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p core.Profile) error {
	if p.OwnerID == "" {
		return core.ErrEmptyOwner
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (owner_id, name, avatar_emoji, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (owner_id) DO UPDATE SET
		     name = EXCLUDED.name, avatar_emoji = EXCLUDED.avatar_emoji, updated_at = EXCLUDED.updated_at`,
		p.OwnerID, p.Name, p.AvatarEmoji)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT owner_id FROM transactions
		UNION SELECT owner_id FROM goals
		UNION SELECT owner_id FROM badges
		UNION SELECT owner_id FROM profiles
		ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

func (s *Store) deleteOne(ctx context.Context, query, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, query, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
