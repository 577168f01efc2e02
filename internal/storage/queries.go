package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the tables. Dates and timestamps are stored as TEXT.
type Transaction struct {
	ID          string
	OwnerID     string
	Type        string
	Amount      int64
	Description string
	Date        string
	CreatedAt   string
}

type Goal struct {
	ID           string
	OwnerID      string
	Title        string
	TargetAmount int64
	CreatedAt    string
	AchievedAt   sql.NullString
}

type Badge struct {
	ID         string
	OwnerID    string
	BadgeID    string
	AchievedAt string
}

type Profile struct {
	OwnerID     string
	Name        string
	AvatarEmoji string
	UpdatedAt   string
}

const listTransactions = `
SELECT id, owner_id, type, amount, description, date, created_at
FROM transactions
WHERE owner_id = ?
ORDER BY date DESC, created_at DESC
`

func (q *Queries) ListTransactions(ctx context.Context, ownerID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.Type, &i.Amount, &i.Description, &i.Date, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getTransaction = `
SELECT id, owner_id, type, amount, description, date, created_at
FROM transactions
WHERE owner_id = ? AND id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, ownerID, id string) (Transaction, error) {
	var i Transaction
	err := q.db.QueryRowContext(ctx, getTransaction, ownerID, id).Scan(
		&i.ID, &i.OwnerID, &i.Type, &i.Amount, &i.Description, &i.Date, &i.CreatedAt,
	)
	return i, err
}

const createTransaction = `
INSERT INTO transactions (id, owner_id, type, amount, description, date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.OwnerID, arg.Type, arg.Amount, arg.Description, arg.Date, arg.CreatedAt)
	return err
}

const updateTransaction = `
UPDATE transactions
SET type = ?, amount = ?, description = ?, date = ?
WHERE owner_id = ? AND id = ?
`

func (q *Queries) UpdateTransaction(ctx context.Context, arg Transaction) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Type, arg.Amount, arg.Description, arg.Date, arg.OwnerID, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE owner_id = ? AND id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listGoals = `
SELECT id, owner_id, title, target_amount, created_at, achieved_at
FROM goals
WHERE owner_id = ?
ORDER BY created_at DESC
`

func (q *Queries) ListGoals(ctx context.Context, ownerID string) ([]Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Goal
	for rows.Next() {
		var i Goal
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.Title, &i.TargetAmount, &i.CreatedAt, &i.AchievedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getGoal = `
SELECT id, owner_id, title, target_amount, created_at, achieved_at
FROM goals
WHERE owner_id = ? AND id = ?
`

func (q *Queries) GetGoal(ctx context.Context, ownerID, id string) (Goal, error) {
	var i Goal
	err := q.db.QueryRowContext(ctx, getGoal, ownerID, id).Scan(
		&i.ID, &i.OwnerID, &i.Title, &i.TargetAmount, &i.CreatedAt, &i.AchievedAt,
	)
	return i, err
}

const createGoal = `
INSERT INTO goals (id, owner_id, title, target_amount, created_at, achieved_at)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateGoal(ctx context.Context, arg Goal) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		arg.ID, arg.OwnerID, arg.Title, arg.TargetAmount, arg.CreatedAt, arg.AchievedAt)
	return err
}

const setGoalAchieved = `UPDATE goals SET achieved_at = ? WHERE owner_id = ? AND id = ?`

func (q *Queries) SetGoalAchieved(ctx context.Context, achievedAt, ownerID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, setGoalAchieved, achievedAt, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteGoal = `DELETE FROM goals WHERE owner_id = ? AND id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteGoal, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listBadges = `
SELECT id, owner_id, badge_id, achieved_at
FROM badges
WHERE owner_id = ?
ORDER BY achieved_at, badge_id
`

func (q *Queries) ListBadges(ctx context.Context, ownerID string) ([]Badge, error) {
	rows, err := q.db.QueryContext(ctx, listBadges, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Badge
	for rows.Next() {
		var i Badge
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.BadgeID, &i.AchievedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createBadge = `
INSERT INTO badges (id, owner_id, badge_id, achieved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (owner_id, badge_id) DO NOTHING
`

func (q *Queries) CreateBadge(ctx context.Context, arg Badge) error {
	_, err := q.db.ExecContext(ctx, createBadge, arg.ID, arg.OwnerID, arg.BadgeID, arg.AchievedAt)
	return err
}

const getProfile = `
SELECT owner_id, name, avatar_emoji, updated_at
FROM profiles
WHERE owner_id = ?
`

func (q *Queries) GetProfile(ctx context.Context, ownerID string) (Profile, error) {
	var i Profile
	err := q.db.QueryRowContext(ctx, getProfile, ownerID).Scan(&i.OwnerID, &i.Name, &i.AvatarEmoji, &i.UpdatedAt)
	return i, err
}

const upsertProfile = `
INSERT INTO profiles (owner_id, name, avatar_emoji, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (owner_id) DO UPDATE SET
    name = excluded.name,
    avatar_emoji = excluded.avatar_emoji,
    updated_at = excluded.updated_at
`

func (q *Queries) UpsertProfile(ctx context.Context, arg Profile) error {
	_, err := q.db.ExecContext(ctx, upsertProfile, arg.OwnerID, arg.Name, arg.AvatarEmoji, arg.UpdatedAt)
	return err
}

const listOwners = `
SELECT owner_id FROM transactions
UNION SELECT owner_id FROM goals
UNION SELECT owner_id FROM badges
UNION SELECT owner_id FROM profiles
ORDER BY owner_id
`

func (q *Queries) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listOwners)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}
