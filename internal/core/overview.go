package core

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"
)

// RecentLimit is the number of transactions shown on the overview.
const RecentLimit = 5

// Snapshot is a fully loaded, read-only view of one owner's records.
type Snapshot struct {
	OwnerID      string
	Transactions []Transaction
	Goals        []Goal
	Badges       []Badge
}

// LevelCard is the level section of the overview and badge board.
type LevelCard struct {
	Level      int    `json:"level"`
	Glyph      string `json:"glyph"`
	ChoreCount int    `json:"chore_count"`
	ToNext     *int   `json:"chores_to_next"` // nil at MaxLevel
	Percent    int    `json:"percent"`
	IsMaxLevel bool   `json:"is_max_level"`
	MaxLevel   int    `json:"max_level"`
}

// GoalProgress pairs a goal with its projected progress.
type GoalProgress struct {
	Goal       Goal    `json:"goal"`
	Percent    float64 `json:"percent"`
	CanAchieve bool    `json:"can_achieve"`
}

// Overview is the derived view state of a snapshot.
type Overview struct {
	OwnerID    string        `json:"owner_id"`
	Balance    int64         `json:"balance"`
	Level      LevelCard     `json:"level"`
	ActiveGoal *GoalProgress `json:"active_goal"`
	Recent     []Transaction `json:"recent"`
}

// NewLevelCard derives the level section from a chore count.
func NewLevelCard(choreCount int) LevelCard {
	level := CalculateLevel(choreCount)
	card := LevelCard{
		Level:      level,
		Glyph:      LevelGlyph(level),
		ChoreCount: choreCount,
		Percent:    LevelProgressPercent(choreCount),
		IsMaxLevel: level >= MaxLevel,
		MaxLevel:   MaxLevel,
	}
	if n, ok := ChoresToNextLevel(choreCount); ok {
		card.ToNext = &n
	}
	return card
}

// NewGoalProgress projects balance onto g.
func NewGoalProgress(g Goal, balance int64) GoalProgress {
	return GoalProgress{
		Goal:       g,
		Percent:    GoalProgressPercent(balance, g.TargetAmount),
		CanAchieve: CanMarkAchieved(g, balance),
	}
}

// BuildOverview computes balance, level, active goal and recent activity.
func BuildOverview(s Snapshot) Overview {
	balance := CalculateBalance(s.Transactions)
	ov := Overview{
		OwnerID: s.OwnerID,
		Balance: balance,
		Level:   NewLevelCard(ChoreCount(s.Transactions)),
		Recent:  RecentTransactions(s.Transactions, RecentLimit),
	}
	if g, ok := ActiveGoal(s.Goals); ok {
		gp := NewGoalProgress(g, balance)
		ov.ActiveGoal = &gp
	}
	return ov
}

// Fingerprint hashes the parts of a snapshot that affect derived state, so two
// snapshots with equal records give equal fingerprints regardless of order.
func (s Snapshot) Fingerprint() string {
	lines := make([]string, 0, len(s.Transactions)+len(s.Goals))
	for _, tx := range s.Transactions {
		lines = append(lines, fmt.Sprintf("t|%s|%s|%d|%s|%d|%s",
			tx.ID, tx.Type, tx.Amount, tx.Date, tx.CreatedAt.UnixNano(), tx.Description))
	}
	for _, g := range s.Goals {
		achieved := int64(0)
		if g.AchievedAt != nil {
			achieved = g.AchievedAt.UnixNano()
		}
		lines = append(lines, fmt.Sprintf("g|%s|%s|%d|%d|%d",
			g.ID, g.Title, g.TargetAmount, g.CreatedAt.UnixNano(), achieved))
	}
	sort.Strings(lines)

	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(lines)))
	h.Write(buf[:])
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s:%016x", s.OwnerID, h.Sum64())
}
