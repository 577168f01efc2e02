package core

import "sort"

// GoalProgressPercent projects balance against a goal target, clamped to [0, 100].
// A non-positive target yields 0.
func GoalProgressPercent(balance, targetAmount int64) float64 {
	if targetAmount <= 0 {
		return 0
	}
	pct := float64(balance) / float64(targetAmount) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// CanMarkAchieved reports whether the goal may transition to achieved.
func CanMarkAchieved(g Goal, balance int64) bool {
	return !g.IsAchieved() && GoalProgressPercent(balance, g.TargetAmount) >= 100
}

// SortGoals orders goals newest first.
func SortGoals(goals []Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].CreatedAt.After(goals[j].CreatedAt)
	})
}

// ActiveGoal returns the newest goal that is not achieved yet.
func ActiveGoal(goals []Goal) (Goal, bool) {
	sorted := append([]Goal(nil), goals...)
	SortGoals(sorted)
	for _, g := range sorted {
		if !g.IsAchieved() {
			return g, true
		}
	}
	return Goal{}, false
}
