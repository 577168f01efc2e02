package core

import "sort"

// BadgeID references an entry of the static badge catalog.
type BadgeID string

const (
	BadgeFirstChore   BadgeID = "first_chore"
	BadgeChore10      BadgeID = "chore_10"
	BadgeChoreStreak7 BadgeID = "chore_streak_7"
	BadgeFirstGoal    BadgeID = "first_goal"
	BadgeGoalAchieved BadgeID = "goal_achieved"
	BadgeFirstExpense BadgeID = "first_expense"
	BadgeSaverMonth   BadgeID = "saver_month"
)

// StreakDays is the number of consecutive chore days needed for chore_streak_7.
const StreakDays = 7

// BadgeDefinition is a catalog entry. Name and description are i18n keys.
type BadgeDefinition struct {
	ID             BadgeID `json:"id"`
	Glyph          string  `json:"glyph"`
	NameKey        string  `json:"name_key"`
	DescriptionKey string  `json:"description_key"`
}

// BadgeCatalog lists every badge in display order.
var BadgeCatalog = []BadgeDefinition{
	badgeDef(BadgeFirstChore, "⭐"),
	badgeDef(BadgeChore10, "🏆"),
	badgeDef(BadgeChoreStreak7, "🔥"),
	badgeDef(BadgeFirstGoal, "🎯"),
	badgeDef(BadgeGoalAchieved, "🎉"),
	badgeDef(BadgeFirstExpense, "💸"),
	badgeDef(BadgeSaverMonth, "🐷"),
}

func badgeDef(id BadgeID, glyph string) BadgeDefinition {
	return BadgeDefinition{
		ID:             id,
		Glyph:          glyph,
		NameKey:        "badge." + string(id) + ".name",
		DescriptionKey: "badge." + string(id) + ".description",
	}
}

// LookupBadge returns the catalog entry for id.
func LookupBadge(id BadgeID) (BadgeDefinition, bool) {
	for _, def := range BadgeCatalog {
		if def.ID == id {
			return def, true
		}
	}
	return BadgeDefinition{}, false
}

// CheckEarnedBadgeIDs evaluates every badge rule against the full history and
// returns the ids currently satisfied, in catalog order. It keeps no state, so
// equal inputs always give equal output regardless of their order.
func CheckEarnedBadgeIDs(transactions []Transaction, goals []Goal) []BadgeID {
	var incomes, expenses []Transaction
	for _, tx := range transactions {
		switch tx.Type {
		case Income:
			incomes = append(incomes, tx)
		case Expense:
			expenses = append(expenses, tx)
		}
	}

	earned := map[BadgeID]bool{
		BadgeFirstChore:   len(incomes) >= 1,
		BadgeChore10:      len(incomes) >= 10,
		BadgeFirstExpense: len(expenses) >= 1,
		BadgeFirstGoal:    len(goals) >= 1,
		BadgeGoalAchieved: anyGoalAchieved(goals),
		BadgeChoreStreak7: hasChoreStreak(incomes, StreakDays),
		BadgeSaverMonth:   hasSaverMonth(incomes, expenses),
	}

	out := make([]BadgeID, 0, len(earned))
	for _, def := range BadgeCatalog {
		if earned[def.ID] {
			out = append(out, def.ID)
		}
	}
	return out
}

func anyGoalAchieved(goals []Goal) bool {
	for _, g := range goals {
		if g.IsAchieved() {
			return true
		}
	}
	return false
}

// hasChoreStreak reports whether the distinct income dates contain a run of
// `days` consecutive calendar days.
func hasChoreStreak(incomes []Transaction, days int) bool {
	if days <= 1 {
		return len(incomes) >= days
	}

	seen := make(map[string]Date, len(incomes))
	for _, tx := range incomes {
		seen[tx.Date.String()] = tx.Date
	}
	if len(seen) < days {
		return false
	}

	dates := make([]Date, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j].Time) })

	streak := 1
	for i := 1; i < len(dates); i++ {
		if dates[i-1].DaysBetween(dates[i]) == 1 {
			streak++
			if streak >= days {
				return true
			}
		} else {
			streak = 1
		}
	}
	return false
}

// hasSaverMonth reports whether some month has income but no expense.
func hasSaverMonth(incomes, expenses []Transaction) bool {
	expenseMonths := make(map[string]struct{}, len(expenses))
	for _, tx := range expenses {
		expenseMonths[tx.Date.MonthKey()] = struct{}{}
	}
	for _, tx := range incomes {
		if _, spent := expenseMonths[tx.Date.MonthKey()]; !spent {
			return true
		}
	}
	return false
}

// PartitionBadges splits the catalog into earned and not-yet-earned entries
// according to the persisted badge records.
func PartitionBadges(persisted []Badge) (earned, unearned []BadgeDefinition) {
	have := make(map[BadgeID]struct{}, len(persisted))
	for _, b := range persisted {
		have[b.BadgeID] = struct{}{}
	}
	for _, def := range BadgeCatalog {
		if _, ok := have[def.ID]; ok {
			earned = append(earned, def)
		} else {
			unearned = append(unearned, def)
		}
	}
	return earned, unearned
}
