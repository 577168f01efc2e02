package core

import (
	"fmt"
	"math"
)

// LevelThreshold is the minimum chore count needed to reach a level.
type LevelThreshold struct {
	Level     int
	MinChores int
}

const MaxLevel = 5

// LevelThresholds is sorted by level with strictly increasing MinChores.
var LevelThresholds = []LevelThreshold{
	{Level: 1, MinChores: 0},
	{Level: 2, MinChores: 10},
	{Level: 3, MinChores: 30},
	{Level: 4, MinChores: 60},
	{Level: 5, MinChores: 100},
}

var levelGlyphs = map[int]string{
	1: "🌱",
	2: "⭐",
	3: "🏅",
	4: "🥇",
	5: "🏆",
}

func init() {
	if err := validateThresholds(LevelThresholds); err != nil {
		panic(err)
	}
}

func validateThresholds(table []LevelThreshold) error {
	if len(table) != MaxLevel {
		return fmt.Errorf("level table has %d entries, want %d", len(table), MaxLevel)
	}
	if table[0].MinChores != 0 {
		return fmt.Errorf("level %d must start at 0 chores", table[0].Level)
	}
	for i := 1; i < len(table); i++ {
		if table[i].Level != table[i-1].Level+1 {
			return fmt.Errorf("level table not contiguous at level %d", table[i].Level)
		}
		if table[i].MinChores <= table[i-1].MinChores {
			return fmt.Errorf("level %d threshold %d not above level %d threshold %d",
				table[i].Level, table[i].MinChores, table[i-1].Level, table[i-1].MinChores)
		}
	}
	return nil
}

func threshold(level int) int {
	return LevelThresholds[level-1].MinChores
}

// CalculateLevel returns the highest level whose threshold is met.
func CalculateLevel(choreCount int) int {
	level := 1
	for _, t := range LevelThresholds {
		if choreCount >= t.MinChores {
			level = t.Level
		}
	}
	return level
}

// ChoresToNextLevel returns how many more chores reach the next level.
// ok is false at MaxLevel, where there is no next level.
func ChoresToNextLevel(choreCount int) (remaining int, ok bool) {
	if choreCount < 0 {
		choreCount = 0
	}
	level := CalculateLevel(choreCount)
	if level >= MaxLevel {
		return 0, false
	}
	return threshold(level+1) - choreCount, true
}

// LevelProgressPercent returns progress from the current level threshold to the
// next one, rounded half away from zero. It is 100 at MaxLevel.
func LevelProgressPercent(choreCount int) int {
	if choreCount < 0 {
		choreCount = 0
	}
	level := CalculateLevel(choreCount)
	if level >= MaxLevel {
		return 100
	}
	lo, hi := threshold(level), threshold(level+1)
	span := hi - lo
	if span <= 0 {
		// unreachable: validateThresholds rejects equal thresholds at init
		return 100
	}
	return int(math.Round(100 * float64(choreCount-lo) / float64(span)))
}

// LevelGlyph returns the display glyph for a level, or "" for unknown levels.
func LevelGlyph(level int) string {
	return levelGlyphs[level]
}
