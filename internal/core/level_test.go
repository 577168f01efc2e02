package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel(t *testing.T) {
	cases := []struct {
		chores int
		want   int
	}{
		{-3, 1},
		{0, 1},
		{9, 1},
		{10, 2},
		{29, 2},
		{30, 3},
		{59, 3},
		{60, 4},
		{99, 4},
		{100, 5},
		{1000, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CalculateLevel(tc.chores), "chores=%d", tc.chores)
	}
}

func TestCalculateLevelMonotonic(t *testing.T) {
	prev := CalculateLevel(0)
	for n := 1; n <= 250; n++ {
		lvl := CalculateLevel(n)
		require.GreaterOrEqual(t, lvl, prev, "level dropped at %d chores", n)
		require.LessOrEqual(t, lvl, MaxLevel)
		prev = lvl
	}
}

func TestChoresToNextLevel(t *testing.T) {
	cases := []struct {
		chores int
		want   int
		ok     bool
	}{
		{0, 10, true},
		{1, 9, true},
		{10, 20, true},
		{45, 15, true},
		{99, 1, true},
		{100, 0, false},
		{150, 0, false},
	}
	for _, tc := range cases {
		got, ok := ChoresToNextLevel(tc.chores)
		assert.Equal(t, tc.ok, ok, "chores=%d", tc.chores)
		assert.Equal(t, tc.want, got, "chores=%d", tc.chores)
		if ok {
			assert.Positive(t, got)
		}
	}
}

// Golden values pin half-away-from-zero rounding.
func TestLevelProgressPercent(t *testing.T) {
	cases := []struct {
		chores int
		want   int
	}{
		{0, 0},
		{1, 10},
		{5, 50},
		{9, 90},
		{10, 0},
		{15, 25},
		{11, 5},  // 5.0
		{13, 15}, // 15.0
		{31, 3},  // 3.33
		{32, 7},  // 6.67
		{75, 38}, // 37.5
		{61, 3},  // 2.5
		{63, 8},  // 7.5
		{99, 98}, // 97.5
		{100, 100},
		{500, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelProgressPercent(tc.chores), "chores=%d", tc.chores)
	}
}

func TestLevelThresholdTable(t *testing.T) {
	require.NoError(t, validateThresholds(LevelThresholds))
	assert.Equal(t, MaxLevel, LevelThresholds[len(LevelThresholds)-1].Level)

	broken := []LevelThreshold{
		{Level: 1, MinChores: 0},
		{Level: 2, MinChores: 10},
		{Level: 3, MinChores: 10},
		{Level: 4, MinChores: 60},
		{Level: 5, MinChores: 100},
	}
	assert.Error(t, validateThresholds(broken), "equal consecutive thresholds must be rejected")
}

func TestLevelGlyph(t *testing.T) {
	assert.Equal(t, "🌱", LevelGlyph(1))
	assert.Equal(t, "🏆", LevelGlyph(MaxLevel))
	assert.Empty(t, LevelGlyph(6))
}
