package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadgeDelta(t *testing.T) {
	cases := []struct {
		name      string
		earned    []BadgeID
		persisted []BadgeID
		want      []BadgeID
	}{
		{"nothing earned", nil, nil, nil},
		{"all new", []BadgeID{BadgeFirstChore, BadgeSaverMonth}, nil, []BadgeID{BadgeFirstChore, BadgeSaverMonth}},
		{"partially persisted", []BadgeID{BadgeFirstChore, BadgeChore10}, []BadgeID{BadgeFirstChore}, []BadgeID{BadgeChore10}},
		{"all persisted", []BadgeID{BadgeFirstChore}, []BadgeID{BadgeFirstChore}, nil},
		{"never revokes", nil, []BadgeID{BadgeFirstChore, BadgeFirstGoal}, nil},
		{"duplicate earned ids", []BadgeID{BadgeFirstGoal, BadgeFirstGoal}, nil, []BadgeID{BadgeFirstGoal}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BadgeDelta(tc.earned, tc.persisted))
		})
	}
}

func TestReconciliationIsIdempotent(t *testing.T) {
	txs := incomesOn("2024-01-01")
	earned := CheckEarnedBadgeIDs(txs, nil)

	var persisted []Badge
	delta := BadgeDelta(earned, PersistedBadgeIDs(persisted))
	assert.NotEmpty(t, delta)
	for _, id := range delta {
		persisted = append(persisted, Badge{OwnerID: "kid", BadgeID: id})
	}

	again := BadgeDelta(CheckEarnedBadgeIDs(txs, nil), PersistedBadgeIDs(persisted))
	assert.Empty(t, again)
}

func TestPersistedBadgeIDs(t *testing.T) {
	got := PersistedBadgeIDs([]Badge{
		{BadgeID: BadgeFirstChore},
		{BadgeID: BadgeFirstChore},
		{BadgeID: BadgeFirstGoal},
	})
	assert.Equal(t, []BadgeID{BadgeFirstChore, BadgeFirstGoal}, got)
}
