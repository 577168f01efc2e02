package core

// PersistedBadgeIDs returns the distinct badge ids of the stored records.
func PersistedBadgeIDs(badges []Badge) []BadgeID {
	seen := make(map[BadgeID]struct{}, len(badges))
	out := make([]BadgeID, 0, len(badges))
	for _, b := range badges {
		if _, dup := seen[b.BadgeID]; dup {
			continue
		}
		seen[b.BadgeID] = struct{}{}
		out = append(out, b.BadgeID)
	}
	return out
}

// BadgeDelta returns earned minus persisted, preserving the order of earned.
// Badges are never revoked: ids in persisted but not in earned are ignored.
func BadgeDelta(earned, persisted []BadgeID) []BadgeID {
	have := make(map[BadgeID]struct{}, len(persisted))
	for _, id := range persisted {
		have[id] = struct{}{}
	}
	var delta []BadgeID
	for _, id := range earned {
		if _, ok := have[id]; ok {
			continue
		}
		have[id] = struct{}{}
		delta = append(delta, id)
	}
	return delta
}
