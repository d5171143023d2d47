package utils

import "time"

func Now() time.Time {
	return time.Now().UTC()
}

func NowPtr() *time.Time {
	now := Now()
	return &now
}

// Today returns the current UTC calendar day truncated to midnight.
// Quota rollover compares days, never instants.
func Today() time.Time {
	return Now().Truncate(24 * time.Hour)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
