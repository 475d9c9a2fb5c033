package domain

import (
	"fmt"
	"time"
)

// ReminderTier identifies one reminder threshold.
type ReminderTier string

// The two reminder tiers. The urgent tier is always evaluated first.
const (
	TierOneHour        ReminderTier = "one_hour"
	TierTwentyFourHour ReminderTier = "twenty_four_hour"
)

// Tiers lists the reminder tiers in scan order.
var Tiers = []ReminderTier{TierOneHour, TierTwentyFourHour}

// ParseReminderTier converts a stored tier name back into a ReminderTier.
func ParseReminderTier(s string) (ReminderTier, error) {
	switch ReminderTier(s) {
	case TierOneHour, TierTwentyFourHour:
		return ReminderTier(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReminderTier, s)
}

// HoursRemaining is the coarse label used in reminder emails (1 or 24).
func (t ReminderTier) HoursRemaining() int {
	if t == TierOneHour {
		return 1
	}
	return 24
}

// ReminderWindow is the due date range selected for one tier.
// End is always inclusive; Start is inclusive only for the urgent tier so the
// two windows never overlap at now+1h.
type ReminderWindow struct {
	Tier           ReminderTier
	Start          time.Time
	End            time.Time
	StartInclusive bool
}

// Contains reports whether due falls inside the window.
func (w ReminderWindow) Contains(due time.Time) bool {
	if due.After(w.End) {
		return false
	}
	if w.StartInclusive {
		return !due.Before(w.Start)
	}
	return due.After(w.Start)
}

// WindowsAt computes both reminder windows from a single snapshot of now:
// urgent [now, now+1h] and upcoming (now+1h, now+24h].
func WindowsAt(now time.Time) []ReminderWindow {
	now = now.UTC()
	oneHour := now.Add(time.Hour)
	return []ReminderWindow{
		{Tier: TierOneHour, Start: now, End: oneHour, StartInclusive: true},
		{Tier: TierTwentyFourHour, Start: oneHour, End: now.Add(24 * time.Hour)},
	}
}

// TierFor returns the tier whose window contains due at now, if any.
func TierFor(now, due time.Time) (ReminderTier, bool) {
	for _, w := range WindowsAt(now) {
		if w.Contains(due) {
			return w.Tier, true
		}
	}
	return "", false
}
