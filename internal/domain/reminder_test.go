package domain

import (
	"errors"
	"testing"
	"time"
)

func TestWindowsAt(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	windows := WindowsAt(now)

	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	urgent, upcoming := windows[0], windows[1]

	if urgent.Tier != TierOneHour || upcoming.Tier != TierTwentyFourHour {
		t.Fatalf("unexpected tier order: %s, %s", urgent.Tier, upcoming.Tier)
	}
	if !urgent.Start.Equal(now) || !urgent.End.Equal(now.Add(time.Hour)) {
		t.Errorf("urgent window = [%v, %v]", urgent.Start, urgent.End)
	}
	if !upcoming.Start.Equal(urgent.End) || !upcoming.End.Equal(now.Add(24*time.Hour)) {
		t.Errorf("upcoming window = (%v, %v]", upcoming.Start, upcoming.End)
	}
}

func TestTierFor(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		due    time.Time
		want   ReminderTier
		wantOK bool
	}{
		{"exactly now", now, TierOneHour, true},
		{"thirty minutes", now.Add(30 * time.Minute), TierOneHour, true},
		{"exactly one hour", now.Add(time.Hour), TierOneHour, true},
		{"just past one hour", now.Add(time.Hour + time.Second), TierTwentyFourHour, true},
		{"ten hours", now.Add(10 * time.Hour), TierTwentyFourHour, true},
		{"exactly 24 hours", now.Add(24 * time.Hour), TierTwentyFourHour, true},
		{"beyond 24 hours", now.Add(24*time.Hour + time.Second), "", false},
		{"overdue", now.Add(-time.Minute), "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := TierFor(now, tc.due)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("TierFor() = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestHoursRemaining(t *testing.T) {
	if TierOneHour.HoursRemaining() != 1 {
		t.Errorf("one hour tier label = %d", TierOneHour.HoursRemaining())
	}
	if TierTwentyFourHour.HoursRemaining() != 24 {
		t.Errorf("24 hour tier label = %d", TierTwentyFourHour.HoursRemaining())
	}
}

func TestParseReminderTier(t *testing.T) {
	tier, err := ParseReminderTier("one_hour")
	if err != nil || tier != TierOneHour {
		t.Fatalf("ParseReminderTier(one_hour) = %q, %v", tier, err)
	}
	if _, err := ParseReminderTier("weekly"); !errors.Is(err, ErrInvalidReminderTier) {
		t.Errorf("expected ErrInvalidReminderTier, got %v", err)
	}
}
