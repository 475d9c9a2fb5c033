package store

import (
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
)

func windowsFixture() []domain.ReminderWindow {
	return domain.WindowsAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}
