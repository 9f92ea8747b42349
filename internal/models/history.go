package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryNote - запись журнала действий пользователя (login/logout/logout_all).
type HistoryNote struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Action      string
	Fingerprint string
	OccurredAt  time.Time
}
