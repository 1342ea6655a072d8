package models

import "time"

// LedgerEntry is the immutable proof-of-completion record. At most one entry
// exists per mission (unique constraint on mission_id); that uniqueness is
// the exactly-once accounting guarantee.
type LedgerEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MissionID   string    `json:"mission_id"`
	XP          int       `json:"xp"`
	CompletedAt time.Time `json:"completed_at"`
}
