package models

import "time"

// Mission statuses. A mission is created Open and transitions to Completed
// exactly once; there is no way back.
const (
	MissionStatusOpen      = "open"
	MissionStatusCompleted = "completed"
)

type Mission struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Reward      int        `json:"reward"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
