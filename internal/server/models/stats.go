package models

import "time"

// StatsProjection is the per-user aggregate derived from the user's missions
// and ledger entries. It is written only by the progression service.
//
// LastCompletedOn is the UTC calendar day of the most recent completion and
// carries no time-of-day component; it backs the streak computation.
type StatsProjection struct {
	UserID            string     `json:"user_id"`
	XP                int64      `json:"xp"`
	Level             int        `json:"level"`
	Streak            int        `json:"streak"`
	CompletionRate    int        `json:"completion_rate"`
	MissionsCompleted int        `json:"missions_completed"`
	LastCompletedOn   *time.Time `json:"last_completed_on,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
