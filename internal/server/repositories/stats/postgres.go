package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lucasvieira/questify/internal/common"
	"github.com/lucasvieira/questify/internal/dbx"
	"github.com/lucasvieira/questify/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Init(ctx context.Context, userID string) error {
	query :=
		`INSERT INTO user_stats (user_id)
         VALUES ($1)
		 `

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.StatsProjection, error) {
	query :=
		`SELECT user_id, xp, level, streak, completion_rate, missions_completed, last_completed_on, updated_at
		 FROM user_stats
		 WHERE user_id = $1
		 `

	s := &models.StatsProjection{}
	var lastCompletedOn sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.XP, &s.Level, &s.Streak, &s.CompletionRate,
		&s.MissionsCompleted, &lastCompletedOn, &s.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lastCompletedOn.Valid {
		s.LastCompletedOn = &lastCompletedOn.Time
	}

	return s, nil
}

func (r *PostgresRepository) ApplyDelta(ctx context.Context, userID string, xpDelta int64, completedDelta int) (*models.StatsProjection, error) {
	query :=
		`UPDATE user_stats
		 SET xp = xp + $2,
		     missions_completed = missions_completed + $3,
		     updated_at = now()
		 WHERE user_id = $1
		 RETURNING user_id, xp, level, streak, completion_rate, missions_completed, last_completed_on, updated_at
		 `

	s := &models.StatsProjection{}
	var lastCompletedOn sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, xpDelta, completedDelta).Scan(
		&s.UserID, &s.XP, &s.Level, &s.Streak, &s.CompletionRate,
		&s.MissionsCompleted, &lastCompletedOn, &s.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lastCompletedOn.Valid {
		s.LastCompletedOn = &lastCompletedOn.Time
	}

	return s, nil
}

func (r *PostgresRepository) SetDerived(ctx context.Context, userID string, level, completionRate, streak int, lastCompletedOn *time.Time) error {
	query :=
		`UPDATE user_stats
		 SET level = $2, completion_rate = $3, streak = $4, last_completed_on = $5, updated_at = now()
		 WHERE user_id = $1
		 `

	_, err := r.db.ExecContext(ctx, query, userID, level, completionRate, streak, lastCompletedOn)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Write(ctx context.Context, p *models.StatsProjection) error {
	query :=
		`UPDATE user_stats
		 SET xp = $2, level = $3, streak = $4, completion_rate = $5,
		     missions_completed = $6, last_completed_on = $7, updated_at = now()
		 WHERE user_id = $1
		 `

	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.XP, p.Level, p.Streak, p.CompletionRate,
		p.MissionsCompleted, p.LastCompletedOn)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
