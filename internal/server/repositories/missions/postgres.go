package missions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

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

func (r *PostgresRepository) Create(ctx context.Context, mission *models.Mission) (*models.Mission, error) {

	mission.ID = uuid.NewString()
	mission.Status = models.MissionStatusOpen

	query :=
		`INSERT INTO missions (id, user_id, title, description, category, reward, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		mission.ID, mission.UserID, mission.Title, mission.Description,
		mission.Category, mission.Reward, mission.Status).Scan(&mission.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return mission, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, missionID string) (*models.Mission, error) {
	query :=
		`SELECT id, user_id, title, description, category, reward, status, created_at, completed_at
		 FROM missions
		 WHERE id = $1 AND user_id = $2
		 `

	m := &models.Mission{}
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, missionID, userID).Scan(
		&m.ID, &m.UserID, &m.Title, &m.Description, &m.Category,
		&m.Reward, &m.Status, &m.CreatedAt, &completedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Time
	}

	return m, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Mission, error) {
	query :=
		`SELECT id, user_id, title, description, category, reward, status, created_at, completed_at
		 FROM missions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Mission, 0)
	for rows.Next() {
		m := &models.Mission{}
		var completedAt sql.NullTime
		err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Description, &m.Category,
			&m.Reward, &m.Status, &m.CreatedAt, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if completedAt.Valid {
			m.CompletedAt = &completedAt.Time
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) MarkCompleted(ctx context.Context, userID, missionID string, completedAt time.Time) (int, error) {
	query :=
		`UPDATE missions
		 SET status = $1, completed_at = $2
		 WHERE id = $3 AND user_id = $4 AND status = $5
		 RETURNING reward
		 `

	var reward int
	err := r.db.QueryRowContext(ctx, query,
		models.MissionStatusCompleted, completedAt, missionID, userID, models.MissionStatusOpen).Scan(&reward)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return reward, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, int, error) {
	query :=
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $2)
		 FROM missions
		 WHERE user_id = $1
		 `

	var total, completed int
	err := r.db.QueryRowContext(ctx, query, userID, models.MissionStatusCompleted).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}

	return total, completed, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, missionID string) error {
	query :=
		`DELETE FROM missions
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, missionID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}
