package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {

	entry.ID = uuid.NewString()

	query :=
		`INSERT INTO ledger_entries (id, user_id, mission_id, xp, completed_at)
         VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.MissionID, entry.XP, entry.CompletedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicateEntry
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) SumXPByUser(ctx context.Context, userID string) (int64, error) {
	query :=
		`SELECT COALESCE(SUM(xp), 0) FROM ledger_entries
		 WHERE user_id = $1
		 `

	var sum int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return sum, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query :=
		`SELECT COUNT(*) FROM ledger_entries
		 WHERE user_id = $1
		 `

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *PostgresRepository) CompletionDaysByUser(ctx context.Context, userID string) ([]time.Time, error) {
	query :=
		`SELECT DISTINCT (completed_at AT TIME ZONE 'UTC')::date AS day
		 FROM ledger_entries
		 WHERE user_id = $1
		 ORDER BY day DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return days, nil
}
