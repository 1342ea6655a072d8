package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lucasvieira/questify/internal/common"
	"github.com/lucasvieira/questify/internal/dbx"
	"github.com/lucasvieira/questify/internal/logging"
	"github.com/lucasvieira/questify/internal/server/config"
	"github.com/lucasvieira/questify/internal/server/models"
	"github.com/lucasvieira/questify/internal/server/repositories/repomanager"
)

// ProgressionService is the single owner of the stats projection. Every
// mutation of a user's XP, level, streak and completion rate flows through
// it, inside one transaction per operation; nothing else writes the
// projection row.
type ProgressionService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	logger         logging.Logger
	levelStep      int64
	storageTimeout time.Duration
	now            func() time.Time
}

func NewProgressionService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger, cfg *config.Config) *ProgressionService {
	return &ProgressionService{
		db:             db,
		repomanager:    m,
		logger:         l.With("module", "progression"),
		levelStep:      cfg.LevelStep,
		storageTimeout: cfg.StorageTimeout,
		now:            time.Now,
	}
}

// CompleteMission transitions the mission to Completed, credits its reward
// exactly once and updates the stats projection, all inside one transaction.
// It returns the XP awarded by this call, not the cumulative total.
//
// Error contract: common.ErrNotFound when the mission is absent or owned by
// someone else, common.ErrAlreadyCompleted on a repeated completion (stats
// untouched), common.ErrDuplicateEntry when the ledger uniqueness backstop
// fires. On any error the transaction rolls back and no partial effect is
// visible.
func (s *ProgressionService) CompleteMission(ctx context.Context, userID, missionID string) (int, error) {

	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	completedAt := s.now().UTC()

	var awarded int

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		missionsRepo := s.repomanager.Missions(tx)

		// Conditional update: the status check and the transition are one
		// atomic read-modify-write, so two racing completions of the same
		// mission cannot both pass.
		reward, err := missionsRepo.MarkCompleted(ctx, userID, missionID, completedAt)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return s.classifyMissedTransition(ctx, tx, userID, missionID)
			}
			return fmt.Errorf("error completing mission: %w", err)
		}
		awarded = reward

		entry := &models.LedgerEntry{
			UserID:      userID,
			MissionID:   missionID,
			XP:          reward,
			CompletedAt: completedAt,
		}
		if err := s.repomanager.Ledger(tx).Append(ctx, entry); err != nil {
			if errors.Is(err, common.ErrDuplicateEntry) {
				// A race slipped past the transaction guard; the unique
				// constraint caught it. Internal inconsistency, not a
				// caller error.
				s.logger.Error(ctx, "ledger uniqueness backstop fired", "user_id", userID, "mission_id", missionID)
			}
			return err
		}

		return s.applyCompletion(ctx, tx, userID, reward, completedAt)
	})

	if err != nil {
		return 0, err
	}

	return awarded, nil
}

// classifyMissedTransition distinguishes "no such mission for this user"
// from "already completed" after the conditional update matched no row.
func (s *ProgressionService) classifyMissedTransition(ctx context.Context, tx dbx.DBTX, userID, missionID string) error {
	mission, err := s.repomanager.Missions(tx).Get(ctx, userID, missionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error checking mission: %w", err)
	}
	if mission.Status == models.MissionStatusCompleted {
		return common.ErrAlreadyCompleted
	}
	return common.ErrNotFound
}

// applyCompletion credits one completion to the stats projection: the
// accumulator fields move by commutative increments, then the derived
// fields are recomputed from the post-increment values.
func (s *ProgressionService) applyCompletion(ctx context.Context, tx dbx.DBTX, userID string, reward int, completedAt time.Time) error {
	statsRepo := s.repomanager.Stats(tx)

	projection, err := statsRepo.ApplyDelta(ctx, userID, int64(reward), 1)
	if err != nil {
		return fmt.Errorf("error applying stats delta: %w", err)
	}

	total, _, err := s.repomanager.Missions(tx).CountByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error counting missions: %w", err)
	}

	day := dayUTC(completedAt)
	level := levelForXP(projection.XP, s.levelStep)
	rate := completionRate(projection.MissionsCompleted, total)
	streak := nextStreak(projection.Streak, projection.LastCompletedOn, completedAt)

	if err := statsRepo.SetDerived(ctx, userID, level, rate, streak, &day); err != nil {
		return fmt.Errorf("error updating derived stats: %w", err)
	}

	return nil
}

// RebuildStats recomputes the whole projection from the user's missions and
// ledger entries. It is idempotent and, for any completion history, yields
// the same row the incremental path maintains.
func (s *ProgressionService) RebuildStats(ctx context.Context, userID string) (*models.StatsProjection, error) {

	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	var projection *models.StatsProjection

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		projection, err = s.rebuildIn(ctx, tx, userID)
		return err
	})

	if err != nil {
		return nil, err
	}

	return projection, nil
}

// rebuildIn is the transactional body of RebuildStats, also used by the
// mission delete path so the completion rate stays consistent without a
// second writer.
func (s *ProgressionService) rebuildIn(ctx context.Context, tx dbx.DBTX, userID string) (*models.StatsProjection, error) {
	statsRepo := s.repomanager.Stats(tx)
	ledgerRepo := s.repomanager.Ledger(tx)

	current, err := statsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, completedMissions, err := s.repomanager.Missions(tx).CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error counting missions: %w", err)
	}

	xp, err := ledgerRepo.SumXPByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error summing ledger: %w", err)
	}

	completed, err := ledgerRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error counting ledger: %w", err)
	}
	if completed != completedMissions {
		s.logger.Error(ctx, "ledger and mission store disagree", "user_id", userID, "ledger", completed, "missions", completedMissions)
	}

	days, err := ledgerRepo.CompletionDaysByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading completion days: %w", err)
	}

	projection := &models.StatsProjection{
		UserID:            userID,
		XP:                xp,
		Level:             levelForXP(xp, s.levelStep),
		Streak:            streakFromDays(days),
		CompletionRate:    completionRate(completed, total),
		MissionsCompleted: completed,
		UpdatedAt:         current.UpdatedAt,
	}
	if len(days) > 0 {
		day := dayUTC(days[0])
		projection.LastCompletedOn = &day
	}

	if err := statsRepo.Write(ctx, projection); err != nil {
		return nil, fmt.Errorf("error writing projection: %w", err)
	}

	return projection, nil
}

// dayUTC truncates a timestamp to its UTC calendar day.
func dayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// levelForXP maps accumulated XP onto a level. The mapping is a monotone
// non-decreasing step function, so a level can never be lost: XP is never
// subtracted.
func levelForXP(xp, step int64) int {
	if step <= 0 {
		return 1
	}
	return 1 + int(xp/step)
}

// completionRate returns round(completed/total*100), and 0 for a user with
// no missions.
func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// nextStreak advances the streak counter for a completion at the given
// time: a repeat on the same calendar day keeps it, the day after the last
// completion day extends it, anything else starts a new run of 1.
func nextStreak(current int, lastCompletedOn *time.Time, completedAt time.Time) int {
	day := dayUTC(completedAt)
	if lastCompletedOn == nil {
		return 1
	}
	lastDay := dayUTC(*lastCompletedOn)
	switch {
	case lastDay.Equal(day):
		if current < 1 {
			return 1
		}
		return current
	case lastDay.AddDate(0, 0, 1).Equal(day):
		return current + 1
	default:
		return 1
	}
}

// streakFromDays computes the streak from the distinct completion days of
// the ledger, most recent first: the length of the consecutive-day run
// ending at the latest completion day.
func streakFromDays(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if dayUTC(days[i]).AddDate(0, 0, 1).Equal(dayUTC(days[i-1])) {
			streak++
			continue
		}
		break
	}
	return streak
}
