package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lucasvieira/questify/internal/common"
	"github.com/lucasvieira/questify/internal/dbx"
	"github.com/lucasvieira/questify/internal/server/config"
	"github.com/lucasvieira/questify/internal/server/models"
	"github.com/lucasvieira/questify/internal/server/repositories/repomanager"
)

// CreateMissionInput carries the caller-supplied mission fields. A zero
// Reward means "use the configured minimum".
type CreateMissionInput struct {
	Title       string
	Description string
	Category    string
	Reward      int
}

type MissionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	progression *ProgressionService
	minReward   int
}

func NewMissionService(db *sql.DB, m repomanager.RepositoryManager, p *ProgressionService, cfg *config.Config) *MissionService {
	return &MissionService{
		db:          db,
		repomanager: m,
		progression: p,
		minReward:   cfg.MinMissionReward,
	}
}

func (s *MissionService) Create(ctx context.Context, userID string, input CreateMissionInput) (*models.Mission, error) {

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, common.ErrValidation
	}
	if input.Reward == 0 {
		input.Reward = s.minReward
	}
	if input.Reward < s.minReward {
		return nil, common.ErrValidation
	}

	mission := &models.Mission{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Reward:      input.Reward,
	}

	mission, err := s.repomanager.Missions(s.db).Create(ctx, mission)
	if err != nil {
		return nil, fmt.Errorf("error creating mission: %w", err)
	}

	return mission, nil
}

func (s *MissionService) List(ctx context.Context, userID string) ([]*models.Mission, error) {
	missions, err := s.repomanager.Missions(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing missions: %w", err)
	}
	return missions, nil
}

// Delete removes an Open mission and recomputes the completion rate through
// the progression service's rebuild path, all in one transaction. Completed
// missions cannot be deleted: their ledger entries are immutable and the
// projection invariants depend on them.
func (s *MissionService) Delete(ctx context.Context, userID, missionID string) error {

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		missionsRepo := s.repomanager.Missions(tx)

		mission, err := missionsRepo.Get(ctx, userID, missionID)
		if err != nil {
			return err
		}
		if mission.Status == models.MissionStatusCompleted {
			return common.ErrMissionCompleted
		}

		if err := missionsRepo.Delete(ctx, userID, missionID); err != nil {
			return err
		}

		if _, err := s.progression.rebuildIn(ctx, tx, userID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInternal
			}
			return err
		}

		return nil
	})
}
