package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matchplay/tournament-system/lineups"
	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/repositories"
)

type LineupService interface {
	// Submit replaces a team's lineup for a round. Every slot must hold a
	// rostered player of the expected gender; partial lineups are saved
	// but reported incomplete.
	Submit(ctx context.Context, input SubmitLineupInput) (*models.Lineup, error)
	Get(ctx context.Context, roundID, teamID string) (*models.Lineup, error)
	// ListByRound returns every lineup submitted for the round.
	ListByRound(ctx context.Context, roundID string) ([]*models.Lineup, error)
	// Clear removes the team's lineup for a round, subject to the same
	// deadline and lock rules as Submit.
	Clear(ctx context.Context, roundID, teamID string) error
	// AvailablePlayers lists the rostered players eligible for one slot,
	// given who already fills the others.
	AvailablePlayers(ctx context.Context, roundID, teamID string, slotIndex int) ([]models.Player, error)
}

type SubmitLineupInput struct {
	RoundID string `json:"round_id"`
	TeamID  string `json:"team_id"`
	// PlayerIDs by slot index: [Man1, Man2, Woman1, Woman2]. Nil leaves
	// the slot open.
	PlayerIDs [models.LineupSize]*string `json:"player_ids"`
}

type lineupService struct {
	db         *sql.DB
	lineupRepo repositories.LineupRepository
	rosterRepo repositories.RosterRepository
	roundRepo  repositories.RoundRepository
	stopRepo   repositories.StopRepository
	matchRepo  repositories.MatchRepository
	logger     *slog.Logger
	now        func() time.Time
}

func NewLineupService(
	db *sql.DB,
	lineupRepo repositories.LineupRepository,
	rosterRepo repositories.RosterRepository,
	roundRepo repositories.RoundRepository,
	stopRepo repositories.StopRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) LineupService {
	return &lineupService{
		db:         db,
		lineupRepo: lineupRepo,
		rosterRepo: rosterRepo,
		roundRepo:  roundRepo,
		stopRepo:   stopRepo,
		matchRepo:  matchRepo,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *lineupService) Submit(ctx context.Context, input SubmitLineupInput) (*models.Lineup, error) {
	round, err := s.roundRepo.GetByID(ctx, input.RoundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	stop, err := s.stopRepo.GetByID(ctx, round.StopID)
	if err != nil {
		return nil, err
	}
	if stop.LineupDeadline != nil && s.now().After(*stop.LineupDeadline) {
		return nil, ErrLineupDeadlinePassed
	}

	if err := s.checkTeamPlaysRound(ctx, input.RoundID, input.TeamID); err != nil {
		return nil, err
	}

	roster, err := s.loadRoster(ctx, round.StopID, input.TeamID)
	if err != nil {
		return nil, err
	}
	if err := lineups.ValidateRoster(roster); err != nil {
		return nil, err
	}

	rosterByID := make(map[string]models.Player, len(roster))
	for _, player := range roster {
		rosterByID[player.ID] = player
	}

	var lineup lineups.Lineup
	for slotIndex, playerID := range input.PlayerIDs {
		if playerID == nil {
			continue
		}
		player, ok := rosterByID[*playerID]
		if !ok {
			return nil, fmt.Errorf("%w: player %s", lineups.ErrPlayerNotListed, *playerID)
		}
		if err := lineup.Assign(slotIndex, player); err != nil {
			return nil, err
		}
	}

	record := &models.Lineup{
		ID:      uuid.NewString(),
		RoundID: input.RoundID,
		TeamID:  input.TeamID,
		StopID:  round.StopID,
	}
	for slotIndex := 0; slotIndex < models.LineupSize; slotIndex++ {
		entry := models.LineupEntry{
			ID:        uuid.NewString(),
			SlotIndex: slotIndex,
		}
		if player := lineup[slotIndex]; player != nil {
			playerID := player.ID
			entry.PlayerID = &playerID
			entry.Player = player
		}
		record.Entries = append(record.Entries, entry)
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		return s.lineupRepo.Upsert(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	if !lineup.Complete() {
		s.logger.InfoContext(ctx, "incomplete lineup saved",
			slog.String("round_id", input.RoundID),
			slog.String("team_id", input.TeamID))
	}
	return s.Get(ctx, input.RoundID, input.TeamID)
}

func (s *lineupService) Get(ctx context.Context, roundID, teamID string) (*models.Lineup, error) {
	lineup, err := s.lineupRepo.GetByRoundAndTeam(ctx, roundID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrLineupNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return lineup, nil
}

func (s *lineupService) Clear(ctx context.Context, roundID, teamID string) error {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return ErrNotFound
		}
		return err
	}

	stop, err := s.stopRepo.GetByID(ctx, round.StopID)
	if err != nil {
		return err
	}
	if stop.LineupDeadline != nil && s.now().After(*stop.LineupDeadline) {
		return ErrLineupDeadlinePassed
	}

	if err := s.checkTeamPlaysRound(ctx, roundID, teamID); err != nil {
		return err
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		return s.lineupRepo.DeleteByRoundAndTeam(ctx, tx, roundID, teamID)
	})
	if errors.Is(err, repositories.ErrLineupNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *lineupService) ListByRound(ctx context.Context, roundID string) ([]*models.Lineup, error) {
	if _, err := s.roundRepo.GetByID(ctx, roundID); err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.lineupRepo.ListByRound(ctx, nil, roundID)
}

func (s *lineupService) AvailablePlayers(ctx context.Context, roundID, teamID string, slotIndex int) ([]models.Player, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	roster, err := s.loadRoster(ctx, round.StopID, teamID)
	if err != nil {
		return nil, err
	}

	var current lineups.Lineup
	existing, err := s.lineupRepo.GetByRoundAndTeam(ctx, roundID, teamID)
	if err == nil {
		current = lineups.FromEntries(existing.Entries)
	} else if !errors.Is(err, repositories.ErrLineupNotFound) {
		return nil, err
	}

	if slotIndex < 0 || slotIndex >= models.LineupSize {
		return nil, lineups.ErrSlotOutOfRange
	}
	return lineups.AvailablePlayers(roster, current, slotIndex), nil
}

// checkTeamPlaysRound rejects submissions for teams with no match in the
// round, and locks the lineup once that match has a recorded result.
func (s *lineupService) checkTeamPlaysRound(ctx context.Context, roundID, teamID string) error {
	matches, err := s.matchRepo.ListByRound(ctx, nil, roundID)
	if err != nil {
		return err
	}
	for _, match := range matches {
		sideA := match.TeamAID != nil && *match.TeamAID == teamID
		sideB := match.TeamBID != nil && *match.TeamBID == teamID
		if !sideA && !sideB {
			continue
		}
		if match.WinnerID != nil {
			return ErrLineupLocked
		}
		return nil
	}
	return ErrMatchHasNoLineupTeam
}

func (s *lineupService) loadRoster(ctx context.Context, stopID, teamID string) ([]models.Player, error) {
	entries, err := s.rosterRepo.ListByStopAndTeam(ctx, stopID, teamID)
	if err != nil {
		return nil, err
	}

	roster := make([]models.Player, 0, len(entries))
	for _, entry := range entries {
		if entry.Player != nil {
			roster = append(roster, *entry.Player)
		}
	}
	return roster, nil
}
