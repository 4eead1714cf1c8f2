package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matchplay/tournament-system/brackets"
	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/repositories"
	"github.com/matchplay/tournament-system/storage"
)

type StopService interface {
	Create(ctx context.Context, input CreateStopInput) (*models.Stop, error)
	GetByID(ctx context.Context, id string) (*models.Stop, error)
	// GetFull returns the stop with rounds, matches, games and team details
	// attached, which is what the bracket view renders.
	GetFull(ctx context.Context, id string) (*models.Stop, error)
	Update(ctx context.Context, id string, input UpdateStopInput) (*models.Stop, error)
	Delete(ctx context.Context, id string) error

	SetRoster(ctx context.Context, stopID, teamID string, playerIDs []string) ([]*models.RosterEntry, error)
	GetRoster(ctx context.Context, stopID, teamID string) ([]*models.RosterEntry, error)

	// FindDuplicateMatchups reports team pairs scheduled against each other
	// more than once across the stop's rounds.
	FindDuplicateMatchups(ctx context.Context, stopID string) ([]brackets.DuplicateMatchup, error)
}

type CreateStopInput struct {
	TournamentID   string     `json:"tournament_id"`
	Name           string     `json:"name"`
	StartAt        time.Time  `json:"start_at"`
	LineupDeadline *time.Time `json:"lineup_deadline"`
}

type UpdateStopInput struct {
	Name           *string    `json:"name"`
	StartAt        *time.Time `json:"start_at"`
	LineupDeadline *time.Time `json:"lineup_deadline"`
}

type stopService struct {
	db         *sql.DB
	stopRepo   repositories.StopRepository
	roundRepo  repositories.RoundRepository
	matchRepo  repositories.MatchRepository
	gameRepo   repositories.GameRepository
	teamRepo   repositories.TeamRepository
	rosterRepo repositories.RosterRepository
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewStopService(
	db *sql.DB,
	stopRepo repositories.StopRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	teamRepo repositories.TeamRepository,
	rosterRepo repositories.RosterRepository,
	playerRepo repositories.PlayerRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) StopService {
	return &stopService{
		db:         db,
		stopRepo:   stopRepo,
		roundRepo:  roundRepo,
		matchRepo:  matchRepo,
		gameRepo:   gameRepo,
		teamRepo:   teamRepo,
		rosterRepo: rosterRepo,
		playerRepo: playerRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *stopService) Create(ctx context.Context, input CreateStopInput) (*models.Stop, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: stop name is required", ErrValidationFailed)
	}
	if input.TournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrValidationFailed)
	}

	stop := &models.Stop{
		ID:             uuid.NewString(),
		TournamentID:   input.TournamentID,
		Name:           input.Name,
		StartAt:        input.StartAt,
		LineupDeadline: input.LineupDeadline,
	}

	if err := s.stopRepo.Create(ctx, nil, stop); err != nil {
		if errors.Is(err, repositories.ErrStopTournamentInvalid) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stop, nil
}

func (s *stopService) GetByID(ctx context.Context, id string) (*models.Stop, error) {
	stop, err := s.stopRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrStopNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stop, nil
}

func (s *stopService) GetFull(ctx context.Context, id string) (*models.Stop, error) {
	stop, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		rounds  []*models.Round
		matches []*models.Match
		teams   []*models.Team
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var listErr error
		rounds, listErr = s.roundRepo.ListByStop(gctx, id)
		return listErr
	})
	g.Go(func() error {
		var listErr error
		matches, listErr = s.matchRepo.ListByStop(gctx, nil, id)
		return listErr
	})
	g.Go(func() error {
		var listErr error
		teams, listErr = s.teamRepo.ListByTournament(gctx, stop.TournamentID)
		return listErr
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load stop %s details: %w", id, err)
	}

	teamsByID := make(map[string]*models.Team, len(teams))
	for _, team := range teams {
		populateTeamLogoURL(team, s.uploader)
		teamsByID[team.ID] = team
	}

	matchesByRound := make(map[string][]models.Match, len(rounds))
	for _, match := range matches {
		games, gamesErr := s.gameRepo.ListByMatch(ctx, nil, match.ID)
		if gamesErr != nil {
			return nil, fmt.Errorf("failed to load games for match %s: %w", match.ID, gamesErr)
		}
		for _, game := range games {
			match.Games = append(match.Games, *game)
		}
		if match.TeamAID != nil {
			match.TeamA = teamsByID[*match.TeamAID]
		}
		if match.TeamBID != nil {
			match.TeamB = teamsByID[*match.TeamBID]
		}
		matchesByRound[match.RoundID] = append(matchesByRound[match.RoundID], *match)
	}

	for _, round := range rounds {
		round.Matches = matchesByRound[round.ID]
		stop.Rounds = append(stop.Rounds, *round)
	}
	return stop, nil
}

func (s *stopService) Update(ctx context.Context, id string, input UpdateStopInput) (*models.Stop, error) {
	stop, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		stop.Name = *input.Name
	}
	if input.StartAt != nil {
		stop.StartAt = *input.StartAt
	}
	if input.LineupDeadline != nil {
		stop.LineupDeadline = input.LineupDeadline
	}

	if err := s.stopRepo.Update(ctx, nil, stop); err != nil {
		if errors.Is(err, repositories.ErrStopNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stop, nil
}

func (s *stopService) Delete(ctx context.Context, id string) error {
	err := s.stopRepo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrStopNotFound) {
		return ErrNotFound
	}
	return err
}

// SetRoster replaces the team's player pool for the stop.
func (s *stopService) SetRoster(ctx context.Context, stopID, teamID string, playerIDs []string) ([]*models.RosterEntry, error) {
	if _, err := s.GetByID(ctx, stopID); err != nil {
		return nil, err
	}

	known, err := s.playerRepo.GetByIDs(ctx, playerIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.RosterEntry, 0, len(playerIDs))
	seen := make(map[string]bool, len(playerIDs))
	for _, playerID := range playerIDs {
		if seen[playerID] {
			return nil, fmt.Errorf("%w: player %s listed twice", ErrValidationFailed, playerID)
		}
		if known[playerID] == nil {
			return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
		}
		seen[playerID] = true
		entries = append(entries, &models.RosterEntry{
			ID:       uuid.NewString(),
			StopID:   stopID,
			TeamID:   teamID,
			PlayerID: playerID,
		})
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.rosterRepo.DeleteByStopAndTeam(ctx, tx, stopID, teamID); err != nil {
			return err
		}
		return s.rosterRepo.CreateBatch(ctx, tx, entries)
	})
	if err != nil {
		return nil, err
	}
	return s.rosterRepo.ListByStopAndTeam(ctx, stopID, teamID)
}

func (s *stopService) GetRoster(ctx context.Context, stopID, teamID string) ([]*models.RosterEntry, error) {
	return s.rosterRepo.ListByStopAndTeam(ctx, stopID, teamID)
}

func (s *stopService) FindDuplicateMatchups(ctx context.Context, stopID string) ([]brackets.DuplicateMatchup, error) {
	stop, err := s.GetFull(ctx, stopID)
	if err != nil {
		return nil, err
	}
	return brackets.FindDuplicates(stop.Rounds), nil
}
