package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/repositories"
	"github.com/matchplay/tournament-system/storage"
)

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Delete(ctx context.Context, id string) error

	AddTeam(ctx context.Context, tournamentID string, input CreateTeamInput) (*models.Team, error)
	ListTeams(ctx context.Context, tournamentID string) ([]*models.Team, error)
	UpdateTeam(ctx context.Context, teamID string, input UpdateTeamInput) (*models.Team, error)
	UploadTeamLogo(ctx context.Context, teamID string, contentType string, file io.Reader) (*models.Team, error)
	AssignSeeds(ctx context.Context, tournamentID string, seeds map[string]int) error
	RemoveTeam(ctx context.Context, teamID string) error
}

type CreateTournamentInput struct {
	Name          string                `json:"name"`
	Type          models.TournamentType `json:"type"`
	GamesPerMatch int                   `json:"games_per_match"`
}

type CreateTeamInput struct {
	Name   string  `json:"name"`
	ClubID *string `json:"club_id"`
	Seed   *int    `json:"seed"`
}

type UpdateTeamInput struct {
	Name   *string `json:"name"`
	ClubID *string `json:"club_id"`
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	stopRepo       repositories.StopRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	stopRepo repositories.StopRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		stopRepo:       stopRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	switch input.Type {
	case models.TypeDoubleElimination, models.TypeRoundRobin:
	default:
		return nil, ErrTournamentTypeInvalid
	}

	gamesPerMatch := input.GamesPerMatch
	if gamesPerMatch <= 0 {
		gamesPerMatch = models.DefaultGamesPerMatch
	}

	tournament := &models.Tournament{
		ID:            uuid.NewString(),
		Name:          input.Name,
		Type:          input.Type,
		GamesPerMatch: gamesPerMatch,
	}

	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameTaken) {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	stops, err := s.stopRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops for tournament %s: %w", id, err)
	}
	for _, stop := range stops {
		tournament.Stops = append(tournament.Stops, *stop)
	}

	teams, err := s.ListTeams(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		tournament.Teams = append(tournament.Teams, *team)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	return s.tournamentRepo.List(ctx)
}

func (s *tournamentService) Delete(ctx context.Context, id string) error {
	err := s.tournamentRepo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *tournamentService) AddTeam(ctx context.Context, tournamentID string, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	team := &models.Team{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Name:         input.Name,
		ClubID:       input.ClubID,
		Seed:         input.Seed,
	}

	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		if errors.Is(err, repositories.ErrTeamSeedTaken) {
			return nil, ErrSeedConflict
		}
		return nil, err
	}
	return team, nil
}

func (s *tournamentService) ListTeams(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		populateTeamLogoURL(team, s.uploader)
	}
	return teams, nil
}

func (s *tournamentService) UpdateTeam(ctx context.Context, teamID string, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTeamNameRequired
		}
		team.Name = *input.Name
	}
	if input.ClubID != nil {
		team.ClubID = input.ClubID
	}

	if err := s.teamRepo.Update(ctx, nil, team); err != nil {
		if errors.Is(err, repositories.ErrTeamClubInvalid) {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
		}
		return nil, err
	}
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *tournamentService) UploadTeamLogo(ctx context.Context, teamID string, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("teams/%s/logo%s", teamID, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	if team.LogoKey != nil && *team.LogoKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *team.LogoKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous team logo",
				slog.String("team_id", teamID),
				slog.String("key", *team.LogoKey),
				slog.Any("error", delErr))
		}
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &result.Key); err != nil {
		return nil, err
	}
	team.LogoKey = &result.Key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

// AssignSeeds rewrites the seeds for a tournament in one transaction.
// Seeds are cleared first so swapping two teams does not trip the
// uniqueness constraint mid-update.
func (s *tournamentService) AssignSeeds(ctx context.Context, tournamentID string, seeds map[string]int) error {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	teamIDs := make(map[string]bool, len(teams))
	for _, team := range teams {
		teamIDs[team.ID] = true
	}
	seen := make(map[int]string, len(seeds))
	for teamID, seed := range seeds {
		if !teamIDs[teamID] {
			return fmt.Errorf("%w: team %s is not in tournament %s", ErrValidationFailed, teamID, tournamentID)
		}
		if seed < 1 {
			return fmt.Errorf("%w: seed must be positive, got %d", ErrValidationFailed, seed)
		}
		if other, dup := seen[seed]; dup {
			return fmt.Errorf("%w: teams %s and %s share seed %d", ErrSeedConflict, other, teamID, seed)
		}
		seen[seed] = teamID
	}

	return runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		for teamID := range seeds {
			if err := s.teamRepo.UpdateSeed(ctx, tx, teamID, nil); err != nil {
				return err
			}
		}
		for teamID, seed := range seeds {
			seedValue := seed
			if err := s.teamRepo.UpdateSeed(ctx, tx, teamID, &seedValue); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *tournamentService) RemoveTeam(ctx context.Context, teamID string) error {
	err := s.teamRepo.Delete(ctx, teamID)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrNotFound
	}
	return err
}
