package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/repositories"
	"github.com/matchplay/tournament-system/storage"
)

type ClubService interface {
	Create(ctx context.Context, input CreateClubInput) (*models.Club, error)
	GetByID(ctx context.Context, id string) (*models.Club, error)
	List(ctx context.Context) ([]*models.Club, error)
	Delete(ctx context.Context, id string) error
	UploadLogo(ctx context.Context, clubID string, contentType string, file io.Reader) (*models.Club, error)

	AddPlayer(ctx context.Context, clubID string, input CreatePlayerInput) (*models.Player, error)
	ListPlayers(ctx context.Context, clubID string) ([]*models.Player, error)
	RemovePlayer(ctx context.Context, playerID string) error
}

type CreateClubInput struct {
	Name string  `json:"name"`
	City *string `json:"city"`
}

type CreatePlayerInput struct {
	Name   string        `json:"name"`
	Gender models.Gender `json:"gender"`
	Rating *float64      `json:"rating"`
}

type clubService struct {
	clubRepo   repositories.ClubRepository
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewClubService(
	clubRepo repositories.ClubRepository,
	playerRepo repositories.PlayerRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ClubService {
	return &clubService{
		clubRepo:   clubRepo,
		playerRepo: playerRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *clubService) Create(ctx context.Context, input CreateClubInput) (*models.Club, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: club name is required", ErrValidationFailed)
	}

	club := &models.Club{
		ID:   uuid.NewString(),
		Name: input.Name,
		City: input.City,
	}
	if err := s.clubRepo.Create(ctx, club); err != nil {
		if errors.Is(err, repositories.ErrClubNameTaken) {
			return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
		}
		return nil, err
	}
	return club, nil
}

func (s *clubService) GetByID(ctx context.Context, id string) (*models.Club, error) {
	club, err := s.clubRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	populateClubLogoURL(club, s.uploader)

	players, err := s.playerRepo.ListByClub(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, player := range players {
		club.Players = append(club.Players, *player)
	}
	return club, nil
}

func (s *clubService) List(ctx context.Context) ([]*models.Club, error) {
	clubs, err := s.clubRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, club := range clubs {
		populateClubLogoURL(club, s.uploader)
	}
	return clubs, nil
}

func (s *clubService) Delete(ctx context.Context, id string) error {
	err := s.clubRepo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrClubNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *clubService) UploadLogo(ctx context.Context, clubID string, contentType string, file io.Reader) (*models.Club, error) {
	club, err := s.GetByID(ctx, clubID)
	if err != nil {
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("clubs/%s/logo%s", clubID, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload club logo: %w", err)
	}

	if club.LogoKey != nil && *club.LogoKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *club.LogoKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous club logo",
				slog.String("club_id", clubID),
				slog.String("key", *club.LogoKey),
				slog.Any("error", delErr))
		}
	}

	if err := s.clubRepo.UpdateLogoKey(ctx, clubID, &result.Key); err != nil {
		return nil, err
	}
	club.LogoKey = &result.Key
	populateClubLogoURL(club, s.uploader)
	return club, nil
}

func (s *clubService) AddPlayer(ctx context.Context, clubID string, input CreatePlayerInput) (*models.Player, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	switch input.Gender {
	case models.GenderMale, models.GenderFemale:
	default:
		return nil, fmt.Errorf("%w: invalid gender %q", ErrValidationFailed, input.Gender)
	}

	player := &models.Player{
		ID:     uuid.NewString(),
		Name:   input.Name,
		Gender: input.Gender,
		Rating: input.Rating,
		ClubID: &clubID,
	}
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerClubInvalid) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *clubService) ListPlayers(ctx context.Context, clubID string) ([]*models.Player, error) {
	return s.playerRepo.ListByClub(ctx, clubID)
}

func (s *clubService) RemovePlayer(ctx context.Context, playerID string) error {
	err := s.playerRepo.Delete(ctx, playerID)
	if errors.Is(err, repositories.ErrPlayerNotFound) {
		return ErrNotFound
	}
	return err
}
