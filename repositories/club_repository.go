package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

var (
	ErrClubNotFound  = errors.New("club not found")
	ErrClubNameTaken = errors.New("club name already taken")
)

type ClubRepository interface {
	Create(ctx context.Context, club *models.Club) error
	GetByID(ctx context.Context, id string) (*models.Club, error)
	List(ctx context.Context) ([]*models.Club, error)
	Update(ctx context.Context, club *models.Club) error
	UpdateLogoKey(ctx context.Context, id string, logoKey *string) error
	Delete(ctx context.Context, id string) error
}

type postgresClubRepository struct {
	db *sql.DB
}

func NewPostgresClubRepository(db *sql.DB) ClubRepository {
	return &postgresClubRepository{db: db}
}

func (r *postgresClubRepository) Create(ctx context.Context, club *models.Club) error {
	query := `
		INSERT INTO clubs (id, name, city)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, club.ID, club.Name, club.City).Scan(&club.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "clubs_name_key") {
			return ErrClubNameTaken
		}
		return fmt.Errorf("failed to create club: %w", err)
	}
	return nil
}

func (r *postgresClubRepository) GetByID(ctx context.Context, id string) (*models.Club, error) {
	query := `
		SELECT id, name, city, logo_key, created_at
		FROM clubs
		WHERE id = $1`

	club := &models.Club{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&club.ID,
		&club.Name,
		&club.City,
		&club.LogoKey,
		&club.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to scan club %s: %w", id, err)
	}
	return club, nil
}

func (r *postgresClubRepository) List(ctx context.Context) ([]*models.Club, error) {
	query := `
		SELECT id, name, city, logo_key, created_at
		FROM clubs
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clubs := make([]*models.Club, 0)
	for rows.Next() {
		var club models.Club
		if scanErr := rows.Scan(&club.ID, &club.Name, &club.City, &club.LogoKey, &club.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		clubs = append(clubs, &club)
	}
	return clubs, rows.Err()
}

func (r *postgresClubRepository) Update(ctx context.Context, club *models.Club) error {
	query := `UPDATE clubs SET name = $1, city = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, club.Name, club.City, club.ID)
	if err != nil {
		if isUniqueViolation(err, "clubs_name_key") {
			return ErrClubNameTaken
		}
		return err
	}
	return r.requireClub(result)
}

func (r *postgresClubRepository) UpdateLogoKey(ctx context.Context, id string, logoKey *string) error {
	query := `UPDATE clubs SET logo_key = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, logoKey, id)
	if err != nil {
		return err
	}
	return r.requireClub(result)
}

func (r *postgresClubRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM clubs WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return r.requireClub(result)
}

func (r *postgresClubRepository) requireClub(result sql.Result) error {
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrClubNotFound
	}
	return nil
}
