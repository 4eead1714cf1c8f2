package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerClubInvalid = errors.New("player club conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id string) (*models.Player, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Player, error)
	ListByClub(ctx context.Context, clubID string) ([]*models.Player, error)
	Update(ctx context.Context, exec SQLExecutor, player *models.Player) error
	Delete(ctx context.Context, id string) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (id, name, gender, rating, club_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		player.ID,
		player.Name,
		player.Gender,
		player.Rating,
		player.ClubID,
	).Scan(&player.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err, "players_club_id_fkey") {
			return ErrPlayerClubInvalid
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	query := `
		SELECT id, name, gender, rating, club_id, created_at
		FROM players
		WHERE id = $1`

	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&player.ID,
		&player.Name,
		&player.Gender,
		&player.Rating,
		&player.ClubID,
		&player.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %s: %w", id, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Player, error) {
	if len(ids) == 0 {
		return map[string]*models.Player{}, nil
	}

	query := `
		SELECT id, name, gender, rating, club_id, created_at
		FROM players
		WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pqStringArray(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make(map[string]*models.Player, len(ids))
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Gender, &p.Rating, &p.ClubID, &p.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		players[p.ID] = &p
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) ListByClub(ctx context.Context, clubID string) ([]*models.Player, error) {
	query := `
		SELECT id, name, gender, rating, club_id, created_at
		FROM players
		WHERE club_id = $1
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Gender, &p.Rating, &p.ClubID, &p.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		UPDATE players
		SET name = $1, gender = $2, rating = $3, club_id = $4
		WHERE id = $5`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		player.Name,
		player.Gender,
		player.Rating,
		player.ClubID,
		player.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err, "players_club_id_fkey") {
			return ErrPlayerClubInvalid
		}
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM players WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
