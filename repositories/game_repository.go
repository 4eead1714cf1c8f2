package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/matchplay/tournament-system/models"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameMatchInvalid  = errors.New("game match conflict or invalid")
	ErrGameSlotDuplicate = errors.New("game slot already exists for match")
)

const gameColumns = `
	id, match_id, slot, team_a_score, team_b_score, started_at, ended_at,
	is_complete, court_number, created_at`

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	CreateBatch(ctx context.Context, exec SQLExecutor, games []*models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Game, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID string) ([]*models.Game, error)
	Update(ctx context.Context, exec SQLExecutor, game *models.Game) error
	ReplaceLineup(ctx context.Context, exec SQLExecutor, gameID string, side models.TeamSide, playerIDs []string) error
	GetLineups(ctx context.Context, exec SQLExecutor, gameID string) (teamA, teamB []models.Player, err error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games
			(id, match_id, slot, team_a_score, team_b_score, started_at, ended_at, is_complete, court_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		game.ID,
		game.MatchID,
		game.Slot,
		game.TeamAScore,
		game.TeamBScore,
		game.StartedAt,
		game.EndedAt,
		game.IsComplete,
		game.CourtNumber,
	).Scan(&game.CreatedAt)

	return r.handleGameError(err)
}

func (r *postgresGameRepository) CreateBatch(ctx context.Context, exec SQLExecutor, games []*models.Game) error {
	for _, game := range games {
		if err := r.Create(ctx, exec, game); err != nil {
			return fmt.Errorf("failed to create game slot %s: %w", game.Slot, err)
		}
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game := &models.Game{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&game.ID,
		&game.MatchID,
		&game.Slot,
		&game.TeamAScore,
		&game.TeamBScore,
		&game.StartedAt,
		&game.EndedAt,
		&game.IsComplete,
		&game.CourtNumber,
		&game.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game %s: %w", id, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID string) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + `
		FROM games
		WHERE match_id = $1
		ORDER BY created_at ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		var game models.Game
		if scanErr := rows.Scan(
			&game.ID,
			&game.MatchID,
			&game.Slot,
			&game.TeamAScore,
			&game.TeamBScore,
			&game.StartedAt,
			&game.EndedAt,
			&game.IsComplete,
			&game.CourtNumber,
			&game.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		games = append(games, &game)
	}
	return games, rows.Err()
}

func (r *postgresGameRepository) Update(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		UPDATE games
		SET team_a_score = $1, team_b_score = $2, started_at = $3, ended_at = $4,
		    is_complete = $5, court_number = $6
		WHERE id = $7`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		game.TeamAScore,
		game.TeamBScore,
		game.StartedAt,
		game.EndedAt,
		game.IsComplete,
		game.CourtNumber,
		game.ID,
	)
	if err != nil {
		return r.handleGameError(err)
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrGameNotFound
	}
	return nil
}

// ReplaceLineup snapshots the players fielded for one side of a game.
// Called when scoring begins so later roster lineup edits leave the
// played game untouched.
func (r *postgresGameRepository) ReplaceLineup(ctx context.Context, exec SQLExecutor, gameID string, side models.TeamSide, playerIDs []string) error {
	executor := r.getExecutor(exec)

	deleteQuery := `DELETE FROM game_lineups WHERE game_id = $1 AND side = $2`
	if _, err := executor.ExecContext(ctx, deleteQuery, gameID, side); err != nil {
		return err
	}

	insertQuery := `INSERT INTO game_lineups (game_id, side, position, player_id) VALUES ($1, $2, $3, $4)`
	for i, playerID := range playerIDs {
		if _, err := executor.ExecContext(ctx, insertQuery, gameID, side, i, playerID); err != nil {
			return r.handleGameError(err)
		}
	}
	return nil
}

func (r *postgresGameRepository) GetLineups(ctx context.Context, exec SQLExecutor, gameID string) ([]models.Player, []models.Player, error) {
	query := `
		SELECT gl.side, p.id, p.name, p.gender, p.rating, p.club_id, p.created_at
		FROM game_lineups gl
		JOIN players p ON p.id = gl.player_id
		WHERE gl.game_id = $1
		ORDER BY gl.side, gl.position`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var teamA, teamB []models.Player
	for rows.Next() {
		var side models.TeamSide
		var p models.Player
		if scanErr := rows.Scan(&side, &p.ID, &p.Name, &p.Gender, &p.Rating, &p.ClubID, &p.CreatedAt); scanErr != nil {
			return nil, nil, scanErr
		}
		if side == models.SideA {
			teamA = append(teamA, p)
		} else {
			teamB = append(teamB, p)
		}
	}
	return teamA, teamB, rows.Err()
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "games_match_id_fkey" {
				return ErrGameMatchInvalid
			}
		case "23505": // unique_violation
			if pqErr.Constraint == "games_match_id_slot_key" {
				return ErrGameSlotDuplicate
			}
		}
	}
	return err
}
