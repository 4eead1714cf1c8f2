package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

var (
	ErrRoundNotFound    = errors.New("round not found")
	ErrRoundStopInvalid = errors.New("round stop conflict or invalid")
)

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id string) (*models.Round, error)
	ListByStop(ctx context.Context, stopID string) ([]*models.Round, error)
	DeleteByStop(ctx context.Context, exec SQLExecutor, stopID string) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		INSERT INTO rounds (id, stop_id, idx, bracket_type, depth)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		round.ID,
		round.StopID,
		round.Idx,
		round.BracketType,
		round.Depth,
	).Scan(&round.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err, "rounds_stop_id_fkey") {
			return ErrRoundStopInvalid
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id string) (*models.Round, error) {
	query := `
		SELECT id, stop_id, idx, bracket_type, depth, created_at
		FROM rounds
		WHERE id = $1`

	round := &models.Round{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&round.ID,
		&round.StopID,
		&round.Idx,
		&round.BracketType,
		&round.Depth,
		&round.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round %s: %w", id, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) ListByStop(ctx context.Context, stopID string) ([]*models.Round, error) {
	query := `
		SELECT id, stop_id, idx, bracket_type, depth, created_at
		FROM rounds
		WHERE stop_id = $1
		ORDER BY idx ASC`

	rows, err := r.db.QueryContext(ctx, query, stopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		var round models.Round
		if scanErr := rows.Scan(
			&round.ID,
			&round.StopID,
			&round.Idx,
			&round.BracketType,
			&round.Depth,
			&round.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		rounds = append(rounds, &round)
	}
	return rounds, rows.Err()
}

func (r *postgresRoundRepository) DeleteByStop(ctx context.Context, exec SQLExecutor, stopID string) error {
	query := `DELETE FROM rounds WHERE stop_id = $1`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, stopID)
	return err
}
