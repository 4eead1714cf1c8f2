package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

var (
	ErrStopNotFound          = errors.New("stop not found")
	ErrStopTournamentInvalid = errors.New("stop tournament conflict or invalid")
)

type StopRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stop *models.Stop) error
	GetByID(ctx context.Context, id string) (*models.Stop, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Stop, error)
	Update(ctx context.Context, exec SQLExecutor, stop *models.Stop) error
	Delete(ctx context.Context, id string) error
}

type postgresStopRepository struct {
	db *sql.DB
}

func NewPostgresStopRepository(db *sql.DB) StopRepository {
	return &postgresStopRepository{db: db}
}

func (r *postgresStopRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStopRepository) Create(ctx context.Context, exec SQLExecutor, stop *models.Stop) error {
	query := `
		INSERT INTO stops (id, tournament_id, name, start_at, lineup_deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		stop.ID,
		stop.TournamentID,
		stop.Name,
		stop.StartAt,
		stop.LineupDeadline,
	).Scan(&stop.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err, "stops_tournament_id_fkey") {
			return ErrStopTournamentInvalid
		}
		return fmt.Errorf("failed to create stop: %w", err)
	}
	return nil
}

func (r *postgresStopRepository) GetByID(ctx context.Context, id string) (*models.Stop, error) {
	query := `
		SELECT id, tournament_id, name, start_at, lineup_deadline, created_at
		FROM stops
		WHERE id = $1`

	stop := &models.Stop{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&stop.ID,
		&stop.TournamentID,
		&stop.Name,
		&stop.StartAt,
		&stop.LineupDeadline,
		&stop.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStopNotFound
		}
		return nil, fmt.Errorf("failed to scan stop %s: %w", id, err)
	}
	return stop, nil
}

func (r *postgresStopRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Stop, error) {
	query := `
		SELECT id, tournament_id, name, start_at, lineup_deadline, created_at
		FROM stops
		WHERE tournament_id = $1
		ORDER BY start_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := make([]*models.Stop, 0)
	for rows.Next() {
		var s models.Stop
		if scanErr := rows.Scan(&s.ID, &s.TournamentID, &s.Name, &s.StartAt, &s.LineupDeadline, &s.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		stops = append(stops, &s)
	}
	return stops, rows.Err()
}

func (r *postgresStopRepository) Update(ctx context.Context, exec SQLExecutor, stop *models.Stop) error {
	query := `
		UPDATE stops
		SET name = $1, start_at = $2, lineup_deadline = $3
		WHERE id = $4`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		stop.Name,
		stop.StartAt,
		stop.LineupDeadline,
		stop.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrStopNotFound
	}
	return nil
}

func (r *postgresStopRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM stops WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrStopNotFound
	}
	return nil
}
