package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamTournamentInvalid = errors.New("team tournament conflict or invalid")
	ErrTeamClubInvalid       = errors.New("team club conflict or invalid")
	ErrTeamSeedTaken         = errors.New("seed already assigned in tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error)
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	UpdateSeed(ctx context.Context, exec SQLExecutor, id string, seed *int) error
	UpdateLogoKey(ctx context.Context, id string, logoKey *string) error
	Delete(ctx context.Context, id string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (id, tournament_id, name, club_id, seed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		team.ID,
		team.TournamentID,
		team.Name,
		team.ClubID,
		team.Seed,
	).Scan(&team.CreatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, tournament_id, name, club_id, seed, logo_key, created_at
		FROM teams
		WHERE id = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.TournamentID,
		&team.Name,
		&team.ClubID,
		&team.Seed,
		&team.LogoKey,
		&team.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team %s: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	query := `
		SELECT id, tournament_id, name, club_id, seed, logo_key, created_at
		FROM teams
		WHERE tournament_id = $1
		ORDER BY seed ASC NULLS LAST, name ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if scanErr := rows.Scan(
			&team.ID,
			&team.TournamentID,
			&team.Name,
			&team.ClubID,
			&team.Seed,
			&team.LogoKey,
			&team.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, &team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		UPDATE teams
		SET name = $1, club_id = $2, seed = $3
		WHERE id = $4`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		team.Name,
		team.ClubID,
		team.Seed,
		team.ID,
	)
	if err != nil {
		return r.handleTeamError(err)
	}
	return r.requireTeam(result)
}

func (r *postgresTeamRepository) UpdateSeed(ctx context.Context, exec SQLExecutor, id string, seed *int) error {
	query := `UPDATE teams SET seed = $1 WHERE id = $2`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, seed, id)
	if err != nil {
		return r.handleTeamError(err)
	}
	return r.requireTeam(result)
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, id string, logoKey *string) error {
	query := `UPDATE teams SET logo_key = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, logoKey, id)
	if err != nil {
		return err
	}
	return r.requireTeam(result)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM teams WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return r.requireTeam(result)
}

func (r *postgresTeamRepository) requireTeam(result sql.Result) error {
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if isForeignKeyViolation(err, "teams_tournament_id_fkey") {
		return ErrTeamTournamentInvalid
	}
	if isForeignKeyViolation(err, "teams_club_id_fkey") {
		return ErrTeamClubInvalid
	}
	if isUniqueViolation(err, "teams_tournament_id_seed_key") {
		return ErrTeamSeedTaken
	}
	return err
}
