package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

var (
	ErrLineupNotFound      = errors.New("lineup not found")
	ErrLineupRoundInvalid  = errors.New("lineup round conflict or invalid")
	ErrLineupTeamInvalid   = errors.New("lineup team conflict or invalid")
	ErrLineupPlayerInvalid = errors.New("lineup player conflict or invalid")
)

type LineupRepository interface {
	// Upsert replaces the lineup for a (round, team) pair: the lineup row
	// and all four slot entries are rewritten in one call.
	Upsert(ctx context.Context, exec SQLExecutor, lineup *models.Lineup) error
	GetByRoundAndTeam(ctx context.Context, roundID, teamID string) (*models.Lineup, error)
	ListByRound(ctx context.Context, exec SQLExecutor, roundID string) ([]*models.Lineup, error)
	DeleteByRoundAndTeam(ctx context.Context, exec SQLExecutor, roundID, teamID string) error
}

type postgresLineupRepository struct {
	db *sql.DB
}

func NewPostgresLineupRepository(db *sql.DB) LineupRepository {
	return &postgresLineupRepository{db: db}
}

func (r *postgresLineupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresLineupRepository) Upsert(ctx context.Context, exec SQLExecutor, lineup *models.Lineup) error {
	executor := r.getExecutor(exec)

	lineupQuery := `
		INSERT INTO lineups (id, round_id, team_id, stop_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (round_id, team_id)
		DO UPDATE SET stop_id = EXCLUDED.stop_id
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, lineupQuery,
		lineup.ID,
		lineup.RoundID,
		lineup.TeamID,
		lineup.StopID,
	).Scan(&lineup.ID, &lineup.CreatedAt)
	if err != nil {
		return r.handleLineupError(err)
	}

	deleteQuery := `DELETE FROM lineup_entries WHERE lineup_id = $1`
	if _, err := executor.ExecContext(ctx, deleteQuery, lineup.ID); err != nil {
		return err
	}

	entryQuery := `
		INSERT INTO lineup_entries (id, lineup_id, slot_index, player_id)
		VALUES ($1, $2, $3, $4)`
	for i := range lineup.Entries {
		entry := &lineup.Entries[i]
		entry.LineupID = lineup.ID
		if _, err := executor.ExecContext(ctx, entryQuery,
			entry.ID,
			entry.LineupID,
			entry.SlotIndex,
			entry.PlayerID,
		); err != nil {
			return fmt.Errorf("failed to write lineup entry slot %d: %w", entry.SlotIndex, r.handleLineupError(err))
		}
	}
	return nil
}

func (r *postgresLineupRepository) GetByRoundAndTeam(ctx context.Context, roundID, teamID string) (*models.Lineup, error) {
	query := `
		SELECT id, round_id, team_id, stop_id, created_at
		FROM lineups
		WHERE round_id = $1 AND team_id = $2`

	lineup := &models.Lineup{}
	err := r.db.QueryRowContext(ctx, query, roundID, teamID).Scan(
		&lineup.ID,
		&lineup.RoundID,
		&lineup.TeamID,
		&lineup.StopID,
		&lineup.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLineupNotFound
		}
		return nil, fmt.Errorf("failed to scan lineup for round %s team %s: %w", roundID, teamID, err)
	}

	entries, err := r.loadEntries(ctx, nil, lineup.ID)
	if err != nil {
		return nil, err
	}
	lineup.Entries = entries
	return lineup, nil
}

func (r *postgresLineupRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID string) ([]*models.Lineup, error) {
	query := `
		SELECT id, round_id, team_id, stop_id, created_at
		FROM lineups
		WHERE round_id = $1`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lineups := make([]*models.Lineup, 0)
	for rows.Next() {
		var lineup models.Lineup
		if scanErr := rows.Scan(
			&lineup.ID,
			&lineup.RoundID,
			&lineup.TeamID,
			&lineup.StopID,
			&lineup.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		lineups = append(lineups, &lineup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, lineup := range lineups {
		entries, entriesErr := r.loadEntries(ctx, exec, lineup.ID)
		if entriesErr != nil {
			return nil, entriesErr
		}
		lineup.Entries = entries
	}
	return lineups, nil
}

func (r *postgresLineupRepository) loadEntries(ctx context.Context, exec SQLExecutor, lineupID string) ([]models.LineupEntry, error) {
	query := `
		SELECT le.id, le.lineup_id, le.slot_index, le.player_id,
		       p.id, p.name, p.gender, p.rating, p.club_id, p.created_at
		FROM lineup_entries le
		LEFT JOIN players p ON p.id = le.player_id
		WHERE le.lineup_id = $1
		ORDER BY le.slot_index ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, lineupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LineupEntry, 0, models.LineupSize)
	for rows.Next() {
		var entry models.LineupEntry
		var playerID, playerName *string
		var playerGender *models.Gender
		var playerRating *float64
		var playerClubID *string
		var playerCreatedAt sql.NullTime
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.LineupID,
			&entry.SlotIndex,
			&entry.PlayerID,
			&playerID,
			&playerName,
			&playerGender,
			&playerRating,
			&playerClubID,
			&playerCreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		if playerID != nil {
			entry.Player = &models.Player{
				ID:        *playerID,
				Name:      *playerName,
				Gender:    *playerGender,
				Rating:    playerRating,
				ClubID:    playerClubID,
				CreatedAt: playerCreatedAt.Time,
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *postgresLineupRepository) DeleteByRoundAndTeam(ctx context.Context, exec SQLExecutor, roundID, teamID string) error {
	query := `DELETE FROM lineups WHERE round_id = $1 AND team_id = $2`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, roundID, teamID)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrLineupNotFound
	}
	return nil
}

func (r *postgresLineupRepository) handleLineupError(err error) error {
	if err == nil {
		return nil
	}
	if isForeignKeyViolation(err, "lineups_round_id_fkey") {
		return ErrLineupRoundInvalid
	}
	if isForeignKeyViolation(err, "lineups_team_id_fkey") {
		return ErrLineupTeamInvalid
	}
	if isForeignKeyViolation(err, "lineup_entries_player_id_fkey") {
		return ErrLineupPlayerInvalid
	}
	return err
}
