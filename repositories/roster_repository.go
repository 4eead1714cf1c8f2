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
	ErrRosterEntryNotFound  = errors.New("roster entry not found")
	ErrRosterPlayerInvalid  = errors.New("roster player conflict or invalid")
	ErrRosterTeamInvalid    = errors.New("roster team conflict or invalid")
	ErrRosterStopInvalid    = errors.New("roster stop conflict or invalid")
	ErrRosterEntryDuplicate = errors.New("player already rostered for stop")
)

// RosterRepository tracks which players a team may field at a given stop.
// Lineups are validated against this set.
type RosterRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, entries []*models.RosterEntry) error
	ListByStopAndTeam(ctx context.Context, stopID, teamID string) ([]*models.RosterEntry, error)
	DeleteByStopAndTeam(ctx context.Context, exec SQLExecutor, stopID, teamID string) error
	Delete(ctx context.Context, id string) error
}

type postgresRosterRepository struct {
	db *sql.DB
}

func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &postgresRosterRepository{db: db}
}

func (r *postgresRosterRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRosterRepository) CreateBatch(ctx context.Context, exec SQLExecutor, entries []*models.RosterEntry) error {
	query := `
		INSERT INTO stop_rosters (id, stop_id, team_id, player_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	executor := r.getExecutor(exec)
	for _, entry := range entries {
		err := executor.QueryRowContext(ctx, query,
			entry.ID,
			entry.StopID,
			entry.TeamID,
			entry.PlayerID,
		).Scan(&entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create roster entry for player %s: %w", entry.PlayerID, r.handleRosterError(err))
		}
	}
	return nil
}

func (r *postgresRosterRepository) ListByStopAndTeam(ctx context.Context, stopID, teamID string) ([]*models.RosterEntry, error) {
	query := `
		SELECT sr.id, sr.stop_id, sr.team_id, sr.player_id, sr.created_at,
		       p.id, p.name, p.gender, p.rating, p.club_id, p.created_at
		FROM stop_rosters sr
		JOIN players p ON p.id = sr.player_id
		WHERE sr.stop_id = $1 AND sr.team_id = $2
		ORDER BY p.name ASC`

	rows, err := r.db.QueryContext(ctx, query, stopID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.RosterEntry, 0)
	for rows.Next() {
		var entry models.RosterEntry
		var player models.Player
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.StopID,
			&entry.TeamID,
			&entry.PlayerID,
			&entry.CreatedAt,
			&player.ID,
			&player.Name,
			&player.Gender,
			&player.Rating,
			&player.ClubID,
			&player.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entry.Player = &player
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (r *postgresRosterRepository) DeleteByStopAndTeam(ctx context.Context, exec SQLExecutor, stopID, teamID string) error {
	query := `DELETE FROM stop_rosters WHERE stop_id = $1 AND team_id = $2`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, stopID, teamID)
	return err
}

func (r *postgresRosterRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM stop_rosters WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrRosterEntryNotFound
	}
	return nil
}

func (r *postgresRosterRepository) handleRosterError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "stop_rosters_player_id_fkey":
				return ErrRosterPlayerInvalid
			case "stop_rosters_team_id_fkey":
				return ErrRosterTeamInvalid
			case "stop_rosters_stop_id_fkey":
				return ErrRosterStopInvalid
			}
		case "23505": // unique_violation
			if pqErr.Constraint == "stop_rosters_stop_id_player_id_key" {
				return ErrRosterEntryDuplicate
			}
		}
	}
	return err
}
