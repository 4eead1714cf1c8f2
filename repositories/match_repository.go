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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchRoundInvalid  = errors.New("match round conflict or invalid")
	ErrMatchTeamInvalid   = errors.New("match team conflict or invalid")
	ErrMatchWinnerInvalid = errors.New("match winner conflict or invalid")
)

const matchColumns = `
	id, round_id, team_a_id, team_b_id, seed_a, seed_b, is_bye, bracket_position,
	source_match_a_id, source_match_b_id, next_match_id, next_loser_match_id,
	winner_id, forfeit_team, total_points_team_a, total_points_team_b,
	tiebreaker_status, tiebreaker_winner_team_id, created_at`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error)
	ListByRound(ctx context.Context, exec SQLExecutor, roundID string) ([]*models.Match, error)
	ListByStop(ctx context.Context, exec SQLExecutor, stopID string) ([]*models.Match, error)
	UpdateSlots(ctx context.Context, exec SQLExecutor, id string, teamAID, teamBID *string) error
	UpdateLinks(ctx context.Context, exec SQLExecutor, id string, nextMatchID, nextLoserMatchID, sourceAID, sourceBID *string) error
	UpdateOutcome(ctx context.Context, exec SQLExecutor, match *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(id, round_id, team_a_id, team_b_id, seed_a, seed_b, is_bye, bracket_position,
			 source_match_a_id, source_match_b_id, next_match_id, next_loser_match_id,
			 winner_id, forfeit_team, total_points_team_a, total_points_team_b,
			 tiebreaker_status, tiebreaker_winner_team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.ID,
		match.RoundID,
		match.TeamAID,
		match.TeamBID,
		match.SeedA,
		match.SeedB,
		match.IsBye,
		match.BracketPosition,
		match.SourceMatchAID,
		match.SourceMatchBID,
		match.NextMatchID,
		match.NextLoserMatchID,
		match.WinnerID,
		match.ForfeitTeam,
		match.TotalPointsTeamA,
		match.TotalPointsTeamB,
		match.TiebreakerStatus,
		match.TiebreakerWinnerTeamID,
	).Scan(&match.CreatedAt)

	return r.handleMatchError(err)
}

func scanMatch(scanner interface{ Scan(...interface{}) error }, match *models.Match) error {
	return scanner.Scan(
		&match.ID,
		&match.RoundID,
		&match.TeamAID,
		&match.TeamBID,
		&match.SeedA,
		&match.SeedB,
		&match.IsBye,
		&match.BracketPosition,
		&match.SourceMatchAID,
		&match.SourceMatchBID,
		&match.NextMatchID,
		&match.NextLoserMatchID,
		&match.WinnerID,
		&match.ForfeitTeam,
		&match.TotalPointsTeamA,
		&match.TotalPointsTeamB,
		&match.TiebreakerStatus,
		&match.TiebreakerWinnerTeamID,
		&match.CreatedAt,
	)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.RoundID,
		&match.TeamAID,
		&match.TeamBID,
		&match.SeedA,
		&match.SeedB,
		&match.IsBye,
		&match.BracketPosition,
		&match.SourceMatchAID,
		&match.SourceMatchBID,
		&match.NextMatchID,
		&match.NextLoserMatchID,
		&match.WinnerID,
		&match.ForfeitTeam,
		&match.TotalPointsTeamA,
		&match.TotalPointsTeamB,
		&match.TiebreakerStatus,
		&match.TiebreakerWinnerTeamID,
		&match.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID string) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE round_id = $1
		ORDER BY bracket_position ASC`

	return r.queryMatches(ctx, exec, query, roundID)
}

func (r *postgresMatchRepository) ListByStop(ctx context.Context, exec SQLExecutor, stopID string) ([]*models.Match, error) {
	query := `
		SELECT m.id, m.round_id, m.team_a_id, m.team_b_id, m.seed_a, m.seed_b,
			m.is_bye, m.bracket_position, m.source_match_a_id, m.source_match_b_id,
			m.next_match_id, m.next_loser_match_id, m.winner_id, m.forfeit_team,
			m.total_points_team_a, m.total_points_team_b,
			m.tiebreaker_status, m.tiebreaker_winner_team_id, m.created_at
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE r.stop_id = $1
		ORDER BY r.idx ASC, m.bracket_position ASC`

	return r.queryMatches(ctx, exec, query, stopID)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := scanMatch(rows, &match); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, &match)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateSlots(ctx context.Context, exec SQLExecutor, id string, teamAID, teamBID *string) error {
	query := `UPDATE matches SET team_a_id = $1, team_b_id = $2 WHERE id = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, teamAID, teamBID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return r.requireMatch(result)
}

func (r *postgresMatchRepository) UpdateLinks(ctx context.Context, exec SQLExecutor, id string, nextMatchID, nextLoserMatchID, sourceAID, sourceBID *string) error {
	query := `
		UPDATE matches
		SET next_match_id = $1, next_loser_match_id = $2,
		    source_match_a_id = $3, source_match_b_id = $4
		WHERE id = $5`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		nextMatchID, nextLoserMatchID, sourceAID, sourceBID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return r.requireMatch(result)
}

// UpdateOutcome persists every result-bearing column at once. The scoring
// package mutates the match in memory; this writes the whole outcome back.
func (r *postgresMatchRepository) UpdateOutcome(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET team_a_id = $1, team_b_id = $2, is_bye = $3,
		    winner_id = $4, forfeit_team = $5,
		    total_points_team_a = $6, total_points_team_b = $7,
		    tiebreaker_status = $8, tiebreaker_winner_team_id = $9
		WHERE id = $10`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		match.TeamAID,
		match.TeamBID,
		match.IsBye,
		match.WinnerID,
		match.ForfeitTeam,
		match.TotalPointsTeamA,
		match.TotalPointsTeamB,
		match.TiebreakerStatus,
		match.TiebreakerWinnerTeamID,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return r.requireMatch(result)
}

func (r *postgresMatchRepository) requireMatch(result sql.Result) error {
	rowsAffected, checkErr := checkRowsAffected(result)
	if checkErr != nil {
		return checkErr
	}
	if rowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_round_id_fkey":
				return ErrMatchRoundInvalid
			case "matches_team_a_id_fkey", "matches_team_b_id_fkey":
				return ErrMatchTeamInvalid
			case "matches_winner_id_fkey", "matches_tiebreaker_winner_team_id_fkey":
				return ErrMatchWinnerInvalid
			}
		}
	}
	return err
}
