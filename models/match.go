package models

import "time"

// MatchStatus is the canonical status of a match, derived by the scoring
// package from the match's games and decision fields. It is never stored;
// the stored source of truth is the games plus the tiebreaker/forfeit
// columns.
type MatchStatus string

const (
	MatchNotStarted MatchStatus = "not_started"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	// MatchTiedRequiresTiebreaker: regular games split evenly and total
	// points are equal, only a tiebreaker game can resolve it.
	MatchTiedRequiresTiebreaker MatchStatus = "tied_requires_tiebreaker"
	// MatchTiedPending: a tiebreaker game is scheduled but not finished.
	MatchTiedPending MatchStatus = "tied_pending"
	// MatchNeedsDecision: even split but totals differ, a manager has to
	// pick points or a tiebreaker explicitly.
	MatchNeedsDecision   MatchStatus = "needs_decision"
	MatchDecidedPoints   MatchStatus = "decided_points"
	MatchDecidedTiebreak MatchStatus = "decided_tiebreaker"
)

type TiebreakerStatus string

const (
	TiebreakerNone     TiebreakerStatus = "NONE"
	TiebreakerNeedsDec TiebreakerStatus = "NEEDS_DECISION"
	TiebreakerRequired TiebreakerStatus = "REQUIRES_TIEBREAKER"
	TiebreakerPending  TiebreakerStatus = "PENDING_TIEBREAKER"
	TiebreakerPoints   TiebreakerStatus = "DECIDED_POINTS"
	TiebreakerGame     TiebreakerStatus = "DECIDED_TIEBREAKER"
)

type TeamSide string

const (
	SideA TeamSide = "A"
	SideB TeamSide = "B"
)

type Match struct {
	ID      string  `json:"id" db:"id"`
	RoundID string  `json:"round_id" db:"round_id"`
	TeamAID *string `json:"team_a_id" db:"team_a_id"`
	TeamBID *string `json:"team_b_id" db:"team_b_id"`
	SeedA   *int    `json:"seed_a,omitempty" db:"seed_a"`
	SeedB   *int    `json:"seed_b,omitempty" db:"seed_b"`

	IsBye           bool `json:"is_bye" db:"is_bye"`
	BracketPosition int  `json:"bracket_position" db:"bracket_position"`

	// Feed-in/feed-out pointers for bracket matches. A nil team slot with a
	// non-nil source pointer means "winner of that match, TBD".
	SourceMatchAID   *string `json:"source_match_a_id,omitempty" db:"source_match_a_id"`
	SourceMatchBID   *string `json:"source_match_b_id,omitempty" db:"source_match_b_id"`
	NextMatchID      *string `json:"next_match_id,omitempty" db:"next_match_id"`
	NextLoserMatchID *string `json:"next_loser_match_id,omitempty" db:"next_loser_match_id"`

	WinnerID    *string   `json:"winner_id,omitempty" db:"winner_id"`
	ForfeitTeam *TeamSide `json:"forfeit_team,omitempty" db:"forfeit_team"`

	TotalPointsTeamA       *int              `json:"total_points_team_a,omitempty" db:"total_points_team_a"`
	TotalPointsTeamB       *int              `json:"total_points_team_b,omitempty" db:"total_points_team_b"`
	TiebreakerStatus       *TiebreakerStatus `json:"tiebreaker_status,omitempty" db:"tiebreaker_status"`
	TiebreakerWinnerTeamID *string           `json:"tiebreaker_winner_team_id,omitempty" db:"tiebreaker_winner_team_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	TeamA *Team  `json:"team_a,omitempty" db:"-"`
	TeamB *Team  `json:"team_b,omitempty" db:"-"`
	Games []Game `json:"games,omitempty" db:"-"`
}

// Terminal reports whether the match result is locked in: a forfeit or an
// explicit winner makes it immutable except for reopening.
func (m *Match) Terminal() bool {
	return m.ForfeitTeam != nil || m.WinnerID != nil
}

// LoserID returns the losing team once a winner is known, nil otherwise
// (including byes, which have no loser).
func (m *Match) LoserID() *string {
	if m.WinnerID == nil || m.IsBye {
		return nil
	}
	if m.TeamAID != nil && *m.TeamAID != *m.WinnerID {
		return m.TeamAID
	}
	if m.TeamBID != nil && *m.TeamBID != *m.WinnerID {
		return m.TeamBID
	}
	return nil
}
