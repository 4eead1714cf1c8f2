package models

import "time"

type BracketType string

const (
	BracketWinner BracketType = "WINNER"
	BracketLoser  BracketType = "LOSER"
	BracketFinals BracketType = "FINALS"
)

type Stop struct {
	ID             string     `json:"id" db:"id"`
	TournamentID   string     `json:"tournament_id" db:"tournament_id"`
	Name           string     `json:"name" db:"name"`
	StartAt        time.Time  `json:"start_at" db:"start_at"`
	LineupDeadline *time.Time `json:"lineup_deadline,omitempty" db:"lineup_deadline"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`

	Rounds []Round `json:"rounds,omitempty" db:"-"`
}

type Round struct {
	ID          string       `json:"id" db:"id"`
	StopID      string       `json:"stop_id" db:"stop_id"`
	Idx         int          `json:"idx" db:"idx"`
	BracketType *BracketType `json:"bracket_type,omitempty" db:"bracket_type"`
	// Depth is the distance from the final: 0 = finals, 1 = semis, and so
	// on. Nil for non-bracket rounds.
	Depth     *int      `json:"depth,omitempty" db:"depth"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}
