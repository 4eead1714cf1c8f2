package models

import "time"

type GameSlot string

const (
	SlotMensDoubles   GameSlot = "MENS_DOUBLES"
	SlotWomensDoubles GameSlot = "WOMENS_DOUBLES"
	SlotMixed1        GameSlot = "MIXED_1"
	SlotMixed2        GameSlot = "MIXED_2"
	SlotTiebreaker    GameSlot = "TIEBREAKER"
)

// StandardSlots are the regular game slots of a match, in play order.
// The TIEBREAKER slot is scheduled separately and never counts toward
// the game-win majority.
var StandardSlots = []GameSlot{
	SlotMensDoubles,
	SlotWomensDoubles,
	SlotMixed1,
	SlotMixed2,
}

func (s GameSlot) IsTiebreaker() bool {
	return s == SlotTiebreaker
}

type GameStatus string

const (
	GameNotStarted GameStatus = "not_started"
	GameInProgress GameStatus = "in_progress"
	GameCompleted  GameStatus = "completed"
)

type Game struct {
	ID          string     `json:"id" db:"id"`
	MatchID     string     `json:"match_id" db:"match_id"`
	Slot        GameSlot   `json:"slot" db:"slot"`
	TeamAScore  *int       `json:"team_a_score" db:"team_a_score"`
	TeamBScore  *int       `json:"team_b_score" db:"team_b_score"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	IsComplete  bool       `json:"is_complete" db:"is_complete"`
	CourtNumber *string    `json:"court_number,omitempty" db:"court_number"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	// Lineup snapshots are copied from the round lineups when scoring
	// begins, so later lineup edits do not rewrite played games.
	TeamALineup []Player `json:"team_a_lineup,omitempty" db:"-"`
	TeamBLineup []Player `json:"team_b_lineup,omitempty" db:"-"`
}
