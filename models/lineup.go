package models

import "time"

// LineupSize is the number of lineup slots a team fields per match:
// [Man1, Man2, Woman1, Woman2].
const LineupSize = 4

// Lineup is owned by a (round, team) pair, not by the team: the fielded
// four vary match to match.
type Lineup struct {
	ID        string    `json:"id" db:"id"`
	RoundID   string    `json:"round_id" db:"round_id"`
	TeamID    string    `json:"team_id" db:"team_id"`
	StopID    string    `json:"stop_id" db:"stop_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Entries []LineupEntry `json:"entries,omitempty" db:"-"`
}

type LineupEntry struct {
	ID        string  `json:"id" db:"id"`
	LineupID  string  `json:"lineup_id" db:"lineup_id"`
	SlotIndex int     `json:"slot_index" db:"slot_index"`
	PlayerID  *string `json:"player_id" db:"player_id"`

	Player *Player `json:"player,omitempty" db:"-"`
}

// RosterEntry links a player to the team they are eligible for at a stop.
type RosterEntry struct {
	ID        string    `json:"id" db:"id"`
	StopID    string    `json:"stop_id" db:"stop_id"`
	TeamID    string    `json:"team_id" db:"team_id"`
	PlayerID  string    `json:"player_id" db:"player_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Player *Player `json:"player,omitempty" db:"-"`
}
