package models

import "time"

type TournamentType string

const (
	TypeDoubleElimination TournamentType = "DOUBLE_ELIMINATION"
	TypeRoundRobin        TournamentType = "ROUND_ROBIN"
)

type Tournament struct {
	ID   string         `json:"id" db:"id"`
	Name string         `json:"name" db:"name"`
	Type TournamentType `json:"type" db:"type"`
	// GamesPerMatch is the number of regular game slots scheduled per
	// match, 4 by default (men's, women's, two mixed).
	GamesPerMatch int       `json:"games_per_match" db:"games_per_match"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Stops []Stop `json:"stops,omitempty" db:"-"`
	Teams []Team `json:"teams,omitempty" db:"-"`
}

const DefaultGamesPerMatch = 4
