package brackets

import (
	"context"

	"github.com/matchplay/tournament-system/models"
)

// SeededTeam pairs a team with its bracket-entry rank. Seeds are unique
// within a bracket and assigned before building.
type SeededTeam struct {
	TeamID string
	Seed   int
}

// SeedingAssignment is the explicit ordered seeding handed to a builder.
// It is plain data: whatever reordering UI produced it is not this
// package's concern.
type SeedingAssignment []SeededTeam

type BuildOptions struct {
	GamesPerMatch int
	GameSlots     []models.GameSlot
	// TrueFinals adds the bracket-reset rematch: if the loser-bracket
	// champion takes the first finals, both finalists play once more.
	TrueFinals bool
}

type GenerateBracketParams struct {
	StopID  string
	Seeding SeedingAssignment
	Options BuildOptions
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}
