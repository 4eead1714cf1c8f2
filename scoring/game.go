package scoring

import (
	"time"

	"github.com/matchplay/tournament-system/models"
)

// MaxGameScore caps a single game score. Rally scoring to 11 or 15 never
// gets close, 99 only guards against fat-fingered input.
const MaxGameScore = 99

// DeriveGameStatus is a pure function of {IsComplete, StartedAt, scores}.
// A game with any score recorded counts as in progress even if StartedAt
// was never set, so score submissions from courts that skip the explicit
// start still show up live.
func DeriveGameStatus(g *models.Game) models.GameStatus {
	if g.IsComplete {
		return models.GameCompleted
	}
	if g.StartedAt != nil || g.TeamAScore != nil || g.TeamBScore != nil {
		return models.GameInProgress
	}
	return models.GameNotStarted
}

// StartGame marks the game in progress. Idempotent when already started;
// rejects games that have ended (those must be reopened first).
func StartGame(g *models.Game, now time.Time) error {
	switch DeriveGameStatus(g) {
	case models.GameCompleted:
		return ErrGameAlreadyEnded
	case models.GameInProgress:
		if g.StartedAt == nil {
			g.StartedAt = &now
		}
		return nil
	}
	g.StartedAt = &now
	g.IsComplete = false
	return nil
}

// UpdateScore records scores while the game is open. Either side may be
// nil (not yet reported). Does not change the game's status.
func UpdateScore(g *models.Game, teamA, teamB *int) error {
	if DeriveGameStatus(g) == models.GameCompleted {
		return ErrGameAlreadyEnded
	}
	for _, s := range []*int{teamA, teamB} {
		if s != nil && (*s < 0 || *s > MaxGameScore) {
			return ErrScoreOutOfRange
		}
	}
	g.TeamAScore = teamA
	g.TeamBScore = teamB
	return nil
}

// EndGame closes the game. Requires both scores and a decisive result:
// equal scores fail with ErrTiedScore on every slot, tiebreaker included.
func EndGame(g *models.Game, now time.Time) error {
	if DeriveGameStatus(g) != models.GameInProgress {
		if g.IsComplete {
			return ErrGameAlreadyEnded
		}
		return ErrGameNotInProgress
	}
	if g.TeamAScore == nil || g.TeamBScore == nil {
		return ErrScoresMissing
	}
	if *g.TeamAScore == *g.TeamBScore {
		return ErrTiedScore
	}
	g.IsComplete = true
	g.EndedAt = &now
	return nil
}

// ReopenGame reverts a completed game to in progress so a mistaken entry
// can be corrected. Scores are kept.
func ReopenGame(g *models.Game) error {
	if DeriveGameStatus(g) != models.GameCompleted {
		return ErrGameNotComplete
	}
	g.IsComplete = false
	g.EndedAt = nil
	return nil
}

// gameWinnerSide returns 1 for team A, 2 for team B, 0 when undecided.
func gameWinnerSide(g *models.Game) int {
	if !g.IsComplete || g.TeamAScore == nil || g.TeamBScore == nil {
		return 0
	}
	switch {
	case *g.TeamAScore > *g.TeamBScore:
		return 1
	case *g.TeamBScore > *g.TeamAScore:
		return 2
	}
	return 0
}
