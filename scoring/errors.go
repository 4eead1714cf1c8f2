package scoring

import (
	"errors"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

var (
	// ErrTiedScore: a game may never end with equal scores. Pickleball
	// games always produce a winner, so an equal pair is a data-entry
	// mistake, not a result.
	ErrTiedScore = errors.New("game cannot end with a tied score")

	ErrScoreOutOfRange   = errors.New("score must be between 0 and 99")
	ErrGameAlreadyEnded  = errors.New("game is already complete")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrGameNotComplete   = errors.New("game is not complete")
	ErrScoresMissing     = errors.New("both scores are required to end a game")
	ErrMatchNotReady     = errors.New("match has no determined winner yet")
	ErrMatchTerminal     = errors.New("match result is already final")
	ErrTiebreakerExists  = errors.New("match already has a tiebreaker game")
	ErrOpponentMissing   = errors.New("match does not have both teams assigned")
	ErrInvalidTeamSide   = errors.New("team side must be A or B")
)

// InvalidDecisionStateError reports a manager command invoked outside its
// legal match states, carrying the status the match was actually in.
type InvalidDecisionStateError struct {
	Action string
	Status models.MatchStatus
}

func (e *InvalidDecisionStateError) Error() string {
	return fmt.Sprintf("%s is not allowed while match is %s", e.Action, e.Status)
}

// ErrInvalidDecisionState is the sentinel matched by errors.Is for any
// InvalidDecisionStateError.
var ErrInvalidDecisionState = errors.New("invalid state for decision")

func (e *InvalidDecisionStateError) Is(target error) bool {
	return target == ErrInvalidDecisionState
}
