package scoring

import (
	"time"

	"github.com/matchplay/tournament-system/models"
)

// Classify is the tie branch of the resolver in isolation: given the game
// split and totals of a fully played match, report how the tie stands.
// Exposed for callers that hold aggregates instead of full matches.
func Classify(winsA, winsB, pointsA, pointsB int, tiebreaker *models.Game) models.MatchStatus {
	if winsA != winsB {
		return models.MatchCompleted
	}
	if tiebreaker != nil {
		if DeriveGameStatus(tiebreaker) == models.GameCompleted {
			return models.MatchDecidedTiebreak
		}
		return models.MatchTiedPending
	}
	if pointsA == pointsB {
		return models.MatchTiedRequiresTiebreaker
	}
	return models.MatchNeedsDecision
}

// DecideByPoints resolves a points-differing tie in favor of the team with
// the higher game-point total. Legal only in needs_decision, or in
// tied_pending when the totals differ (the scheduled tiebreaker is then
// abandoned). The engine never takes this decision on its own.
func DecideByPoints(m *models.Match, slots int) error {
	o := Resolve(m, slots)
	switch o.Status {
	case models.MatchNeedsDecision:
	case models.MatchTiedPending:
		if o.PointsA == o.PointsB {
			return &InvalidDecisionStateError{Action: "decide by points", Status: o.Status}
		}
	default:
		return &InvalidDecisionStateError{Action: "decide by points", Status: o.Status}
	}

	st := models.TiebreakerPoints
	m.TiebreakerStatus = &st
	if o.PointsA > o.PointsB {
		m.TiebreakerWinnerTeamID = m.TeamAID
	} else {
		m.TiebreakerWinnerTeamID = m.TeamBID
	}
	return nil
}

// InvalidatePointsDecision withdraws a recorded points decision. A points
// win is only as good as the totals it was read from, so reopening a
// regular game of a points-decided match voids it; the tie re-classifies
// from the corrected scores and a manager has to decide again.
func InvalidatePointsDecision(m *models.Match) {
	if m.TiebreakerStatus == nil || *m.TiebreakerStatus != models.TiebreakerPoints {
		return
	}
	m.TiebreakerStatus = nil
	m.TiebreakerWinnerTeamID = nil
}

// ScheduleTiebreaker appends the TIEBREAKER game that will break the tie.
// Legal in tied_requires_tiebreaker and needs_decision; a match carries at
// most one tiebreaker game.
func ScheduleTiebreaker(m *models.Match, slots int) (*models.Game, error) {
	for i := range m.Games {
		if m.Games[i].Slot.IsTiebreaker() {
			return nil, ErrTiebreakerExists
		}
	}

	o := Resolve(m, slots)
	switch o.Status {
	case models.MatchTiedRequiresTiebreaker, models.MatchNeedsDecision:
	default:
		return nil, &InvalidDecisionStateError{Action: "schedule tiebreaker", Status: o.Status}
	}

	m.Games = append(m.Games, models.Game{
		MatchID:   m.ID,
		Slot:      models.SlotTiebreaker,
		CreatedAt: time.Now(),
	})
	st := models.TiebreakerPending
	m.TiebreakerStatus = &st
	m.TiebreakerWinnerTeamID = nil
	return &m.Games[len(m.Games)-1], nil
}

// Forfeit is the escape hatch: legal any time before the match is
// terminal, it hands the win to the opposing team regardless of game
// state.
func Forfeit(m *models.Match, side models.TeamSide) error {
	if side != models.SideA && side != models.SideB {
		return ErrInvalidTeamSide
	}
	if m.Terminal() {
		return ErrMatchTerminal
	}
	if m.TeamAID == nil || m.TeamBID == nil {
		return ErrOpponentMissing
	}

	m.ForfeitTeam = &side
	if side == models.SideA {
		m.WinnerID = m.TeamBID
	} else {
		m.WinnerID = m.TeamAID
	}
	// Forfeits are recorded as a points decision so downstream reporting
	// has a winner without inventing game scores.
	st := models.TiebreakerPoints
	m.TiebreakerStatus = &st
	m.TiebreakerWinnerTeamID = m.WinnerID
	return nil
}
