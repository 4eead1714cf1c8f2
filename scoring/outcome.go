package scoring

import (
	"github.com/matchplay/tournament-system/models"
)

// DecisionMethod records how a finished match was decided.
type DecisionMethod string

const (
	DecidedByForfeit    DecisionMethod = "FORFEIT"
	DecidedByGames      DecisionMethod = "GAMES"
	DecidedByPoints     DecisionMethod = "POINTS"
	DecidedByTiebreaker DecisionMethod = "TIEBREAKER"
)

// Outcome is the resolver's full answer for one match: the canonical
// status plus everything the caller needs to finalize or display it.
type Outcome struct {
	Status       models.MatchStatus
	WinnerTeamID *string
	LoserTeamID  *string
	DecidedBy    DecisionMethod

	WinsA, WinsB     int
	PointsA, PointsB int
	RegularComplete  int
}

// Majority is the game-win count that decides a match outright: ceil(n/2)
// of the n regular slots.
func Majority(slots int) int {
	return (slots + 1) / 2
}

// Resolve derives the canonical status of a match purely from its games
// and decision fields. It is the single gatekeeper for match status; no
// other layer re-derives these rules.
//
// Priority order: forfeit, explicit winner, game-win majority, then the
// even-split tie branch, then plain progress tracking.
func Resolve(m *models.Match, slots int) Outcome {
	if slots <= 0 {
		slots = models.DefaultGamesPerMatch
	}

	o := Outcome{Status: models.MatchNotStarted}

	var tiebreaker *models.Game
	anyStarted := false
	for i := range m.Games {
		g := &m.Games[i]
		if g.Slot.IsTiebreaker() {
			if tiebreaker == nil {
				tiebreaker = g
			}
			continue
		}
		switch DeriveGameStatus(g) {
		case models.GameCompleted:
			o.RegularComplete++
			anyStarted = true
			if g.TeamAScore != nil {
				o.PointsA += *g.TeamAScore
			}
			if g.TeamBScore != nil {
				o.PointsB += *g.TeamBScore
			}
			switch gameWinnerSide(g) {
			case 1:
				o.WinsA++
			case 2:
				o.WinsB++
			}
		case models.GameInProgress:
			anyStarted = true
		}
	}

	if m.ForfeitTeam != nil {
		o.Status = models.MatchCompleted
		o.DecidedBy = DecidedByForfeit
		if *m.ForfeitTeam == models.SideA {
			o.WinnerTeamID, o.LoserTeamID = m.TeamBID, m.TeamAID
		} else {
			o.WinnerTeamID, o.LoserTeamID = m.TeamAID, m.TeamBID
		}
		return o
	}

	if m.WinnerID != nil {
		o.Status = models.MatchCompleted
		o.WinnerTeamID = m.WinnerID
		o.LoserTeamID = m.LoserID()
		o.DecidedBy = decisionFromStored(m)
		return o
	}

	// Early finalize: a strict lead at or above the majority decides the
	// match before the remaining games end.
	maj := Majority(slots)
	if o.WinsA >= maj && o.WinsA > o.WinsB {
		o.Status = models.MatchCompleted
		o.DecidedBy = DecidedByGames
		o.WinnerTeamID, o.LoserTeamID = m.TeamAID, m.TeamBID
		return o
	}
	if o.WinsB >= maj && o.WinsB > o.WinsA {
		o.Status = models.MatchCompleted
		o.DecidedBy = DecidedByGames
		o.WinnerTeamID, o.LoserTeamID = m.TeamBID, m.TeamAID
		return o
	}

	if o.RegularComplete == slots && o.WinsA == o.WinsB {
		return resolveTie(m, tiebreaker, o)
	}

	if anyStarted || (tiebreaker != nil && DeriveGameStatus(tiebreaker) != models.GameNotStarted) {
		o.Status = models.MatchInProgress
	}
	return o
}

// resolveTie classifies the even-split case. The engine never auto-picks
// when totals differ; a manager has to act.
func resolveTie(m *models.Match, tiebreaker *models.Game, o Outcome) Outcome {
	stored := models.TiebreakerNone
	if m.TiebreakerStatus != nil {
		stored = *m.TiebreakerStatus
	}

	if tiebreaker != nil && DeriveGameStatus(tiebreaker) == models.GameCompleted {
		o.Status = models.MatchDecidedTiebreak
		o.DecidedBy = DecidedByTiebreaker
		switch gameWinnerSide(tiebreaker) {
		case 1:
			o.WinnerTeamID, o.LoserTeamID = m.TeamAID, m.TeamBID
		case 2:
			o.WinnerTeamID, o.LoserTeamID = m.TeamBID, m.TeamAID
		}
		return o
	}

	if stored == models.TiebreakerPoints {
		o.Status = models.MatchDecidedPoints
		o.DecidedBy = DecidedByPoints
		switch {
		case m.TiebreakerWinnerTeamID != nil:
			o.WinnerTeamID = m.TiebreakerWinnerTeamID
		case o.PointsA > o.PointsB:
			o.WinnerTeamID = m.TeamAID
		case o.PointsB > o.PointsA:
			o.WinnerTeamID = m.TeamBID
		}
		if o.WinnerTeamID != nil {
			if m.TeamAID != nil && *o.WinnerTeamID == *m.TeamAID {
				o.LoserTeamID = m.TeamBID
			} else {
				o.LoserTeamID = m.TeamAID
			}
		}
		return o
	}

	o.Status = Classify(o.WinsA, o.WinsB, o.PointsA, o.PointsB, tiebreaker)
	return o
}

func decisionFromStored(m *models.Match) DecisionMethod {
	if m.TiebreakerStatus == nil {
		return DecidedByGames
	}
	switch *m.TiebreakerStatus {
	case models.TiebreakerPoints:
		return DecidedByPoints
	case models.TiebreakerGame:
		return DecidedByTiebreaker
	}
	return DecidedByGames
}

// Decided reports whether the outcome carries a determined winner.
func (o Outcome) Decided() bool {
	if o.WinnerTeamID == nil {
		return false
	}
	switch o.Status {
	case models.MatchCompleted, models.MatchDecidedPoints, models.MatchDecidedTiebreak:
		return true
	}
	return false
}

// CompleteMatch finalizes a match whose outcome is determined, setting
// WinnerID. It is the only legal way a winner appears on a non-bye match.
func CompleteMatch(m *models.Match, slots int) error {
	if m.WinnerID != nil {
		return nil
	}
	o := Resolve(m, slots)
	if !o.Decided() {
		return ErrMatchNotReady
	}
	m.WinnerID = o.WinnerTeamID
	switch o.DecidedBy {
	case DecidedByPoints:
		st := models.TiebreakerPoints
		m.TiebreakerStatus = &st
		m.TiebreakerWinnerTeamID = o.WinnerTeamID
	case DecidedByTiebreaker:
		st := models.TiebreakerGame
		m.TiebreakerStatus = &st
		m.TiebreakerWinnerTeamID = o.WinnerTeamID
	}
	return nil
}

// Evaluate refreshes the match's stored derived columns (running totals
// and tiebreaker state) from its games after any mutation. Decisions a
// manager already recorded are kept.
func Evaluate(m *models.Match, slots int) {
	o := Resolve(m, slots)

	if o.RegularComplete > 0 {
		a, b := o.PointsA, o.PointsB
		m.TotalPointsTeamA, m.TotalPointsTeamB = &a, &b
	} else {
		m.TotalPointsTeamA, m.TotalPointsTeamB = nil, nil
	}

	switch o.Status {
	case models.MatchTiedRequiresTiebreaker:
		st := models.TiebreakerRequired
		m.TiebreakerStatus = &st
		m.TiebreakerWinnerTeamID = nil
	case models.MatchTiedPending:
		st := models.TiebreakerPending
		m.TiebreakerStatus = &st
		m.TiebreakerWinnerTeamID = nil
	case models.MatchNeedsDecision:
		st := models.TiebreakerNeedsDec
		m.TiebreakerStatus = &st
		m.TiebreakerWinnerTeamID = nil
	case models.MatchDecidedTiebreak:
		st := models.TiebreakerGame
		m.TiebreakerStatus = &st
		m.TiebreakerWinnerTeamID = o.WinnerTeamID
	case models.MatchDecidedPoints:
		st := models.TiebreakerPoints
		m.TiebreakerStatus = &st
		m.TiebreakerWinnerTeamID = o.WinnerTeamID
	default:
		if m.TiebreakerStatus != nil && (*m.TiebreakerStatus == models.TiebreakerPoints || *m.TiebreakerStatus == models.TiebreakerGame) {
			// A recorded decision survives unrelated re-evaluation.
			return
		}
		st := models.TiebreakerNone
		m.TiebreakerStatus = &st
		m.TiebreakerWinnerTeamID = nil
	}
}
