package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchplay/tournament-system/models"
)

func strPtr(s string) *string { return &s }

func completedGame(slot models.GameSlot, a, b int) models.Game {
	return models.Game{Slot: slot, TeamAScore: intPtr(a), TeamBScore: intPtr(b), IsComplete: true}
}

func testMatch(games ...models.Game) *models.Match {
	return &models.Match{
		ID:      "match-1",
		TeamAID: strPtr("alpha"),
		TeamBID: strPtr("beta"),
		Games:   games,
	}
}

// evenSplit is a fully played 2-2 match. Equal totals (34-34) unless the
// caller adjusts a score.
func evenSplit() *models.Match {
	return testMatch(
		completedGame(models.SlotMensDoubles, 11, 5),
		completedGame(models.SlotWomensDoubles, 5, 11),
		completedGame(models.SlotMixed1, 11, 7),
		completedGame(models.SlotMixed2, 7, 11),
	)
}

func TestMajority(t *testing.T) {
	assert.Equal(t, 2, Majority(4))
	assert.Equal(t, 2, Majority(3))
	assert.Equal(t, 3, Majority(5))
}

func TestResolve(t *testing.T) {
	t.Run("fresh match is not started", func(t *testing.T) {
		m := testMatch(
			models.Game{Slot: models.SlotMensDoubles},
			models.Game{Slot: models.SlotWomensDoubles},
		)
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchNotStarted, o.Status)
		assert.Nil(t, o.WinnerTeamID)
	})

	t.Run("any started game makes the match in progress", func(t *testing.T) {
		m := testMatch(models.Game{Slot: models.SlotMensDoubles, TeamAScore: intPtr(4)})
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchInProgress, o.Status)
	})

	t.Run("early majority with a strict lead finalizes before remaining games", func(t *testing.T) {
		m := testMatch(
			completedGame(models.SlotMensDoubles, 11, 5),
			completedGame(models.SlotWomensDoubles, 11, 8),
			models.Game{Slot: models.SlotMixed1},
			models.Game{Slot: models.SlotMixed2},
		)
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchCompleted, o.Status)
		assert.Equal(t, DecidedByGames, o.DecidedBy)
		require.NotNil(t, o.WinnerTeamID)
		assert.Equal(t, "alpha", *o.WinnerTeamID)
		assert.Equal(t, "beta", *o.LoserTeamID)
	})

	t.Run("one win each keeps the match in progress", func(t *testing.T) {
		m := testMatch(
			completedGame(models.SlotMensDoubles, 11, 5),
			completedGame(models.SlotWomensDoubles, 5, 11),
			models.Game{Slot: models.SlotMixed1},
			models.Game{Slot: models.SlotMixed2},
		)
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchInProgress, o.Status)
	})

	t.Run("even split with equal totals requires a tiebreaker", func(t *testing.T) {
		m := evenSplit()
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchTiedRequiresTiebreaker, o.Status)
		assert.Equal(t, 2, o.WinsA)
		assert.Equal(t, 2, o.WinsB)
		assert.Equal(t, 34, o.PointsA)
		assert.Equal(t, 34, o.PointsB)
		assert.Nil(t, o.WinnerTeamID)
	})

	t.Run("even split with differing totals needs a manager decision", func(t *testing.T) {
		m := evenSplit()
		m.Games[2].TeamAScore = intPtr(13)
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchNeedsDecision, o.Status)
		assert.Nil(t, o.WinnerTeamID)
	})

	t.Run("scheduled tiebreaker parks the tie as pending", func(t *testing.T) {
		m := evenSplit()
		m.Games = append(m.Games, models.Game{Slot: models.SlotTiebreaker})
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchTiedPending, o.Status)
	})

	t.Run("completed tiebreaker decides the match", func(t *testing.T) {
		m := evenSplit()
		m.Games = append(m.Games, completedGame(models.SlotTiebreaker, 9, 15))
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchDecidedTiebreak, o.Status)
		assert.Equal(t, DecidedByTiebreaker, o.DecidedBy)
		require.NotNil(t, o.WinnerTeamID)
		assert.Equal(t, "beta", *o.WinnerTeamID)
	})

	t.Run("tiebreaker points never count toward game totals", func(t *testing.T) {
		m := evenSplit()
		m.Games = append(m.Games, completedGame(models.SlotTiebreaker, 15, 9))
		o := Resolve(m, 4)
		assert.Equal(t, 34, o.PointsA)
		assert.Equal(t, 34, o.PointsB)
	})

	t.Run("forfeit outranks everything", func(t *testing.T) {
		m := evenSplit()
		side := models.SideA
		m.ForfeitTeam = &side
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchCompleted, o.Status)
		assert.Equal(t, DecidedByForfeit, o.DecidedBy)
		require.NotNil(t, o.WinnerTeamID)
		assert.Equal(t, "beta", *o.WinnerTeamID)
	})

	t.Run("stored winner is trusted", func(t *testing.T) {
		m := testMatch()
		m.WinnerID = strPtr("alpha")
		o := Resolve(m, 4)
		assert.Equal(t, models.MatchCompleted, o.Status)
		assert.Equal(t, "alpha", *o.WinnerTeamID)
		assert.Equal(t, "beta", *o.LoserTeamID)
	})
}

func TestCompleteMatch(t *testing.T) {
	t.Run("finalizes a decided match", func(t *testing.T) {
		m := testMatch(
			completedGame(models.SlotMensDoubles, 11, 5),
			completedGame(models.SlotWomensDoubles, 11, 8),
		)
		require.NoError(t, CompleteMatch(m, 4))
		require.NotNil(t, m.WinnerID)
		assert.Equal(t, "alpha", *m.WinnerID)
	})

	t.Run("rejects an undecided match", func(t *testing.T) {
		m := evenSplit()
		assert.ErrorIs(t, CompleteMatch(m, 4), ErrMatchNotReady)
		assert.Nil(t, m.WinnerID)
	})

	t.Run("records the decision method for points decisions", func(t *testing.T) {
		m := evenSplit()
		m.Games[2].TeamAScore = intPtr(13)
		require.NoError(t, DecideByPoints(m, 4))
		require.NoError(t, CompleteMatch(m, 4))
		require.NotNil(t, m.WinnerID)
		assert.Equal(t, "alpha", *m.WinnerID)
		require.NotNil(t, m.TiebreakerStatus)
		assert.Equal(t, models.TiebreakerPoints, *m.TiebreakerStatus)
	})

	t.Run("no-op when a winner is already set", func(t *testing.T) {
		m := testMatch()
		m.WinnerID = strPtr("beta")
		require.NoError(t, CompleteMatch(m, 4))
		assert.Equal(t, "beta", *m.WinnerID)
	})
}

func TestEvaluate(t *testing.T) {
	t.Run("refreshes running totals", func(t *testing.T) {
		m := testMatch(
			completedGame(models.SlotMensDoubles, 11, 5),
			models.Game{Slot: models.SlotWomensDoubles},
		)
		Evaluate(m, 4)
		require.NotNil(t, m.TotalPointsTeamA)
		assert.Equal(t, 11, *m.TotalPointsTeamA)
		assert.Equal(t, 5, *m.TotalPointsTeamB)
	})

	t.Run("clears totals when no game is complete", func(t *testing.T) {
		m := testMatch(models.Game{Slot: models.SlotMensDoubles})
		m.TotalPointsTeamA, m.TotalPointsTeamB = intPtr(10), intPtr(9)
		Evaluate(m, 4)
		assert.Nil(t, m.TotalPointsTeamA)
		assert.Nil(t, m.TotalPointsTeamB)
	})

	t.Run("marks an equal-total tie as requiring a tiebreaker", func(t *testing.T) {
		m := evenSplit()
		Evaluate(m, 4)
		require.NotNil(t, m.TiebreakerStatus)
		assert.Equal(t, models.TiebreakerRequired, *m.TiebreakerStatus)
	})

	t.Run("marks a differing-total tie as needing a decision", func(t *testing.T) {
		m := evenSplit()
		m.Games[3].TeamBScore = intPtr(13)
		Evaluate(m, 4)
		require.NotNil(t, m.TiebreakerStatus)
		assert.Equal(t, models.TiebreakerNeedsDec, *m.TiebreakerStatus)
	})

	t.Run("keeps a recorded decision through unrelated re-evaluation", func(t *testing.T) {
		m := evenSplit()
		m.Games[2].TeamAScore = intPtr(13)
		require.NoError(t, DecideByPoints(m, 4))
		require.NoError(t, CompleteMatch(m, 4))

		Evaluate(m, 4)
		require.NotNil(t, m.TiebreakerStatus)
		assert.Equal(t, models.TiebreakerPoints, *m.TiebreakerStatus)
		require.NotNil(t, m.TiebreakerWinnerTeamID)
		assert.Equal(t, "alpha", *m.TiebreakerWinnerTeamID)
	})
}
