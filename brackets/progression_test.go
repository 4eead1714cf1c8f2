package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchplay/tournament-system/models"
)

func strPtr(s string) *string { return &s }

// materialize turns a generated skeleton into persisted-shape rounds the
// way the bracket service stores them, using the builder keys as ids.
func materialize(b *Bracket) []*models.Round {
	rounds := make([]*models.Round, 0, len(b.Rounds))
	for _, br := range b.Rounds {
		r := &models.Round{ID: fmt.Sprintf("round-%d", br.Idx), Idx: br.Idx}
		if br.BracketType != "" {
			bt := br.BracketType
			depth := br.Depth
			r.BracketType = &bt
			r.Depth = &depth
		}
		for _, bm := range br.Matches {
			r.Matches = append(r.Matches, models.Match{
				ID:               bm.Key,
				RoundID:          r.ID,
				TeamAID:          bm.TeamAID,
				TeamBID:          bm.TeamBID,
				SeedA:            bm.SeedA,
				SeedB:            bm.SeedB,
				IsBye:            bm.IsBye,
				WinnerID:         bm.WinnerID,
				BracketPosition:  bm.Position,
				SourceMatchAID:   bm.SourceAKey,
				SourceMatchBID:   bm.SourceBKey,
				NextMatchID:      bm.NextKey,
				NextLoserMatchID: bm.NextLoserKey,
			})
		}
		rounds = append(rounds, r)
	}
	return rounds
}

func indexMatches(rounds []*models.Round) map[string]*models.Match {
	byID := make(map[string]*models.Match)
	for _, r := range rounds {
		for i := range r.Matches {
			byID[r.Matches[i].ID] = &r.Matches[i]
		}
	}
	return byID
}

func progressorFor(t *testing.T, teams int) (*Progressor, map[string]*models.Match) {
	t.Helper()
	b, err := BuildDoubleElimination(seeding(teams), BuildOptions{TrueFinals: true})
	require.NoError(t, err)
	rounds := materialize(b)
	return NewProgressor(rounds), indexMatches(rounds)
}

func decide(t *testing.T, p *Progressor, byID map[string]*models.Match, matchID, winner string) *AdvanceResult {
	t.Helper()
	byID[matchID].WinnerID = strPtr(winner)
	res, err := p.Advance(matchID)
	require.NoError(t, err)
	return res
}

func TestProgressorErrors(t *testing.T) {
	p, byID := progressorFor(t, 4)

	_, err := p.Advance("no-such-match")
	assert.ErrorIs(t, err, ErrMatchNotInBracket)

	require.Nil(t, byID["W0M0"].WinnerID)
	_, err = p.Advance("W0M0")
	assert.ErrorIs(t, err, ErrNoWinnerToAdvance)
}

func TestProgressorResolvesOpeningByes(t *testing.T) {
	p, byID := progressorFor(t, 5)

	// Seeds 1-3 hold preset byes; advancing one cascades all structural
	// results.
	_, err := p.Advance("W0M0")
	require.NoError(t, err)

	semiTop := byID["W1M0"]
	require.NotNil(t, semiTop.TeamAID)
	assert.Equal(t, teamID(1), *semiTop.TeamAID)
	assert.Nil(t, semiTop.TeamBID, "waits for 4v5")

	semiBottom := byID["W1M1"]
	require.NotNil(t, semiBottom.TeamAID)
	assert.Equal(t, teamID(2), *semiBottom.TeamAID)
	require.NotNil(t, semiBottom.TeamBID)
	assert.Equal(t, teamID(3), *semiBottom.TeamBID)
	assert.False(t, semiBottom.IsBye)

	// Both feeds of L0M1 were byes, which drop no loser: it goes empty.
	deadLB := byID["L0M1"]
	assert.True(t, deadLB.IsBye)
	assert.Nil(t, deadLB.TeamAID)
	assert.Nil(t, deadLB.TeamBID)
	assert.Nil(t, deadLB.WinnerID)

	// L0M0 still waits on the playable 4v5.
	assert.False(t, byID["L0M0"].IsBye)
}

func TestProgressorSettleByesOnFreshBracket(t *testing.T) {
	p, byID := progressorFor(t, 5)

	// No match has been played: everything structural must settle from
	// the preset byes alone.
	res := p.SettleByes()
	assert.NotEmpty(t, res.Updated)

	semiBottom := byID["W1M1"]
	require.NotNil(t, semiBottom.TeamAID)
	assert.Equal(t, teamID(2), *semiBottom.TeamAID)
	require.NotNil(t, semiBottom.TeamBID)
	assert.Equal(t, teamID(3), *semiBottom.TeamBID)

	semiTop := byID["W1M0"]
	require.NotNil(t, semiTop.TeamAID)
	assert.Equal(t, teamID(1), *semiTop.TeamAID)
	assert.Nil(t, semiTop.TeamBID, "waits for 4v5")

	// Both feeds of L0M1 are byes: it collapses without a played result.
	assert.True(t, byID["L0M1"].IsBye)

	// Settling again is a no-op.
	assert.Empty(t, p.SettleByes().Updated)
}

func TestProgressorSingleLoserFeedBecomesBye(t *testing.T) {
	p, byID := progressorFor(t, 5)
	_, err := p.Advance("W0M0")
	require.NoError(t, err)

	decide(t, p, byID, "W0M1", teamID(4))

	require.NotNil(t, byID["W1M0"].TeamBID)
	assert.Equal(t, teamID(4), *byID["W1M0"].TeamBID)

	// The 4v5 loser drops into L0M0 whose other feed can never arrive,
	// so the match collapses to a bye and its winner advances.
	lb := byID["L0M0"]
	assert.True(t, lb.IsBye)
	require.NotNil(t, lb.TeamAID)
	assert.Equal(t, teamID(5), *lb.TeamAID)
	require.NotNil(t, lb.WinnerID)
	assert.Equal(t, teamID(5), *lb.WinnerID)

	require.NotNil(t, byID["L1M0"].TeamAID)
	assert.Equal(t, teamID(5), *byID["L1M0"].TeamAID)
}

// playToFinals drives a 4-team bracket until both finalists are known:
// team 1 through the winner bracket, team 2 through the loser bracket.
func playToFinals(t *testing.T, p *Progressor, byID map[string]*models.Match) {
	t.Helper()
	decide(t, p, byID, "W0M0", teamID(1))
	decide(t, p, byID, "W0M1", teamID(2))
	decide(t, p, byID, "L0M0", teamID(4))
	decide(t, p, byID, "W1M0", teamID(1))
	decide(t, p, byID, "L1M0", teamID(2))

	finals := byID["F1"]
	require.NotNil(t, finals.TeamAID)
	require.NotNil(t, finals.TeamBID)
	require.Equal(t, teamID(1), *finals.TeamAID)
	require.Equal(t, teamID(2), *finals.TeamBID)
}

func TestProgressorLoserBracketRouting(t *testing.T) {
	p, byID := progressorFor(t, 4)
	decide(t, p, byID, "W0M0", teamID(1))
	decide(t, p, byID, "W0M1", teamID(2))

	lb := byID["L0M0"]
	require.NotNil(t, lb.TeamAID)
	assert.Equal(t, teamID(4), *lb.TeamAID)
	require.NotNil(t, lb.TeamBID)
	assert.Equal(t, teamID(3), *lb.TeamBID)

	decide(t, p, byID, "L0M0", teamID(4))
	decide(t, p, byID, "W1M0", teamID(1))

	// LB final: the LB survivor meets the WB final's loser.
	lbFinal := byID["L1M0"]
	require.NotNil(t, lbFinal.TeamAID)
	assert.Equal(t, teamID(4), *lbFinal.TeamAID)
	require.NotNil(t, lbFinal.TeamBID)
	assert.Equal(t, teamID(2), *lbFinal.TeamBID)
}

func TestProgressorBracketReset(t *testing.T) {
	t.Run("loser-bracket champion forces the rematch", func(t *testing.T) {
		p, byID := progressorFor(t, 4)
		playToFinals(t, p, byID)

		res := decide(t, p, byID, "F1", teamID(2))
		assert.True(t, res.BracketReset)

		reset := byID["F2"]
		assert.False(t, reset.IsBye)
		assert.Nil(t, reset.WinnerID)
		require.NotNil(t, reset.TeamAID)
		assert.Equal(t, teamID(1), *reset.TeamAID)
		require.NotNil(t, reset.TeamBID)
		assert.Equal(t, teamID(2), *reset.TeamBID)
	})

	t.Run("winner-bracket champion closes the rematch out", func(t *testing.T) {
		p, byID := progressorFor(t, 4)
		playToFinals(t, p, byID)

		res := decide(t, p, byID, "F1", teamID(1))
		assert.False(t, res.BracketReset)

		reset := byID["F2"]
		assert.True(t, reset.IsBye)
		require.NotNil(t, reset.WinnerID)
		assert.Equal(t, teamID(1), *reset.WinnerID)
		assert.Nil(t, reset.TeamBID)
	})
}

func TestProgressorClearDownstream(t *testing.T) {
	p, byID := progressorFor(t, 4)
	decide(t, p, byID, "W0M0", teamID(1))

	// Reopened with no result yet: both the advanced winner and the
	// dropped loser are withdrawn.
	byID["W0M0"].WinnerID = nil
	res := p.ClearDownstream("W0M0")

	assert.Nil(t, byID["W1M0"].TeamAID)
	assert.Nil(t, byID["L0M0"].TeamAID)
	assert.Len(t, res.Updated, 2)
}

func TestProgressorCascadeWinnerChange(t *testing.T) {
	t.Run("swaps both the winner and loser slots", func(t *testing.T) {
		p, byID := progressorFor(t, 4)
		decide(t, p, byID, "W0M0", teamID(1))

		byID["W0M0"].WinnerID = strPtr(teamID(4))
		p.CascadeWinnerChange("W0M0")

		require.NotNil(t, byID["W1M0"].TeamAID)
		assert.Equal(t, teamID(4), *byID["W1M0"].TeamAID)
		require.NotNil(t, byID["L0M0"].TeamAID)
		assert.Equal(t, teamID(1), *byID["L0M0"].TeamAID)
	})

	t.Run("invalidates downstream results built on the old slots", func(t *testing.T) {
		p, byID := progressorFor(t, 4)
		decide(t, p, byID, "W0M0", teamID(1))
		decide(t, p, byID, "W0M1", teamID(2))
		decide(t, p, byID, "L0M0", teamID(4))

		require.NotNil(t, byID["L1M0"].TeamAID)

		byID["W0M0"].WinnerID = strPtr(teamID(4))
		p.CascadeWinnerChange("W0M0")

		// L0M0 is now 1v3; its old result and everything it fed are gone.
		lb := byID["L0M0"]
		assert.Nil(t, lb.WinnerID)
		require.NotNil(t, lb.TeamAID)
		assert.Equal(t, teamID(1), *lb.TeamAID)
		require.NotNil(t, lb.TeamBID)
		assert.Equal(t, teamID(3), *lb.TeamBID)
		assert.Nil(t, byID["L1M0"].TeamAID)
	})

	t.Run("replays the finals reset decision", func(t *testing.T) {
		p, byID := progressorFor(t, 4)
		playToFinals(t, p, byID)
		decide(t, p, byID, "F1", teamID(2))
		require.False(t, byID["F2"].IsBye)

		// Flipping the first finals to the champion voids the rematch.
		byID["F1"].WinnerID = strPtr(teamID(1))
		p.CascadeWinnerChange("F1")

		reset := byID["F2"]
		assert.True(t, reset.IsBye)
		require.NotNil(t, reset.WinnerID)
		assert.Equal(t, teamID(1), *reset.WinnerID)
	})

	t.Run("reopened finals empties the rematch", func(t *testing.T) {
		p, byID := progressorFor(t, 4)
		playToFinals(t, p, byID)
		decide(t, p, byID, "F1", teamID(2))

		byID["F1"].WinnerID = nil
		p.ClearDownstream("F1")

		reset := byID["F2"]
		assert.False(t, reset.IsBye)
		assert.Nil(t, reset.TeamAID)
		assert.Nil(t, reset.TeamBID)
		assert.Nil(t, reset.WinnerID)
	})
}
