package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchplay/tournament-system/models"
)

func seeding(n int) SeedingAssignment {
	s := make(SeedingAssignment, 0, n)
	for i := 1; i <= n; i++ {
		s = append(s, SeededTeam{TeamID: teamID(i), Seed: i})
	}
	return s
}

func teamID(seed int) string {
	return string(rune('a'+seed-1)) + "-team"
}

func TestBuildDoubleEliminationFourTeams(t *testing.T) {
	b, err := BuildDoubleElimination(seeding(4), BuildOptions{TrueFinals: true})
	require.NoError(t, err)

	// 2 winner rounds, 2 loser rounds, finals and the reset.
	require.Len(t, b.Rounds, 6)
	assert.Equal(t, 7, b.TotalMatches)

	opening := b.Rounds[0]
	assert.Equal(t, models.BracketWinner, opening.BracketType)
	assert.Equal(t, 1, opening.Depth)
	require.Len(t, opening.Matches, 2)

	// 1v4 and 2v3, no byes at a full power of two.
	m0 := b.Match("W0M0")
	require.NotNil(t, m0)
	assert.False(t, m0.IsBye)
	assert.Equal(t, teamID(1), *m0.TeamAID)
	assert.Equal(t, teamID(4), *m0.TeamBID)
	m1 := b.Match("W0M1")
	assert.Equal(t, teamID(2), *m1.TeamAID)
	assert.Equal(t, teamID(3), *m1.TeamBID)

	// Winner feeds up, loser drops.
	require.NotNil(t, m0.NextKey)
	assert.Equal(t, "W1M0", *m0.NextKey)
	require.NotNil(t, m0.NextLoserKey)
	assert.Equal(t, "L0M0", *m0.NextLoserKey)

	wbFinal := b.Match("W1M0")
	require.NotNil(t, wbFinal)
	assert.Equal(t, "W0M0", *wbFinal.SourceAKey)
	assert.Equal(t, "W0M1", *wbFinal.SourceBKey)
	assert.Equal(t, "F1", *wbFinal.NextKey)
	assert.Equal(t, "L1M0", *wbFinal.NextLoserKey)

	// Loser-bracket final mixes the LB survivor with the WB final's loser.
	lbFinal := b.Match("L1M0")
	require.NotNil(t, lbFinal)
	assert.Equal(t, "L0M0", *lbFinal.SourceAKey)
	assert.Equal(t, "W1M0", *lbFinal.SourceBKey)
	assert.Equal(t, "F1", *lbFinal.NextKey)

	finals := b.Match("F1")
	require.NotNil(t, finals)
	assert.Equal(t, "W1M0", *finals.SourceAKey)
	assert.Equal(t, "L1M0", *finals.SourceBKey)
	assert.Equal(t, "F2", *finals.NextKey)
	assert.Equal(t, "F2", *finals.NextLoserKey)

	reset := b.Match("F2")
	require.NotNil(t, reset)
	assert.Equal(t, "F1", *reset.SourceAKey)
	assert.Equal(t, "F1", *reset.SourceBKey)
	assert.Nil(t, reset.NextKey)

	finalsRound := b.Rounds[4]
	assert.Equal(t, models.BracketFinals, finalsRound.BracketType)
	assert.Equal(t, 1, finalsRound.Depth)
	assert.Equal(t, 0, b.Rounds[5].Depth)
}

func TestBuildDoubleEliminationFiveTeamsByes(t *testing.T) {
	b, err := BuildDoubleElimination(seeding(5), BuildOptions{TrueFinals: true})
	require.NoError(t, err)

	// Bracket of 8: 3 WB rounds, 4 LB rounds, finals plus reset.
	require.Len(t, b.Rounds, 9)
	assert.Equal(t, 15, b.TotalMatches)

	opening := b.Rounds[0]
	require.Len(t, opening.Matches, 4)

	// Byes land on the top three seeds; only 4v5 is playable.
	byes := 0
	for _, m := range opening.Matches {
		if m.IsBye {
			byes++
			require.NotNil(t, m.WinnerID, "a bye has its winner preset")
			assert.Equal(t, *m.TeamAID, *m.WinnerID)
			assert.Nil(t, m.TeamBID)
			assert.Empty(t, m.Slots, "a bye schedules no games")
		}
	}
	assert.Equal(t, 3, byes)

	playable := b.Match("W0M1")
	require.NotNil(t, playable)
	assert.False(t, playable.IsBye)
	assert.Equal(t, teamID(4), *playable.TeamAID)
	assert.Equal(t, teamID(5), *playable.TeamBID)
	assert.Equal(t, 4, *playable.SeedA)
	assert.Equal(t, 5, *playable.SeedB)

	// Top seed's bye keeps the real team on side A.
	top := b.Match("W0M0")
	assert.Equal(t, teamID(1), *top.TeamAID)
	assert.Equal(t, 1, *top.SeedA)
}

func TestBuildDoubleEliminationGameSlots(t *testing.T) {
	t.Run("standard slots by default", func(t *testing.T) {
		b, err := BuildDoubleElimination(seeding(4), BuildOptions{})
		require.NoError(t, err)
		assert.Equal(t, models.StandardSlots, b.Match("W0M0").Slots)
	})

	t.Run("games per match trims the slot list", func(t *testing.T) {
		b, err := BuildDoubleElimination(seeding(4), BuildOptions{GamesPerMatch: 2})
		require.NoError(t, err)
		assert.Equal(t, []models.GameSlot{models.SlotMensDoubles, models.SlotWomensDoubles}, b.Match("W0M0").Slots)
	})
}

func TestBuildDoubleEliminationWithoutTrueFinals(t *testing.T) {
	b, err := BuildDoubleElimination(seeding(4), BuildOptions{})
	require.NoError(t, err)
	require.Len(t, b.Rounds, 5)
	assert.Nil(t, b.Match("F2"))
	finals := b.Match("F1")
	require.NotNil(t, finals)
	assert.Nil(t, finals.NextKey)
	assert.Equal(t, 0, b.Rounds[4].Depth)
}

func TestBuildDoubleEliminationErrors(t *testing.T) {
	t.Run("fewer than two teams", func(t *testing.T) {
		_, err := BuildDoubleElimination(seeding(1), BuildOptions{})
		assert.ErrorIs(t, err, ErrInsufficientTeams)
	})

	t.Run("two teams leave no loser bracket", func(t *testing.T) {
		_, err := BuildDoubleElimination(seeding(2), BuildOptions{})
		assert.ErrorIs(t, err, ErrUnbalancedBracket)
	})

	t.Run("duplicate seeds", func(t *testing.T) {
		s := seeding(4)
		s[3].Seed = 1
		_, err := BuildDoubleElimination(s, BuildOptions{})
		assert.ErrorIs(t, err, ErrDuplicateSeed)
	})
}

func TestSeedOrder(t *testing.T) {
	assert.Equal(t, []int{1, 2}, seedOrder(2))
	assert.Equal(t, []int{1, 4, 2, 3}, seedOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, seedOrder(8))
}

func TestFirstRoundMatchupsNormalizesSparseSeeds(t *testing.T) {
	s := SeedingAssignment{
		{TeamID: "alpha", Seed: 10},
		{TeamID: "bravo", Seed: 40},
		{TeamID: "charlie", Seed: 25},
	}
	matchups, err := firstRoundMatchups(s)
	require.NoError(t, err)
	require.Len(t, matchups, 2)

	// Ranks 1..3 regardless of the raw numbers: alpha(1) gets the bye,
	// charlie(2) hosts bravo(3).
	assert.True(t, matchups[0].IsBye)
	assert.Equal(t, "alpha", matchups[0].TeamAID)
	assert.False(t, matchups[1].IsBye)
	assert.Equal(t, "charlie", matchups[1].TeamAID)
	assert.Equal(t, "bravo", matchups[1].TeamBID)
}

func TestDoubleEliminationGenerator(t *testing.T) {
	g := NewDoubleEliminationGenerator()
	assert.Equal(t, "DoubleElimination", g.GetName())

	b, err := g.GenerateBracket(context.Background(), GenerateBracketParams{
		StopID:  "stop-1",
		Seeding: seeding(4),
		Options: BuildOptions{TrueFinals: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, b.TotalMatches)
}
