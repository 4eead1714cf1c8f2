package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchplay/tournament-system/models"
)

func intPtr(v int) *int { return &v }

func TestDeriveGameStatus(t *testing.T) {
	now := time.Now()

	t.Run("fresh game is not started", func(t *testing.T) {
		g := &models.Game{Slot: models.SlotMensDoubles}
		assert.Equal(t, models.GameNotStarted, DeriveGameStatus(g))
	})

	t.Run("started game is in progress", func(t *testing.T) {
		g := &models.Game{StartedAt: &now}
		assert.Equal(t, models.GameInProgress, DeriveGameStatus(g))
	})

	t.Run("score without explicit start counts as in progress", func(t *testing.T) {
		g := &models.Game{TeamAScore: intPtr(5)}
		assert.Equal(t, models.GameInProgress, DeriveGameStatus(g))
	})

	t.Run("completed flag wins", func(t *testing.T) {
		g := &models.Game{IsComplete: true, TeamAScore: intPtr(11), TeamBScore: intPtr(7)}
		assert.Equal(t, models.GameCompleted, DeriveGameStatus(g))
	})
}

func TestStartGame(t *testing.T) {
	now := time.Now()

	t.Run("starts a fresh game", func(t *testing.T) {
		g := &models.Game{}
		require.NoError(t, StartGame(g, now))
		require.NotNil(t, g.StartedAt)
		assert.Equal(t, now, *g.StartedAt)
	})

	t.Run("idempotent on an already started game", func(t *testing.T) {
		earlier := now.Add(-time.Hour)
		g := &models.Game{StartedAt: &earlier}
		require.NoError(t, StartGame(g, now))
		assert.Equal(t, earlier, *g.StartedAt)
	})

	t.Run("backfills StartedAt when scoring began without a start", func(t *testing.T) {
		g := &models.Game{TeamAScore: intPtr(3)}
		require.NoError(t, StartGame(g, now))
		require.NotNil(t, g.StartedAt)
	})

	t.Run("rejects an ended game", func(t *testing.T) {
		g := &models.Game{IsComplete: true}
		assert.ErrorIs(t, StartGame(g, now), ErrGameAlreadyEnded)
	})
}

func TestUpdateScore(t *testing.T) {
	t.Run("records partial scores", func(t *testing.T) {
		g := &models.Game{}
		require.NoError(t, UpdateScore(g, intPtr(7), nil))
		require.NotNil(t, g.TeamAScore)
		assert.Equal(t, 7, *g.TeamAScore)
		assert.Nil(t, g.TeamBScore)
	})

	t.Run("rejects negative and oversized scores", func(t *testing.T) {
		g := &models.Game{}
		assert.ErrorIs(t, UpdateScore(g, intPtr(-1), nil), ErrScoreOutOfRange)
		assert.ErrorIs(t, UpdateScore(g, nil, intPtr(MaxGameScore+1)), ErrScoreOutOfRange)
	})

	t.Run("rejects updates on an ended game", func(t *testing.T) {
		g := &models.Game{IsComplete: true}
		assert.ErrorIs(t, UpdateScore(g, intPtr(11), intPtr(9)), ErrGameAlreadyEnded)
	})
}

func TestEndGame(t *testing.T) {
	now := time.Now()

	started := func(a, b *int) *models.Game {
		startedAt := now.Add(-10 * time.Minute)
		return &models.Game{StartedAt: &startedAt, TeamAScore: a, TeamBScore: b}
	}

	t.Run("closes a decisive game", func(t *testing.T) {
		g := started(intPtr(11), intPtr(9))
		require.NoError(t, EndGame(g, now))
		assert.True(t, g.IsComplete)
		require.NotNil(t, g.EndedAt)
	})

	t.Run("requires both scores", func(t *testing.T) {
		g := started(intPtr(11), nil)
		assert.ErrorIs(t, EndGame(g, now), ErrScoresMissing)
	})

	t.Run("rejects a tied score on every slot", func(t *testing.T) {
		g := started(intPtr(10), intPtr(10))
		assert.ErrorIs(t, EndGame(g, now), ErrTiedScore)

		tb := started(intPtr(15), intPtr(15))
		tb.Slot = models.SlotTiebreaker
		assert.ErrorIs(t, EndGame(tb, now), ErrTiedScore)
	})

	t.Run("rejects a game that never started", func(t *testing.T) {
		g := &models.Game{}
		assert.ErrorIs(t, EndGame(g, now), ErrGameNotInProgress)
	})

	t.Run("rejects an already ended game", func(t *testing.T) {
		g := started(intPtr(11), intPtr(9))
		require.NoError(t, EndGame(g, now))
		assert.ErrorIs(t, EndGame(g, now), ErrGameAlreadyEnded)
	})
}

func TestReopenGame(t *testing.T) {
	now := time.Now()

	t.Run("reverts a completed game keeping the scores", func(t *testing.T) {
		startedAt := now.Add(-time.Hour)
		g := &models.Game{StartedAt: &startedAt, TeamAScore: intPtr(11), TeamBScore: intPtr(9)}
		require.NoError(t, EndGame(g, now))

		require.NoError(t, ReopenGame(g))
		assert.False(t, g.IsComplete)
		assert.Nil(t, g.EndedAt)
		assert.Equal(t, 11, *g.TeamAScore)
		assert.Equal(t, models.GameInProgress, DeriveGameStatus(g))
	})

	t.Run("rejects a game that is not complete", func(t *testing.T) {
		g := &models.Game{}
		assert.ErrorIs(t, ReopenGame(g), ErrGameNotComplete)
	})
}
