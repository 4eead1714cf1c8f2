package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/repositories"
)

// Additional fake methods the generation flow needs on top of the match
// service harness.

func (r *fakeRoundRepo) Create(_ context.Context, _ repositories.SQLExecutor, round *models.Round) error {
	cp := *round
	cp.Matches = nil
	r.fx.addRound(&cp)
	return nil
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	cp := *match
	cp.Games = nil
	r.fx.addMatch(&cp)
	return nil
}

func (r *fakeMatchRepo) UpdateLinks(_ context.Context, _ repositories.SQLExecutor, id string, next, nextLoser, sourceA, sourceB *string) error {
	st, ok := r.fx.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	st.NextMatchID = next
	st.NextLoserMatchID = nextLoser
	st.SourceMatchAID = sourceA
	st.SourceMatchBID = sourceB
	return nil
}

func (r *fakeGameRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, games []*models.Game) error {
	for _, game := range games {
		if err := r.Create(ctx, exec, game); err != nil {
			return err
		}
	}
	return nil
}

type fakeTeamRepo struct {
	repositories.TeamRepository
	fx *fixture
}

func (r *fakeTeamRepo) ListByTournament(_ context.Context, _ string) ([]*models.Team, error) {
	out := make([]*models.Team, 0, len(r.fx.teams))
	for _, team := range r.fx.teams {
		cp := *team
		out = append(out, &cp)
	}
	return out, nil
}

type fakeStopService struct {
	StopService
	fx *fixture
}

func (s *fakeStopService) GetFull(_ context.Context, _ string) (*models.Stop, error) {
	cp := *s.fx.stop
	return &cp, nil
}

func newBracketFixture(t *testing.T, teamCount int) (*fixture, BracketService) {
	t.Helper()
	fx := &fixture{
		tournament: &models.Tournament{
			ID:            "tournament-1",
			Name:          "Autumn Tour",
			Type:          models.TypeDoubleElimination,
			GamesPerMatch: models.DefaultGamesPerMatch,
		},
		stop:      &models.Stop{ID: "stop-1", TournamentID: "tournament-1", Name: "Stop One"},
		rounds:    make(map[string]*models.Round),
		matches:   make(map[string]*models.Match),
		games:     make(map[string]*models.Game),
		lineups:   make(map[string]*models.Lineup),
		snapshots: make(map[string][]string),
	}
	for i := 1; i <= teamCount; i++ {
		fx.teams = append(fx.teams, &models.Team{
			ID:           "team-" + string(rune('0'+i)),
			TournamentID: "tournament-1",
			Name:         "Team " + string(rune('0'+i)),
			Seed:         intPtr(i),
		})
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewBracketService(
		stubDB(t),
		&fakeTournamentRepo{fx: fx},
		&fakeStopRepo{fx: fx},
		&fakeRoundRepo{fx: fx},
		&fakeMatchRepo{fx: fx},
		&fakeGameRepo{fx: fx},
		&fakeTeamRepo{fx: fx},
		&fakeStopService{fx: fx},
		nil,
		logger,
	)
	return fx, svc
}

// winnerRoundMatches returns the persisted matches of the winner-bracket
// round at the given depth, in creation order.
func winnerRoundMatches(fx *fixture, depth int) []*models.Match {
	var roundID string
	for _, id := range fx.roundOrder {
		r := fx.rounds[id]
		if r.BracketType != nil && *r.BracketType == models.BracketWinner &&
			r.Depth != nil && *r.Depth == depth {
			roundID = id
		}
	}
	out := make([]*models.Match, 0)
	for _, id := range fx.matchOrder {
		if fx.matches[id].RoundID == roundID {
			out = append(out, fx.matches[id])
		}
	}
	return out
}

func TestGenerateBracketSettlesByeFedMatches(t *testing.T) {
	ctx := context.Background()
	fx, svc := newBracketFixture(t, 5)

	_, err := svc.GenerateBracket(ctx, "stop-1")
	require.NoError(t, err)

	// With 5 teams, seeds 1-3 open on byes. The semifinal fed by the
	// seed-2 and seed-3 byes must be fully populated straight away, not
	// wait for the unrelated 4v5 result.
	semis := winnerRoundMatches(fx, 1)
	require.Len(t, semis, 2)

	var determined *models.Match
	for _, m := range semis {
		if m.TeamAID != nil && m.TeamBID != nil {
			determined = m
		}
	}
	require.NotNil(t, determined, "bye-fed semifinal should have both teams")
	assert.ElementsMatch(t,
		[]string{"team-2", "team-3"},
		[]string{*determined.TeamAID, *determined.TeamBID})
	assert.False(t, determined.IsBye)
	assert.Nil(t, determined.WinnerID)

	// The other semifinal holds seed 1 and waits on the 4v5 opener.
	var waiting *models.Match
	for _, m := range semis {
		if m != determined {
			waiting = m
		}
	}
	require.NotNil(t, waiting)
	require.NotNil(t, waiting.TeamAID)
	assert.Equal(t, "team-1", *waiting.TeamAID)
	assert.Nil(t, waiting.TeamBID)

	_, err = svc.GenerateBracket(ctx, "stop-1")
	assert.ErrorIs(t, err, ErrBracketExists)
}
