package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/repositories"
	"github.com/matchplay/tournament-system/scoring"
)

// The service wraps every mutation in a *sql.Tx, but the repositories
// below are in-memory fakes that ignore the executor. A stub driver gives
// runInTx a transaction that commits and rolls back as no-ops.

type stubDriver struct{}
type stubConn struct{}
type stubTx struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }
func (stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("stub connection does not prepare statements")
}
func (stubConn) Close() error              { return nil }
func (stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }
func (stubTx) Commit() error               { return nil }
func (stubTx) Rollback() error             { return nil }

var registerStubDriver sync.Once

func stubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubDriver.Do(func() { sql.Register("servicestub", stubDriver{}) })
	db, err := sql.Open("servicestub", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fixture is the shared in-memory store behind the fake repositories.
type fixture struct {
	tournament *models.Tournament
	stop       *models.Stop

	rounds     map[string]*models.Round
	roundOrder []string

	matches    map[string]*models.Match
	matchOrder []string

	games     map[string]*models.Game
	gameOrder []string

	lineups   map[string]*models.Lineup // roundID + "/" + teamID
	snapshots map[string][]string       // gameID + "/" + side

	teams []*models.Team
}

func (fx *fixture) addRound(r *models.Round) {
	fx.rounds[r.ID] = r
	fx.roundOrder = append(fx.roundOrder, r.ID)
}

func (fx *fixture) addMatch(m *models.Match) {
	fx.matches[m.ID] = m
	fx.matchOrder = append(fx.matchOrder, m.ID)
}

func (fx *fixture) addGame(g *models.Game) {
	fx.games[g.ID] = g
	fx.gameOrder = append(fx.gameOrder, g.ID)
}

type fakeMatchRepo struct {
	repositories.MatchRepository
	fx *fixture
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Match, error) {
	m, ok := r.fx.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	cp.Games = nil
	return &cp, nil
}

func (r *fakeMatchRepo) ListByStop(_ context.Context, _ repositories.SQLExecutor, _ string) ([]*models.Match, error) {
	out := make([]*models.Match, 0, len(r.fx.matchOrder))
	for _, id := range r.fx.matchOrder {
		cp := *r.fx.matches[id]
		cp.Games = nil
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateOutcome(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	st, ok := r.fx.matches[m.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	st.IsBye = m.IsBye
	st.WinnerID = m.WinnerID
	st.ForfeitTeam = m.ForfeitTeam
	st.TotalPointsTeamA = m.TotalPointsTeamA
	st.TotalPointsTeamB = m.TotalPointsTeamB
	st.TiebreakerStatus = m.TiebreakerStatus
	st.TiebreakerWinnerTeamID = m.TiebreakerWinnerTeamID
	return nil
}

func (r *fakeMatchRepo) UpdateSlots(_ context.Context, _ repositories.SQLExecutor, id string, teamAID, teamBID *string) error {
	st, ok := r.fx.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	st.TeamAID, st.TeamBID = teamAID, teamBID
	return nil
}

type fakeGameRepo struct {
	repositories.GameRepository
	fx *fixture
}

func (r *fakeGameRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id string) (*models.Game, error) {
	g, ok := r.fx.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGameRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID string) ([]*models.Game, error) {
	out := make([]*models.Game, 0)
	for _, id := range r.fx.gameOrder {
		if r.fx.games[id].MatchID == matchID {
			cp := *r.fx.games[id]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) Create(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	cp := *game
	r.fx.addGame(&cp)
	return nil
}

func (r *fakeGameRepo) Update(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	if _, ok := r.fx.games[game.ID]; !ok {
		return repositories.ErrGameNotFound
	}
	cp := *game
	r.fx.games[game.ID] = &cp
	return nil
}

func (r *fakeGameRepo) ReplaceLineup(_ context.Context, _ repositories.SQLExecutor, gameID string, side models.TeamSide, playerIDs []string) error {
	r.fx.snapshots[gameID+"/"+string(side)] = append([]string(nil), playerIDs...)
	return nil
}

func (r *fakeGameRepo) GetLineups(_ context.Context, _ repositories.SQLExecutor, gameID string) ([]models.Player, []models.Player, error) {
	toPlayers := func(ids []string) []models.Player {
		players := make([]models.Player, 0, len(ids))
		for _, id := range ids {
			players = append(players, models.Player{ID: id})
		}
		return players
	}
	return toPlayers(r.fx.snapshots[gameID+"/A"]), toPlayers(r.fx.snapshots[gameID+"/B"]), nil
}

type fakeRoundRepo struct {
	repositories.RoundRepository
	fx *fixture
}

func (r *fakeRoundRepo) GetByID(_ context.Context, id string) (*models.Round, error) {
	round, ok := r.fx.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	cp := *round
	cp.Matches = nil
	return &cp, nil
}

func (r *fakeRoundRepo) ListByStop(_ context.Context, _ string) ([]*models.Round, error) {
	out := make([]*models.Round, 0, len(r.fx.roundOrder))
	for _, id := range r.fx.roundOrder {
		cp := *r.fx.rounds[id]
		cp.Matches = nil
		out = append(out, &cp)
	}
	return out, nil
}

type fakeStopRepo struct {
	repositories.StopRepository
	fx *fixture
}

func (r *fakeStopRepo) GetByID(_ context.Context, _ string) (*models.Stop, error) {
	cp := *r.fx.stop
	return &cp, nil
}

type fakeTournamentRepo struct {
	repositories.TournamentRepository
	fx *fixture
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ string) (*models.Tournament, error) {
	cp := *r.fx.tournament
	return &cp, nil
}

type fakeLineupRepo struct {
	repositories.LineupRepository
	fx *fixture
}

func (r *fakeLineupRepo) GetByRoundAndTeam(_ context.Context, roundID, teamID string) (*models.Lineup, error) {
	lineup, ok := r.fx.lineups[roundID+"/"+teamID]
	if !ok {
		return nil, repositories.ErrLineupNotFound
	}
	return lineup, nil
}

func newMatchFixture(t *testing.T, gamesPerMatch int) (*fixture, MatchService) {
	t.Helper()
	fx := &fixture{
		tournament: &models.Tournament{
			ID:            "tournament-1",
			Name:          "Autumn Tour",
			Type:          models.TypeDoubleElimination,
			GamesPerMatch: gamesPerMatch,
		},
		stop:      &models.Stop{ID: "stop-1", TournamentID: "tournament-1", Name: "Stop One"},
		rounds:    make(map[string]*models.Round),
		matches:   make(map[string]*models.Match),
		games:     make(map[string]*models.Game),
		lineups:   make(map[string]*models.Lineup),
		snapshots: make(map[string][]string),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewMatchService(
		stubDB(t),
		&fakeMatchRepo{fx: fx},
		&fakeGameRepo{fx: fx},
		&fakeRoundRepo{fx: fx},
		&fakeStopRepo{fx: fx},
		&fakeTournamentRepo{fx: fx},
		&fakeLineupRepo{fx: fx},
		nil,
		logger,
	)
	return fx, svc
}

func seedMatch(fx *fixture, matchID string, slots int) {
	fx.addRound(&models.Round{ID: "round-1", StopID: "stop-1", Idx: 0})
	fx.addMatch(&models.Match{
		ID:      matchID,
		RoundID: "round-1",
		TeamAID: strPtr("alpha"),
		TeamBID: strPtr("beta"),
	})
	for i := 0; i < slots; i++ {
		fx.addGame(&models.Game{
			ID:      matchID + "-g" + string(rune('1'+i)),
			MatchID: matchID,
			Slot:    models.StandardSlots[i],
		})
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestMatchServiceGameFlow(t *testing.T) {
	ctx := context.Background()
	fx, svc := newMatchFixture(t, 3)
	seedMatch(fx, "m1", 3)

	fx.lineups["round-1/alpha"] = &models.Lineup{
		ID:      "lineup-1",
		RoundID: "round-1",
		TeamID:  "alpha",
		Entries: []models.LineupEntry{
			{SlotIndex: 0, PlayerID: strPtr("p1")},
			{SlotIndex: 1, PlayerID: strPtr("p2")},
			{SlotIndex: 2, PlayerID: strPtr("p3")},
			{SlotIndex: 3, PlayerID: strPtr("p4")},
		},
	}

	_, err := svc.StartGame(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	game, err := svc.StartGame(ctx, "m1-g1")
	require.NoError(t, err)
	require.NotNil(t, game.StartedAt)

	// The round lineup is snapshotted onto the game at first start; the
	// team without a submitted lineup is skipped silently.
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, fx.snapshots["m1-g1/A"])
	assert.Empty(t, fx.snapshots["m1-g1/B"])

	view, err := svc.UpdateGameScore(ctx, "m1-g1", intPtr(11), intPtr(7))
	require.NoError(t, err)
	assert.Equal(t, models.MatchInProgress, view.Status)
	assert.Zero(t, view.WinsA)

	view, err = svc.EndGame(ctx, "m1-g1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.WinsA)

	_, err = svc.StartGame(ctx, "m1-g2")
	require.NoError(t, err)
	_, err = svc.UpdateGameScore(ctx, "m1-g2", intPtr(5), intPtr(11))
	require.NoError(t, err)
	view, err = svc.EndGame(ctx, "m1-g2")
	require.NoError(t, err)
	assert.Equal(t, models.MatchInProgress, view.Status)
	assert.Equal(t, 1, view.WinsB)

	_, err = svc.UpdateGameScore(ctx, "m1-g3", intPtr(11), intPtr(9))
	require.NoError(t, err)
	view, err = svc.EndGame(ctx, "m1-g3")
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, view.Status)
	assert.Nil(t, view.WinnerID, "a winner is recorded only on explicit completion")

	view, err = svc.CompleteMatch(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, view.WinnerID)
	assert.Equal(t, "alpha", *view.WinnerID)
	assert.Equal(t, "alpha", *fx.matches["m1"].WinnerID)
	require.NotNil(t, fx.matches["m1"].TotalPointsTeamA)
	assert.Equal(t, 27, *fx.matches["m1"].TotalPointsTeamA)

	// Completing again is a no-op.
	view, err = svc.CompleteMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", *view.WinnerID)

	// Reopening the deciding game withdraws the recorded winner.
	view, err = svc.ReopenGame(ctx, "m1-g3")
	require.NoError(t, err)
	assert.Equal(t, models.MatchInProgress, view.Status)
	assert.Nil(t, view.WinnerID)
	assert.Nil(t, fx.matches["m1"].WinnerID)

	got, err := svc.GetMatch(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, got.Games, 3)
	assert.Equal(t, "p1", got.Games[0].TeamALineup[0].ID)
}

func TestMatchServiceTieFlow(t *testing.T) {
	ctx := context.Background()
	fx, svc := newMatchFixture(t, 2)
	seedMatch(fx, "m1", 2)

	fx.games["m1-g1"].TeamAScore = intPtr(11)
	fx.games["m1-g1"].TeamBScore = intPtr(5)
	fx.games["m1-g1"].IsComplete = true
	fx.games["m1-g2"].TeamAScore = intPtr(5)
	fx.games["m1-g2"].TeamBScore = intPtr(11)
	fx.games["m1-g2"].IsComplete = true

	view, err := svc.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchTiedRequiresTiebreaker, view.Status)

	_, err = svc.DecideByPoints(ctx, "m1")
	require.ErrorIs(t, err, scoring.ErrInvalidDecisionState)

	_, err = svc.CompleteMatch(ctx, "m1")
	require.ErrorIs(t, err, scoring.ErrMatchNotReady)

	view, err = svc.ScheduleTiebreaker(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchTiedPending, view.Status)

	var tiebreakerID string
	for id, g := range fx.games {
		if g.Slot.IsTiebreaker() {
			tiebreakerID = id
		}
	}
	require.NotEmpty(t, tiebreakerID)

	_, err = svc.ScheduleTiebreaker(ctx, "m1")
	require.ErrorIs(t, err, scoring.ErrTiebreakerExists)

	_, err = svc.UpdateGameScore(ctx, tiebreakerID, intPtr(11), intPtr(9))
	require.NoError(t, err)
	view, err = svc.EndGame(ctx, tiebreakerID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchDecidedTiebreak, view.Status)

	view, err = svc.CompleteMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", *view.WinnerID)
	require.NotNil(t, fx.matches["m1"].TiebreakerStatus)
	assert.Equal(t, models.TiebreakerGame, *fx.matches["m1"].TiebreakerStatus)
}

func TestMatchServiceReopenVoidsPointsDecision(t *testing.T) {
	ctx := context.Background()
	fx, svc := newMatchFixture(t, 2)
	seedMatch(fx, "m1", 2)

	fx.games["m1-g1"].TeamAScore = intPtr(11)
	fx.games["m1-g1"].TeamBScore = intPtr(5)
	fx.games["m1-g1"].IsComplete = true
	fx.games["m1-g2"].TeamAScore = intPtr(7)
	fx.games["m1-g2"].TeamBScore = intPtr(11)
	fx.games["m1-g2"].IsComplete = true

	view, err := svc.DecideByPoints(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchDecidedPoints, view.Status)

	view, err = svc.CompleteMatch(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, view.WinnerID)
	assert.Equal(t, "alpha", *view.WinnerID)

	// The first game was entered wrong: alpha won it 11-9, not 11-5.
	// Reopening it voids the points decision along with the winner.
	view, err = svc.ReopenGame(ctx, "m1-g1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchInProgress, view.Status)
	assert.Nil(t, fx.matches["m1"].WinnerID)
	assert.Nil(t, fx.matches["m1"].TiebreakerWinnerTeamID)

	_, err = svc.UpdateGameScore(ctx, "m1-g1", intPtr(11), intPtr(9))
	require.NoError(t, err)
	view, err = svc.EndGame(ctx, "m1-g1")
	require.NoError(t, err)

	// Totals now favor beta 20-16; the corrected tie asks for a fresh
	// decision instead of resolving to the withdrawn one.
	assert.Equal(t, models.MatchNeedsDecision, view.Status)

	view, err = svc.DecideByPoints(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchDecidedPoints, view.Status)

	view, err = svc.CompleteMatch(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, view.WinnerID)
	assert.Equal(t, "beta", *view.WinnerID)
}

func TestMatchServiceForfeit(t *testing.T) {
	ctx := context.Background()
	fx, svc := newMatchFixture(t, 4)
	seedMatch(fx, "m1", 4)

	view, err := svc.ForfeitMatch(ctx, "m1", models.SideA)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, view.Status)
	require.NotNil(t, view.WinnerID)
	assert.Equal(t, "beta", *view.WinnerID)
	require.NotNil(t, fx.matches["m1"].ForfeitTeam)
	assert.Equal(t, models.SideA, *fx.matches["m1"].ForfeitTeam)

	_, err = svc.ForfeitMatch(ctx, "m1", models.SideB)
	require.ErrorIs(t, err, scoring.ErrMatchTerminal)
}

func TestMatchServiceBracketPropagation(t *testing.T) {
	ctx := context.Background()
	fx, svc := newMatchFixture(t, 1)

	winner := models.BracketWinner
	depth1, depth0 := 1, 0
	fx.addRound(&models.Round{ID: "round-1", StopID: "stop-1", Idx: 0, BracketType: &winner, Depth: &depth1})
	fx.addRound(&models.Round{ID: "round-2", StopID: "stop-1", Idx: 1, BracketType: &winner, Depth: &depth0})

	fx.addMatch(&models.Match{
		ID: "m1", RoundID: "round-1",
		TeamAID: strPtr("alpha"), TeamBID: strPtr("beta"),
		NextMatchID: strPtr("m2"),
	})
	fx.addMatch(&models.Match{
		ID: "m1b", RoundID: "round-1", BracketPosition: 1,
		TeamAID: strPtr("gamma"), TeamBID: strPtr("delta"),
		NextMatchID: strPtr("m2"),
	})
	fx.addMatch(&models.Match{
		ID: "m2", RoundID: "round-2",
		SourceMatchAID: strPtr("m1"), SourceMatchBID: strPtr("m1b"),
	})
	fx.addGame(&models.Game{ID: "m1-g1", MatchID: "m1", Slot: models.SlotMensDoubles})

	_, err := svc.UpdateGameScore(ctx, "m1-g1", intPtr(11), intPtr(7))
	require.NoError(t, err)
	_, err = svc.EndGame(ctx, "m1-g1")
	require.NoError(t, err)

	view, err := svc.CompleteMatch(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, view.WinnerID)

	// Finalizing pushed the winner into the next round's A slot.
	require.NotNil(t, fx.matches["m2"].TeamAID)
	assert.Equal(t, "alpha", *fx.matches["m2"].TeamAID)
	assert.Nil(t, fx.matches["m2"].TeamBID)

	// Reopening the deciding game pulls the team back out.
	_, err = svc.ReopenGame(ctx, "m1-g1")
	require.NoError(t, err)
	assert.Nil(t, fx.matches["m1"].WinnerID)
	assert.Nil(t, fx.matches["m2"].TeamAID)
}
