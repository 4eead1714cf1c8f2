package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matchplay/tournament-system/brackets"
	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/repositories"
	"github.com/matchplay/tournament-system/scoring"
)

type MatchService interface {
	GetMatch(ctx context.Context, matchID string) (*MatchView, error)

	StartGame(ctx context.Context, gameID string) (*models.Game, error)
	UpdateGameScore(ctx context.Context, gameID string, teamAScore, teamBScore *int) (*MatchView, error)
	EndGame(ctx context.Context, gameID string) (*MatchView, error)
	ReopenGame(ctx context.Context, gameID string) (*MatchView, error)
	SetGameCourt(ctx context.Context, gameID string, courtNumber *string) (*models.Game, error)

	CompleteMatch(ctx context.Context, matchID string) (*MatchView, error)
	ForfeitMatch(ctx context.Context, matchID string, side models.TeamSide) (*MatchView, error)
	DecideByPoints(ctx context.Context, matchID string) (*MatchView, error)
	ScheduleTiebreaker(ctx context.Context, matchID string) (*MatchView, error)
}

// MatchView is a match with its games and the derived status attached,
// the shape every scoring endpoint returns.
type MatchView struct {
	models.Match
	Status  models.MatchStatus `json:"status"`
	WinsA   int                `json:"wins_a"`
	WinsB   int                `json:"wins_b"`
	PointsA int                `json:"points_a"`
	PointsB int                `json:"points_b"`
}

type matchService struct {
	db             *sql.DB
	matchRepo      repositories.MatchRepository
	gameRepo       repositories.GameRepository
	roundRepo      repositories.RoundRepository
	stopRepo       repositories.StopRepository
	tournamentRepo repositories.TournamentRepository
	lineupRepo     repositories.LineupRepository
	hub            *brackets.Hub
	logger         *slog.Logger
	now            func() time.Time
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	roundRepo repositories.RoundRepository,
	stopRepo repositories.StopRepository,
	tournamentRepo repositories.TournamentRepository,
	lineupRepo repositories.LineupRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		matchRepo:      matchRepo,
		gameRepo:       gameRepo,
		roundRepo:      roundRepo,
		stopRepo:       stopRepo,
		tournamentRepo: tournamentRepo,
		lineupRepo:     lineupRepo,
		hub:            hub,
		logger:         logger,
		now:            time.Now,
	}
}

// matchContext is everything a scoring mutation needs around one match:
// the match with games loaded, its round, and the stop's game count.
type matchContext struct {
	match  *models.Match
	round  *models.Round
	stopID string
	slots  int
}

func (s *matchService) loadMatchContext(ctx context.Context, exec repositories.SQLExecutor, matchID string) (*matchContext, error) {
	match, err := s.matchRepo.GetByID(ctx, exec, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	games, err := s.gameRepo.ListByMatch(ctx, exec, matchID)
	if err != nil {
		return nil, err
	}
	for _, game := range games {
		match.Games = append(match.Games, *game)
	}

	round, err := s.roundRepo.GetByID(ctx, match.RoundID)
	if err != nil {
		return nil, err
	}

	stop, err := s.stopRepo.GetByID(ctx, round.StopID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, stop.TournamentID)
	if err != nil {
		return nil, err
	}

	slots := tournament.GamesPerMatch
	if slots <= 0 {
		slots = models.DefaultGamesPerMatch
	}
	return &matchContext{match: match, round: round, stopID: round.StopID, slots: slots}, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID string) (*MatchView, error) {
	mc, err := s.loadMatchContext(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	for i := range mc.match.Games {
		game := &mc.match.Games[i]
		teamA, teamB, err := s.gameRepo.GetLineups(ctx, nil, game.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to load game lineups",
				slog.String("game_id", game.ID), slog.Any("error", err))
			continue
		}
		game.TeamALineup, game.TeamBLineup = teamA, teamB
	}
	return s.toView(mc), nil
}

func (s *matchService) toView(mc *matchContext) *MatchView {
	outcome := scoring.Resolve(mc.match, mc.slots)
	return &MatchView{
		Match:   *mc.match,
		Status:  outcome.Status,
		WinsA:   outcome.WinsA,
		WinsB:   outcome.WinsB,
		PointsA: outcome.PointsA,
		PointsB: outcome.PointsB,
	}
}

func (s *matchService) StartGame(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	firstStart := scoring.DeriveGameStatus(game) == models.GameNotStarted
	if err := scoring.StartGame(game, s.now()); err != nil {
		return nil, err
	}
	if err := s.gameRepo.Update(ctx, nil, game); err != nil {
		return nil, err
	}
	if firstStart {
		s.snapshotLineups(ctx, game)
	}

	s.broadcastGame(ctx, game)
	return game, nil
}

// snapshotLineups copies the round lineups onto the game the first time
// it starts, so later lineup edits never rewrite a played game. A team
// without a submitted lineup is simply skipped.
func (s *matchService) snapshotLineups(ctx context.Context, game *models.Game) {
	match, err := s.matchRepo.GetByID(ctx, nil, game.MatchID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load match for lineup snapshot",
			slog.String("game_id", game.ID), slog.Any("error", err))
		return
	}

	sides := []struct {
		side   models.TeamSide
		teamID *string
	}{
		{models.SideA, match.TeamAID},
		{models.SideB, match.TeamBID},
	}
	for _, entry := range sides {
		if entry.teamID == nil {
			continue
		}
		lineup, err := s.lineupRepo.GetByRoundAndTeam(ctx, match.RoundID, *entry.teamID)
		if err != nil {
			if !errors.Is(err, repositories.ErrLineupNotFound) {
				s.logger.WarnContext(ctx, "failed to load lineup for snapshot",
					slog.String("game_id", game.ID),
					slog.String("team_id", *entry.teamID),
					slog.Any("error", err))
			}
			continue
		}
		playerIDs := make([]string, 0, models.LineupSize)
		for _, e := range lineup.Entries {
			if e.PlayerID != nil {
				playerIDs = append(playerIDs, *e.PlayerID)
			}
		}
		if len(playerIDs) == 0 {
			continue
		}
		if err := s.gameRepo.ReplaceLineup(ctx, nil, game.ID, entry.side, playerIDs); err != nil {
			s.logger.WarnContext(ctx, "failed to snapshot lineup",
				slog.String("game_id", game.ID),
				slog.String("team_id", *entry.teamID),
				slog.Any("error", err))
		}
	}
}

func (s *matchService) SetGameCourt(ctx context.Context, gameID string, courtNumber *string) (*models.Game, error) {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	game.CourtNumber = courtNumber
	if err := s.gameRepo.Update(ctx, nil, game); err != nil {
		return nil, err
	}

	s.broadcastGame(ctx, game)
	return game, nil
}

func (s *matchService) UpdateGameScore(ctx context.Context, gameID string, teamAScore, teamBScore *int) (*MatchView, error) {
	return s.mutateGame(ctx, gameID, func(game *models.Game) error {
		return scoring.UpdateScore(game, teamAScore, teamBScore)
	})
}

func (s *matchService) EndGame(ctx context.Context, gameID string) (*MatchView, error) {
	return s.mutateGame(ctx, gameID, func(game *models.Game) error {
		return scoring.EndGame(game, s.now())
	})
}

// ReopenGame clears a game's completion. If the match result flips or
// disappears as a consequence, the change cascades through the bracket.
// Reopening a regular game also voids a recorded points decision, since
// the totals behind it are back in play.
func (s *matchService) ReopenGame(ctx context.Context, gameID string) (*MatchView, error) {
	return s.mutateGame(ctx, gameID, scoring.ReopenGame)
}

// mutateGame applies op to the game, re-evaluates the owning match, and
// propagates any winner change through the bracket, all in one
// transaction.
func (s *matchService) mutateGame(ctx context.Context, gameID string, op func(*models.Game) error) (*MatchView, error) {
	var view *MatchView
	var stopID string

	err := runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		game, err := s.gameRepo.GetByID(ctx, tx, gameID)
		if err != nil {
			if errors.Is(err, repositories.ErrGameNotFound) {
				return ErrNotFound
			}
			return err
		}

		wasComplete := scoring.DeriveGameStatus(game) == models.GameCompleted

		if err := op(game); err != nil {
			return err
		}
		if err := s.gameRepo.Update(ctx, tx, game); err != nil {
			return err
		}

		mc, err := s.loadMatchContext(ctx, tx, game.MatchID)
		if err != nil {
			return err
		}

		if wasComplete && scoring.DeriveGameStatus(game) != models.GameCompleted && !game.Slot.IsTiebreaker() {
			scoring.InvalidatePointsDecision(mc.match)
		}

		view, err = s.reevaluate(ctx, tx, mc, mc.match.WinnerID)
		if err != nil {
			return err
		}
		stopID = mc.stopID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(ctx, stopID, view)
	return view, nil
}

// reevaluate refreshes the match's derived columns from its games, and if
// the result changed relative to previousWinner (the winner on record
// before the mutation), persists the outcome and moves teams through the
// bracket (forward on a new winner, cascading on a flipped or withdrawn
// one).
func (s *matchService) reevaluate(ctx context.Context, tx *sql.Tx, mc *matchContext, previousWinner *string) (*MatchView, error) {
	// A reopened game can invalidate a recorded winner, so the result is
	// rechecked from the games rather than trusted from the stored column.
	// Forfeits stand regardless of game state.
	if previousWinner != nil && mc.match.WinnerID != nil && mc.match.ForfeitTeam == nil && !mc.match.IsBye {
		mc.match.WinnerID = nil
		if o := scoring.Resolve(mc.match, mc.slots); o.Decided() {
			mc.match.WinnerID = o.WinnerTeamID
		}
	}

	scoring.Evaluate(mc.match, mc.slots)

	if err := s.matchRepo.UpdateOutcome(ctx, tx, mc.match); err != nil {
		return nil, err
	}

	if err := s.propagate(ctx, tx, mc, previousWinner); err != nil {
		return nil, err
	}
	return s.toView(mc), nil
}

func (s *matchService) propagate(ctx context.Context, tx *sql.Tx, mc *matchContext, previousWinner *string) error {
	current := mc.match.WinnerID

	switch {
	case current != nil && previousWinner == nil:
		// Fresh result: advance.
	case current == nil && previousWinner == nil:
		return nil
	case current != nil && previousWinner != nil && *current == *previousWinner:
		return nil
	}

	rounds, err := s.loadRoundsForProgression(ctx, tx, mc.stopID)
	if err != nil {
		return err
	}
	progressor := brackets.NewProgressor(rounds)

	var result *brackets.AdvanceResult
	switch {
	case current != nil && previousWinner == nil:
		result, err = progressor.Advance(mc.match.ID)
		if err != nil {
			if errors.Is(err, brackets.ErrMatchNotInBracket) {
				return nil // round-robin rounds have no progression
			}
			return err
		}
	case current == nil:
		result = progressor.ClearDownstream(mc.match.ID)
	default:
		result = progressor.CascadeWinnerChange(mc.match.ID)
	}

	if result.BracketReset {
		s.logger.InfoContext(ctx, "bracket reset triggered",
			slog.String("match_id", mc.match.ID),
			slog.String("stop_id", mc.stopID))
	}

	for _, updated := range result.Updated {
		if updated.ID == mc.match.ID {
			continue
		}
		if err := s.matchRepo.UpdateOutcome(ctx, tx, updated); err != nil {
			return err
		}
		if err := s.matchRepo.UpdateSlots(ctx, tx, updated.ID, updated.TeamAID, updated.TeamBID); err != nil {
			return err
		}
	}
	return nil
}

func (s *matchService) loadRoundsForProgression(ctx context.Context, tx *sql.Tx, stopID string) ([]*models.Round, error) {
	rounds, err := s.roundRepo.ListByStop(ctx, stopID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByStop(ctx, tx, stopID)
	if err != nil {
		return nil, err
	}

	matchesByRound := make(map[string][]models.Match, len(rounds))
	for _, match := range matches {
		matchesByRound[match.RoundID] = append(matchesByRound[match.RoundID], *match)
	}
	for _, round := range rounds {
		round.Matches = matchesByRound[round.ID]
	}
	return rounds, nil
}

func (s *matchService) CompleteMatch(ctx context.Context, matchID string) (*MatchView, error) {
	return s.mutateMatch(ctx, matchID, func(mc *matchContext) error {
		return scoring.CompleteMatch(mc.match, mc.slots)
	})
}

func (s *matchService) ForfeitMatch(ctx context.Context, matchID string, side models.TeamSide) (*MatchView, error) {
	return s.mutateMatch(ctx, matchID, func(mc *matchContext) error {
		return scoring.Forfeit(mc.match, side)
	})
}

func (s *matchService) DecideByPoints(ctx context.Context, matchID string) (*MatchView, error) {
	return s.mutateMatch(ctx, matchID, func(mc *matchContext) error {
		return scoring.DecideByPoints(mc.match, mc.slots)
	})
}

func (s *matchService) ScheduleTiebreaker(ctx context.Context, matchID string) (*MatchView, error) {
	var view *MatchView
	var stopID string

	err := runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		mc, err := s.loadMatchContext(ctx, tx, matchID)
		if err != nil {
			return err
		}

		previousWinner := mc.match.WinnerID
		tiebreaker, err := scoring.ScheduleTiebreaker(mc.match, mc.slots)
		if err != nil {
			return err
		}
		tiebreaker.ID = uuid.NewString()
		tiebreaker.MatchID = matchID
		if err := s.gameRepo.Create(ctx, tx, tiebreaker); err != nil {
			return err
		}

		view, err = s.reevaluate(ctx, tx, mc, previousWinner)
		if err != nil {
			return err
		}
		stopID = mc.stopID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(ctx, stopID, view)
	return view, nil
}

func (s *matchService) mutateMatch(ctx context.Context, matchID string, op func(*matchContext) error) (*MatchView, error) {
	var view *MatchView
	var stopID string

	err := runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		mc, err := s.loadMatchContext(ctx, tx, matchID)
		if err != nil {
			return err
		}

		previousWinner := mc.match.WinnerID
		if err := op(mc); err != nil {
			return err
		}

		view, err = s.reevaluate(ctx, tx, mc, previousWinner)
		if err != nil {
			return err
		}
		stopID = mc.stopID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(ctx, stopID, view)
	return view, nil
}

func (s *matchService) getGame(ctx context.Context, gameID string) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return game, nil
}

func (s *matchService) broadcastGame(ctx context.Context, game *models.Game) {
	if s.hub == nil {
		return
	}
	mc, err := s.loadMatchContext(ctx, nil, game.MatchID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load match for game broadcast",
			slog.String("game_id", game.ID), slog.Any("error", err))
		return
	}
	s.hub.BroadcastToStop(mc.stopID, brackets.Event{
		Type:    brackets.EventGameUpdated,
		Payload: game,
	})
}

func (s *matchService) broadcastMatch(ctx context.Context, stopID string, view *MatchView) {
	if s.hub == nil || view == nil {
		return
	}
	eventType := brackets.EventMatchUpdated
	if view.WinnerID != nil {
		eventType = brackets.EventBracketAdvanced
	}
	s.hub.BroadcastToStop(stopID, brackets.Event{
		Type:    eventType,
		Payload: view,
	})
}
