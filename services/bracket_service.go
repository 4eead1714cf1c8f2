package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/matchplay/tournament-system/brackets"
	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/repositories"
)

type BracketService interface {
	// GenerateBracket builds and persists the bracket for a stop from the
	// tournament's seeded teams. Fails if the stop already has rounds.
	GenerateBracket(ctx context.Context, stopID string) (*models.Stop, error)
	// RegenerateBracket drops the stop's rounds and builds a fresh
	// bracket. Any recorded results for the stop are lost.
	RegenerateBracket(ctx context.Context, stopID string) (*models.Stop, error)
}

type bracketService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	stopRepo       repositories.StopRepository
	roundRepo      repositories.RoundRepository
	matchRepo      repositories.MatchRepository
	gameRepo       repositories.GameRepository
	teamRepo       repositories.TeamRepository
	stopService    StopService
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	stopRepo repositories.StopRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	teamRepo repositories.TeamRepository,
	stopService StopService,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:             db,
		tournamentRepo: tournamentRepo,
		stopRepo:       stopRepo,
		roundRepo:      roundRepo,
		matchRepo:      matchRepo,
		gameRepo:       gameRepo,
		teamRepo:       teamRepo,
		stopService:    stopService,
		hub:            hub,
		logger:         logger,
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, stopID string) (*models.Stop, error) {
	return s.generate(ctx, stopID, false)
}

func (s *bracketService) RegenerateBracket(ctx context.Context, stopID string) (*models.Stop, error) {
	return s.generate(ctx, stopID, true)
}

func (s *bracketService) generate(ctx context.Context, stopID string, replace bool) (*models.Stop, error) {
	stop, err := s.stopRepo.GetByID(ctx, stopID)
	if err != nil {
		if errors.Is(err, repositories.ErrStopNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	existing, err := s.roundRepo.ListByStop(ctx, stopID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 && !replace {
		return nil, ErrBracketExists
	}
	if len(existing) == 0 && replace {
		return nil, ErrBracketNotGenerated
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, stop.TournamentID)
	if err != nil {
		return nil, err
	}

	seeding, err := s.loadSeeding(ctx, stop.TournamentID)
	if err != nil {
		return nil, err
	}

	var generator brackets.BracketGenerator
	switch tournament.Type {
	case models.TypeDoubleElimination:
		generator = brackets.NewDoubleEliminationGenerator()
	case models.TypeRoundRobin:
		generator = brackets.NewRoundRobinGenerator()
	default:
		return nil, fmt.Errorf("%w: %s", ErrTournamentTypeInvalid, tournament.Type)
	}

	bracket, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		StopID:  stopID,
		Seeding: seeding,
		Options: brackets.BuildOptions{
			GamesPerMatch: tournament.GamesPerMatch,
			TrueFinals:    true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s bracket for stop %s: %w", generator.GetName(), stopID, err)
	}

	err = runInTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if replace {
			if delErr := s.roundRepo.DeleteByStop(ctx, tx, stopID); delErr != nil {
				return delErr
			}
		}
		persisted, persistErr := s.persistBracket(ctx, tx, stopID, bracket)
		if persistErr != nil {
			return persistErr
		}
		return s.settleByes(ctx, tx, persisted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket generated",
		slog.String("stop_id", stopID),
		slog.String("generator", generator.GetName()),
		slog.Int("matches", bracket.TotalMatches))

	full, err := s.stopService.GetFull(ctx, stopID)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToStop(stopID, brackets.Event{
			Type:    brackets.EventBracketCreated,
			Payload: full,
		})
	}
	return full, nil
}

func (s *bracketService) loadSeeding(ctx context.Context, tournamentID string) (brackets.SeedingAssignment, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	seeding := make(brackets.SeedingAssignment, 0, len(teams))
	for _, team := range teams {
		if team.Seed == nil {
			continue
		}
		seeding = append(seeding, brackets.SeededTeam{TeamID: team.ID, Seed: *team.Seed})
	}
	if len(seeding) < 2 {
		return nil, ErrNotEnoughTeams
	}
	sort.Slice(seeding, func(i, j int) bool { return seeding[i].Seed < seeding[j].Seed })
	return seeding, nil
}

// persistBracket writes the generated structure in two passes: first all
// rounds and matches with fresh ids, then the progression links once every
// builder key has a database id to point at. The returned rounds carry the
// persisted matches with their links, ready for the progressor.
func (s *bracketService) persistBracket(ctx context.Context, tx *sql.Tx, stopID string, bracket *brackets.Bracket) ([]*models.Round, error) {
	idByKey := make(map[string]string, bracket.TotalMatches)
	type pendingMatch struct {
		dbMatch *models.Match
		match   *brackets.BracketMatch
	}
	pending := make([]pendingMatch, 0, bracket.TotalMatches)
	persisted := make([]*models.Round, 0, len(bracket.Rounds))

	for _, round := range bracket.Rounds {
		dbRound := &models.Round{
			ID:     uuid.NewString(),
			StopID: stopID,
			Idx:    round.Idx,
		}
		if round.BracketType != "" {
			bracketType := round.BracketType
			depth := round.Depth
			dbRound.BracketType = &bracketType
			dbRound.Depth = &depth
		}
		if err := s.roundRepo.Create(ctx, tx, dbRound); err != nil {
			return nil, err
		}

		dbRound.Matches = make([]models.Match, len(round.Matches))
		for i, bm := range round.Matches {
			matchID := uuid.NewString()
			idByKey[bm.Key] = matchID

			dbRound.Matches[i] = models.Match{
				ID:              matchID,
				RoundID:         dbRound.ID,
				TeamAID:         bm.TeamAID,
				TeamBID:         bm.TeamBID,
				SeedA:           bm.SeedA,
				SeedB:           bm.SeedB,
				IsBye:           bm.IsBye,
				BracketPosition: bm.Position,
				WinnerID:        bm.WinnerID,
			}
			dbMatch := &dbRound.Matches[i]
			if err := s.matchRepo.Create(ctx, tx, dbMatch); err != nil {
				return nil, err
			}

			games := make([]*models.Game, 0, len(bm.Slots))
			for _, slot := range bm.Slots {
				games = append(games, &models.Game{
					ID:      uuid.NewString(),
					MatchID: matchID,
					Slot:    slot,
				})
			}
			if err := s.gameRepo.CreateBatch(ctx, tx, games); err != nil {
				return nil, err
			}
			pending = append(pending, pendingMatch{dbMatch: dbMatch, match: bm})
		}
		persisted = append(persisted, dbRound)
	}

	resolve := func(key *string) (*string, error) {
		if key == nil {
			return nil, nil
		}
		id, ok := idByKey[*key]
		if !ok {
			return nil, fmt.Errorf("bracket link %q has no persisted match", *key)
		}
		return &id, nil
	}

	for _, pm := range pending {
		next, err := resolve(pm.match.NextKey)
		if err != nil {
			return nil, err
		}
		nextLoser, err := resolve(pm.match.NextLoserKey)
		if err != nil {
			return nil, err
		}
		sourceA, err := resolve(pm.match.SourceAKey)
		if err != nil {
			return nil, err
		}
		sourceB, err := resolve(pm.match.SourceBKey)
		if err != nil {
			return nil, err
		}
		if next == nil && nextLoser == nil && sourceA == nil && sourceB == nil {
			continue
		}
		pm.dbMatch.NextMatchID = next
		pm.dbMatch.NextLoserMatchID = nextLoser
		pm.dbMatch.SourceMatchAID = sourceA
		pm.dbMatch.SourceMatchBID = sourceB
		if err := s.matchRepo.UpdateLinks(ctx, tx, pm.dbMatch.ID, next, nextLoser, sourceA, sourceB); err != nil {
			return nil, err
		}
	}
	return persisted, nil
}

// settleByes advances the preset bye winners of a freshly persisted
// bracket into their downstream slots, so matches whose participants are
// structurally determined are playable before any result is entered.
func (s *bracketService) settleByes(ctx context.Context, tx *sql.Tx, rounds []*models.Round) error {
	result := brackets.NewProgressor(rounds).SettleByes()
	for _, updated := range result.Updated {
		if err := s.matchRepo.UpdateOutcome(ctx, tx, updated); err != nil {
			return err
		}
		if err := s.matchRepo.UpdateSlots(ctx, tx, updated.ID, updated.TeamAID, updated.TeamBID); err != nil {
			return err
		}
	}
	return nil
}
