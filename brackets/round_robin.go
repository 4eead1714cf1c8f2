package brackets

import (
	"context"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

// RoundRobinGenerator schedules every team against every other team once,
// spread over rounds with the circle method so each team plays at most
// once per round. Used for league-style stops; bracket stops use the
// double-elimination generator.
type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) GenerateBracket(_ context.Context, params GenerateBracketParams) (*Bracket, error) {
	teams := make([]string, 0, len(params.Seeding))
	for _, st := range params.Seeding {
		teams = append(teams, st.TeamID)
	}
	if len(teams) < 2 {
		return nil, ErrInsufficientTeams
	}

	slots := params.Options.GameSlots
	if len(slots) == 0 {
		slots = models.StandardSlots
	}
	perMatch := params.Options.GamesPerMatch
	if perMatch <= 0 {
		perMatch = models.DefaultGamesPerMatch
	}
	if perMatch > len(slots) {
		perMatch = len(slots)
	}
	matchSlots := slots[:perMatch]

	// Odd team counts get a phantom slot; whoever draws it sits the
	// round out with a bye.
	rotation := append([]string(nil), teams...)
	if len(rotation)%2 == 1 {
		rotation = append(rotation, "")
	}
	n := len(rotation)

	b := &Bracket{byKey: make(map[string]*BracketMatch)}
	for r := 0; r < n-1; r++ {
		round := &BracketRound{Idx: r}
		pos := 0
		for i := 0; i < n/2; i++ {
			a, bTeam := rotation[i], rotation[n-1-i]
			if a == "" && bTeam == "" {
				continue
			}
			m := &BracketMatch{
				Key:      fmt.Sprintf("R%dM%d", r, pos),
				RoundIdx: r,
				Position: pos,
			}
			switch {
			case bTeam == "":
				teamA := a
				m.TeamAID = &teamA
				m.IsBye = true
				m.WinnerID = &teamA
			case a == "":
				teamA := bTeam
				m.TeamAID = &teamA
				m.IsBye = true
				m.WinnerID = &teamA
			default:
				teamA, teamB := a, bTeam
				m.TeamAID, m.TeamBID = &teamA, &teamB
				m.Slots = matchSlots
			}
			round.Matches = append(round.Matches, m)
			b.byKey[m.Key] = m
			b.TotalMatches++
			pos++
		}
		b.Rounds = append(b.Rounds, round)

		// Rotate everyone but the first slot.
		last := rotation[n-1]
		copy(rotation[2:], rotation[1:n-1])
		rotation[1] = last
	}
	return b, nil
}
