package brackets

import (
	"context"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

// BracketMatch is one skeleton match of a generated bracket. Keys are
// builder-scoped ("W0M1", "L2M0", "F1"); the persistence layer swaps them
// for database ids when it saves the structure.
type BracketMatch struct {
	Key      string
	RoundIdx int
	Position int

	TeamAID *string
	TeamBID *string
	SeedA   *int
	SeedB   *int

	IsBye    bool
	WinnerID *string

	// Feed-in pointers: the match whose winner (or, for loser-bracket
	// drops, whose loser) fills each slot.
	SourceAKey *string
	SourceBKey *string
	// Feed-out pointers set while linking.
	NextKey      *string
	NextLoserKey *string

	Slots []models.GameSlot
}

type BracketRound struct {
	Idx         int
	BracketType models.BracketType
	Depth       int
	Matches     []*BracketMatch
}

type Bracket struct {
	Rounds       []*BracketRound
	TotalMatches int

	byKey map[string]*BracketMatch
}

func (b *Bracket) Match(key string) *BracketMatch {
	return b.byKey[key]
}

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

func (g *DoubleEliminationGenerator) GenerateBracket(_ context.Context, params GenerateBracketParams) (*Bracket, error) {
	return BuildDoubleElimination(params.Seeding, params.Options)
}

// BuildDoubleElimination builds the full double-elimination skeleton:
// winner bracket, loser bracket, finals, with every progression pointer
// linked. Byes are real matches with the winner preset and no games.
func BuildDoubleElimination(seeding SeedingAssignment, opts BuildOptions) (*Bracket, error) {
	matchups, err := firstRoundMatchups(seeding)
	if err != nil {
		return nil, err
	}

	slots := opts.GameSlots
	if len(slots) == 0 {
		slots = models.StandardSlots
	}
	perMatch := opts.GamesPerMatch
	if perMatch <= 0 {
		perMatch = models.DefaultGamesPerMatch
	}
	if perMatch > len(slots) {
		perMatch = len(slots)
	}
	matchSlots := slots[:perMatch]

	size := len(matchups) * 2
	winnerRounds := 0
	for s := size; s > 1; s >>= 1 {
		winnerRounds++
	}
	loserRounds := (winnerRounds - 1) * 2
	if loserRounds == 0 {
		return nil, ErrUnbalancedBracket
	}

	b := &Bracket{byKey: make(map[string]*BracketMatch)}

	add := func(round *BracketRound, m *BracketMatch) {
		round.Matches = append(round.Matches, m)
		b.byKey[m.Key] = m
		b.TotalMatches++
	}

	// Winner bracket.
	for r := 0; r < winnerRounds; r++ {
		round := &BracketRound{
			Idx:         r,
			BracketType: models.BracketWinner,
			Depth:       winnerRounds - 1 - r,
		}
		if r == 0 {
			for i, mu := range matchups {
				m := &BracketMatch{
					Key:      wbKey(0, i),
					RoundIdx: 0,
					Position: i,
					IsBye:    mu.IsBye,
				}
				teamA, seedA := mu.TeamAID, mu.SeedA
				m.TeamAID, m.SeedA = &teamA, &seedA
				if mu.IsBye {
					m.WinnerID = &teamA
				} else {
					teamB, seedB := mu.TeamBID, mu.SeedB
					m.TeamBID, m.SeedB = &teamB, &seedB
					m.Slots = matchSlots
				}
				add(round, m)
			}
		} else {
			prev := b.Rounds[r-1]
			for i := 0; i < len(prev.Matches)/2; i++ {
				m := &BracketMatch{
					Key:      wbKey(r, i),
					RoundIdx: r,
					Position: i,
					Slots:    matchSlots,
				}
				linkWinner(prev.Matches[2*i], m, slotA)
				linkWinner(prev.Matches[2*i+1], m, slotB)
				add(round, m)
			}
		}
		b.Rounds = append(b.Rounds, round)
	}

	// Loser bracket. Rounds alternate: drops from the winner bracket pair
	// up, then survivors meet the next wave of drops. The drop mapping is
	// positional (winner-round match i feeds loser slot i).
	matchCount := size / 4
	for k := 0; k < loserRounds; k++ {
		round := &BracketRound{
			Idx:         winnerRounds + k,
			BracketType: models.BracketLoser,
			Depth:       loserRounds - 1 - k,
		}
		for i := 0; i < matchCount; i++ {
			m := &BracketMatch{
				Key:      lbKey(k, i),
				RoundIdx: winnerRounds + k,
				Position: i,
				Slots:    matchSlots,
			}
			switch {
			case k == 0:
				wb := b.Rounds[0]
				linkLoser(wb.Matches[2*i], m, slotA)
				linkLoser(wb.Matches[2*i+1], m, slotB)
			case k%2 == 1:
				prevLB := b.Rounds[winnerRounds+k-1]
				wbRound := b.Rounds[(k+1)/2]
				linkWinner(prevLB.Matches[i], m, slotA)
				linkLoser(wbRound.Matches[i], m, slotB)
			default:
				prevLB := b.Rounds[winnerRounds+k-1]
				linkWinner(prevLB.Matches[2*i], m, slotA)
				linkWinner(prevLB.Matches[2*i+1], m, slotB)
			}
			add(round, m)
		}
		b.Rounds = append(b.Rounds, round)
		if k%2 == 1 {
			matchCount /= 2
		}
	}

	// Finals: winner-bracket champion vs loser-bracket champion. With
	// TrueFinals a depth-0 rematch follows when the loser-bracket side
	// takes the first finals; otherwise the depth-0 match is closed out
	// by progression with the champion preset.
	finalsDepth := 0
	if opts.TrueFinals {
		finalsDepth = 1
	}
	finals := &BracketMatch{
		Key:      "F1",
		RoundIdx: winnerRounds + loserRounds,
		Position: 0,
		Slots:    matchSlots,
	}
	wbFinal := b.Rounds[winnerRounds-1].Matches[0]
	lbFinal := b.Rounds[winnerRounds+loserRounds-1].Matches[0]
	linkWinner(wbFinal, finals, slotA)
	linkWinner(lbFinal, finals, slotB)
	finalsRound := &BracketRound{
		Idx:         finals.RoundIdx,
		BracketType: models.BracketFinals,
		Depth:       finalsDepth,
		Matches:     []*BracketMatch{finals},
	}
	add(finalsRound, finals)
	b.Rounds = append(b.Rounds, finalsRound)

	if opts.TrueFinals {
		reset := &BracketMatch{
			Key:      "F2",
			RoundIdx: finals.RoundIdx + 1,
			Position: 0,
			Slots:    matchSlots,
		}
		f1 := finals.Key
		reset.SourceAKey, reset.SourceBKey = &f1, &f1
		finals.NextKey = &reset.Key
		finals.NextLoserKey = &reset.Key
		resetRound := &BracketRound{
			Idx:         reset.RoundIdx,
			BracketType: models.BracketFinals,
			Depth:       0,
			Matches:     []*BracketMatch{reset},
		}
		add(resetRound, reset)
		b.Rounds = append(b.Rounds, resetRound)
	}

	return b, nil
}

type slotSide int

const (
	slotA slotSide = iota
	slotB
)

func linkWinner(src, dst *BracketMatch, side slotSide) {
	key := src.Key
	if side == slotA {
		dst.SourceAKey = &key
	} else {
		dst.SourceBKey = &key
	}
	src.NextKey = &dst.Key
}

func linkLoser(src, dst *BracketMatch, side slotSide) {
	key := src.Key
	if side == slotA {
		dst.SourceAKey = &key
	} else {
		dst.SourceBKey = &key
	}
	src.NextLoserKey = &dst.Key
}

func wbKey(round, pos int) string {
	return fmt.Sprintf("W%dM%d", round, pos)
}

func lbKey(round, pos int) string {
	return fmt.Sprintf("L%dM%d", round, pos)
}
