package brackets

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInsufficientTeams = errors.New("at least 2 teams are required to build a bracket")
	ErrUnbalancedBracket = errors.New("double elimination requires a non-empty loser bracket")
	ErrDuplicateSeed     = errors.New("seeds must be unique within a bracket")
)

// nextPowerOfTwo returns the bracket size for n teams.
func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// seedOrder returns the seeds of a full bracket in slot order, so that
// consecutive pairs form the first-round matchups: 1 vs N, then the half
// containing 4 vs 5, and so on. Built by the standard recursive doubling
// ([1] -> [1,2] -> [1,4,2,3] -> [1,8,4,5,2,7,3,6]).
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		doubled := make([]int, 0, len(order)*2)
		mirror := len(order)*2 + 1
		for _, s := range order {
			doubled = append(doubled, s, mirror-s)
		}
		order = doubled
	}
	return order
}

// matchup is one first-round pairing. TeamB empty means the higher seed
// has a bye; seeds above the team count simply do not exist, which is how
// byes land on the top seeds first.
type matchup struct {
	SeedA, SeedB     int
	TeamAID, TeamBID string
	IsBye            bool
}

// firstRoundMatchups pairs the seeded teams into the opening round of a
// bracket of nextPowerOfTwo(len(seeding)) slots.
func firstRoundMatchups(seeding SeedingAssignment) ([]matchup, error) {
	if len(seeding) < 2 {
		return nil, ErrInsufficientTeams
	}

	bySeed := make(map[int]string, len(seeding))
	for _, st := range seeding {
		if _, dup := bySeed[st.Seed]; dup {
			return nil, fmt.Errorf("%w: seed %d", ErrDuplicateSeed, st.Seed)
		}
		bySeed[st.Seed] = st.TeamID
	}

	seeds := make([]int, 0, len(seeding))
	for s := range bySeed {
		seeds = append(seeds, s)
	}
	sort.Ints(seeds)

	// Normalize arbitrary seed numbers to ranks 1..n so gaps in the
	// incoming assignment do not shift the pairing.
	rankTeam := make([]string, len(seeds)+1)
	for rank, s := range seeds {
		rankTeam[rank+1] = bySeed[s]
	}

	size := nextPowerOfTwo(len(seeds))
	order := seedOrder(size)

	matchups := make([]matchup, 0, size/2)
	for i := 0; i < len(order); i += 2 {
		a, b := order[i], order[i+1]
		m := matchup{SeedA: a, SeedB: b}
		if a <= len(seeds) {
			m.TeamAID = rankTeam[a]
		}
		if b <= len(seeds) {
			m.TeamBID = rankTeam[b]
		}
		switch {
		case m.TeamAID == "" && m.TeamBID == "":
			// Cannot happen for size = nextPowerOfTwo(n): every pair
			// holds at least one of the top size/2 seeds.
			return nil, fmt.Errorf("empty pairing for seeds %d and %d", a, b)
		case m.TeamBID == "":
			m.IsBye = true
		case m.TeamAID == "":
			// Keep the real team on the A side.
			m.TeamAID, m.TeamBID = m.TeamBID, ""
			m.SeedA, m.SeedB = m.SeedB, m.SeedA
			m.IsBye = true
		}
		matchups = append(matchups, m)
	}
	return matchups, nil
}
