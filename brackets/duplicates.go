package brackets

import (
	"sort"

	"github.com/matchplay/tournament-system/models"
)

// DuplicateMatchup reports one team pair meeting more than once within a
// stop. Advisory only: double-elimination runs and makeup rounds can
// legitimately rematch teams, so generation is never blocked on this.
type DuplicateMatchup struct {
	TeamAID      string `json:"team_a_id"`
	TeamBID      string `json:"team_b_id"`
	Count        int    `json:"count"`
	RoundIndices []int  `json:"round_indices"`
}

// FindDuplicates scans a stop's rounds for repeated unordered team
// pairings among non-bye matches with both teams assigned. Round indices
// are reported 1-based in round order.
func FindDuplicates(rounds []models.Round) []DuplicateMatchup {
	type pairing struct {
		count  int
		rounds []int
	}

	ordered := make([]models.Round, len(rounds))
	copy(ordered, rounds)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Idx < ordered[j].Idx })

	pairings := make(map[[2]string]*pairing)
	for i, r := range ordered {
		roundNumber := i + 1
		for _, m := range r.Matches {
			if m.IsBye || m.TeamAID == nil || m.TeamBID == nil {
				continue
			}
			key := [2]string{*m.TeamAID, *m.TeamBID}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			p := pairings[key]
			if p == nil {
				p = &pairing{}
				pairings[key] = p
			}
			p.count++
			p.rounds = append(p.rounds, roundNumber)
		}
	}

	duplicates := make([]DuplicateMatchup, 0)
	for key, p := range pairings {
		if p.count < 2 {
			continue
		}
		duplicates = append(duplicates, DuplicateMatchup{
			TeamAID:      key[0],
			TeamBID:      key[1],
			Count:        p.count,
			RoundIndices: p.rounds,
		})
	}
	sort.Slice(duplicates, func(i, j int) bool {
		if duplicates[i].TeamAID != duplicates[j].TeamAID {
			return duplicates[i].TeamAID < duplicates[j].TeamAID
		}
		return duplicates[i].TeamBID < duplicates[j].TeamBID
	})
	return duplicates
}
