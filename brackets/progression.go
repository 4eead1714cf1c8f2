package brackets

import (
	"errors"
	"sort"

	"github.com/matchplay/tournament-system/models"
)

var (
	ErrMatchNotInBracket = errors.New("match does not belong to this bracket")
	ErrNoWinnerToAdvance = errors.New("match has no winner to advance")
)

// Progressor propagates results through a persisted bracket held in
// memory: the full set of a stop's rounds with their matches. Mutations
// land on the caller's structs; persisting them is the caller's job.
type Progressor struct {
	matches map[string]*models.Match
	rounds  map[string]*models.Round
}

func NewProgressor(rounds []*models.Round) *Progressor {
	p := &Progressor{
		matches: make(map[string]*models.Match),
		rounds:  make(map[string]*models.Round),
	}
	for _, r := range rounds {
		p.rounds[r.ID] = r
		for i := range r.Matches {
			m := &r.Matches[i]
			p.matches[m.ID] = m
		}
	}
	return p
}

// AdvanceResult lists every match the propagation touched, so callers can
// persist exactly those.
type AdvanceResult struct {
	Updated      []*models.Match
	BracketReset bool
}

func (r *AdvanceResult) touch(m *models.Match) {
	for _, seen := range r.Updated {
		if seen.ID == m.ID {
			return
		}
	}
	r.Updated = append(r.Updated, m)
}

// Advance places a finished match's winner (and, for winner-bracket
// matches, its loser) into the downstream slots, then resolves any byes
// that propagation exposed. Downstream matches become eligible for play
// but are never auto-started.
func (p *Progressor) Advance(matchID string) (*AdvanceResult, error) {
	m, ok := p.matches[matchID]
	if !ok {
		return nil, ErrMatchNotInBracket
	}
	if m.WinnerID == nil {
		return nil, ErrNoWinnerToAdvance
	}

	res := &AdvanceResult{}

	if p.isFirstFinals(m) {
		p.advanceFinals(m, res)
	} else {
		p.placeWinner(m, res)
		p.placeLoser(m, res)
	}

	p.resolveByes(res)
	return res, nil
}

// placeWinner fills the A/B slot of NextMatchID chosen by which source
// pointer names this match.
func (p *Progressor) placeWinner(m *models.Match, res *AdvanceResult) {
	if m.NextMatchID == nil {
		return
	}
	target, ok := p.matches[*m.NextMatchID]
	if !ok {
		return
	}
	p.setSlot(target, m.ID, m.WinnerID, res)
}

func (p *Progressor) placeLoser(m *models.Match, res *AdvanceResult) {
	if m.NextLoserMatchID == nil {
		return
	}
	loser := m.LoserID()
	if loser == nil {
		return
	}
	target, ok := p.matches[*m.NextLoserMatchID]
	if !ok {
		return
	}
	p.setSlot(target, m.ID, loser, res)
}

func (p *Progressor) setSlot(target *models.Match, sourceID string, teamID *string, res *AdvanceResult) {
	switch {
	case target.SourceMatchAID != nil && *target.SourceMatchAID == sourceID:
		target.TeamAID = teamID
	case target.SourceMatchBID != nil && *target.SourceMatchBID == sourceID:
		target.TeamBID = teamID
	default:
		return
	}
	res.touch(target)
}

// isFirstFinals reports whether m is the first finals of a bracket that
// carries a true-finals rematch (FINALS round, depth 1).
func (p *Progressor) isFirstFinals(m *models.Match) bool {
	r, ok := p.rounds[m.RoundID]
	if !ok || r.BracketType == nil || *r.BracketType != models.BracketFinals {
		return false
	}
	return r.Depth != nil && *r.Depth == 1 && m.NextMatchID != nil
}

// advanceFinals handles the bracket reset. Team A of the first finals is
// the winner-bracket champion; if team B (the loser-bracket champion)
// wins, both play again in the depth-0 match. Otherwise the rematch is
// closed out with the champion preset.
func (p *Progressor) advanceFinals(m *models.Match, res *AdvanceResult) {
	target, ok := p.matches[*m.NextMatchID]
	if !ok {
		return
	}
	loserWon := m.TeamBID != nil && m.WinnerID != nil && *m.WinnerID == *m.TeamBID
	if loserWon {
		target.TeamAID = m.LoserID()
		target.TeamBID = m.WinnerID
		target.IsBye = false
		target.WinnerID = nil
		res.BracketReset = true
	} else {
		target.TeamAID = m.WinnerID
		target.TeamBID = nil
		target.IsBye = true
		target.WinnerID = m.WinnerID
	}
	res.touch(target)
}

// SettleByes runs the structural cascade over the whole bracket without
// waiting for a played result: preset bye winners move into their
// downstream slots, and matches both of whose feeds can never deliver a
// team collapse into byes themselves. Call it once right after the
// bracket is generated.
func (p *Progressor) SettleByes() *AdvanceResult {
	res := &AdvanceResult{}
	p.resolveByes(res)
	return res
}

// resolveByes repeatedly advances matches whose result is structural: a
// preset bye, or a match left with only one possible team because a
// feeding slot can never arrive (its source was a bye, and byes have no
// loser to drop).
func (p *Progressor) resolveByes(res *AdvanceResult) {
	for {
		progressed := false
		for _, m := range p.sortedMatches() {
			if m.WinnerID == nil && !m.IsBye {
				if p.convertToBye(m, res) {
					progressed = true
				}
				continue
			}
			if m.WinnerID == nil {
				continue
			}
			if p.isFirstFinals(m) {
				// Finals resets are never structural.
				continue
			}
			if p.pendingDownstream(m) {
				p.placeWinner(m, res)
				p.placeLoser(m, res)
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// convertToBye turns a match into a bye when a feeding slot can never be
// filled: its source is a bye dropping a loser that does not exist, or a
// match that itself went empty the same way. A match with both feeds
// impossible becomes an empty bye so downstream slots resolve too.
func (p *Progressor) convertToBye(m *models.Match, res *AdvanceResult) bool {
	aImpossible := m.TeamAID == nil && p.slotImpossible(m, m.SourceMatchAID)
	bImpossible := m.TeamBID == nil && p.slotImpossible(m, m.SourceMatchBID)

	switch {
	case aImpossible && bImpossible:
		m.IsBye = true
	case m.TeamAID != nil && m.TeamBID == nil && bImpossible:
		m.IsBye = true
		m.WinnerID = m.TeamAID
	case m.TeamBID != nil && m.TeamAID == nil && aImpossible:
		m.IsBye = true
		m.TeamAID = m.TeamBID
		m.TeamBID = nil
		m.WinnerID = m.TeamAID
	default:
		return false
	}
	res.touch(m)
	return true
}

// slotImpossible reports whether a team can still arrive in the slot fed
// by sourceID.
func (p *Progressor) slotImpossible(m *models.Match, sourceID *string) bool {
	if sourceID == nil {
		return false
	}
	source, ok := p.matches[*sourceID]
	if !ok {
		return false
	}
	if source.IsBye && source.TeamAID == nil && source.TeamBID == nil {
		// The source itself went empty; nothing will ever come out.
		return true
	}
	if source.IsBye {
		// A bye's winner still advances, but it has no loser to drop.
		return source.NextLoserMatchID != nil && *source.NextLoserMatchID == m.ID
	}
	return false
}

// pendingDownstream reports whether a decided match still has its winner
// or loser missing from a downstream slot.
func (p *Progressor) pendingDownstream(m *models.Match) bool {
	if m.NextMatchID != nil {
		if t, ok := p.matches[*m.NextMatchID]; ok && !slotFilled(t, m.ID, m.WinnerID) {
			return true
		}
	}
	if m.NextLoserMatchID != nil {
		if loser := m.LoserID(); loser != nil {
			if t, ok := p.matches[*m.NextLoserMatchID]; ok && !slotFilled(t, m.ID, loser) {
				return true
			}
		}
	}
	return false
}

func slotFilled(target *models.Match, sourceID string, teamID *string) bool {
	if teamID == nil {
		return true
	}
	if target.SourceMatchAID != nil && *target.SourceMatchAID == sourceID {
		return target.TeamAID != nil && *target.TeamAID == *teamID
	}
	if target.SourceMatchBID != nil && *target.SourceMatchBID == sourceID {
		return target.TeamBID != nil && *target.TeamBID == *teamID
	}
	return true
}

// CascadeWinnerChange replays the bracket after a reopened match flips
// its winner: every downstream slot is recomputed from its feeding
// match's current result, results the change invalidates are cleared
// further on, and structural byes re-resolve against the new teams.
func (p *Progressor) CascadeWinnerChange(matchID string) *AdvanceResult {
	res := &AdvanceResult{}
	p.recompute(matchID, res)
	p.resolveByes(res)
	return res
}

// ClearDownstream removes a withdrawn result from every slot it reached,
// used when a match is reopened with no replacement result yet. Both the
// winner and the loser drop are withdrawn.
func (p *Progressor) ClearDownstream(matchID string) *AdvanceResult {
	res := &AdvanceResult{}
	p.recompute(matchID, res)
	return res
}

// recompute walks the feed-out pointers of matchID, re-deriving each
// downstream slot from what its source match currently delivers. A child
// whose slots change loses any recorded result, which recurses.
func (p *Progressor) recompute(matchID string, res *AdvanceResult) {
	m, ok := p.matches[matchID]
	if !ok {
		return
	}
	childIDs := make(map[string]bool, 2)
	if m.NextMatchID != nil {
		childIDs[*m.NextMatchID] = true
	}
	if m.NextLoserMatchID != nil {
		childIDs[*m.NextLoserMatchID] = true
	}
	for id := range childIDs {
		if child, ok := p.matches[id]; ok {
			p.recomputeChild(child, res)
		}
	}
}

func (p *Progressor) recomputeChild(child *models.Match, res *AdvanceResult) {
	if child.SourceMatchAID == nil && child.SourceMatchBID == nil {
		return
	}
	if p.isResetMatch(child) {
		p.recomputeReset(child, res)
		return
	}

	newA := p.deliveredTeam(child, child.SourceMatchAID)
	newB := p.deliveredTeam(child, child.SourceMatchBID)
	if equalID(child.TeamAID, newA) && equalID(child.TeamBID, newB) {
		return
	}

	child.TeamAID, child.TeamBID = newA, newB
	// Any bye conversion or recorded result was built on the old slots.
	child.IsBye = false
	child.WinnerID = nil
	child.ForfeitTeam = nil
	res.touch(child)
	p.recompute(child.ID, res)
}

// deliveredTeam returns the team the source match currently sends into
// the child's slot: its winner on the winner feed, its loser on the drop.
func (p *Progressor) deliveredTeam(child *models.Match, sourceID *string) *string {
	if sourceID == nil {
		return nil
	}
	source, ok := p.matches[*sourceID]
	if !ok {
		return nil
	}
	if source.NextMatchID != nil && *source.NextMatchID == child.ID {
		return source.WinnerID
	}
	if source.NextLoserMatchID != nil && *source.NextLoserMatchID == child.ID {
		return source.LoserID()
	}
	return nil
}

// isResetMatch identifies the true-finals rematch, whose both slots feed
// from the same match.
func (p *Progressor) isResetMatch(child *models.Match) bool {
	return child.SourceMatchAID != nil && child.SourceMatchBID != nil &&
		*child.SourceMatchAID == *child.SourceMatchBID
}

// recomputeReset replays the true-finals branch after the first finals
// changes: a winner re-runs the reset decision, no winner empties it.
func (p *Progressor) recomputeReset(child *models.Match, res *AdvanceResult) {
	source, ok := p.matches[*child.SourceMatchAID]
	if !ok {
		return
	}
	if source.WinnerID == nil {
		if child.TeamAID == nil && child.TeamBID == nil && child.WinnerID == nil {
			return
		}
		child.TeamAID, child.TeamBID = nil, nil
		child.IsBye = false
		child.WinnerID = nil
		child.ForfeitTeam = nil
		res.touch(child)
		return
	}
	child.ForfeitTeam = nil
	p.advanceFinals(source, res)
}

func equalID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// sortedMatches returns the matches in a stable order so propagation is
// deterministic regardless of map iteration.
func (p *Progressor) sortedMatches() []*models.Match {
	out := make([]*models.Match, 0, len(p.matches))
	for _, m := range p.matches {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := p.rounds[out[i].RoundID], p.rounds[out[j].RoundID]
		if ri != nil && rj != nil && ri.Idx != rj.Idx {
			return ri.Idx < rj.Idx
		}
		if out[i].BracketPosition != out[j].BracketPosition {
			return out[i].BracketPosition < out[j].BracketPosition
		}
		return out[i].ID < out[j].ID
	})
	return out
}
