// Package lineups enforces lineup composition: four ordered slots per team
// per match, men in slots 0-1 and women in slots 2-3, no player twice.
// Rules are enforced at assignment time so invalid intermediate states can
// never be persisted.
package lineups

import (
	"errors"
	"fmt"

	"github.com/matchplay/tournament-system/models"
)

var (
	ErrGenderMismatch  = errors.New("player gender does not match the slot")
	ErrSlotOutOfRange  = errors.New("lineup slot index out of range")
	ErrPlayerNotListed = errors.New("player is not on the team roster")
)

// ErrInsufficientRoster is the sentinel for InsufficientRosterError.
var ErrInsufficientRoster = errors.New("roster does not meet the gender minimum")

// MinPerGender is the roster floor per gender: two men's slots and two
// women's slots have to be fillable.
const MinPerGender = 2

// InsufficientRosterError reports which gender a roster is short on.
type InsufficientRosterError struct {
	Gender models.Gender
	Count  int
}

func (e *InsufficientRosterError) Error() string {
	return fmt.Sprintf("roster needs at least %d %s players, has %d", MinPerGender, e.Gender, e.Count)
}

func (e *InsufficientRosterError) Is(target error) bool {
	return target == ErrInsufficientRoster
}

// Lineup is the in-memory working copy of a team's four slots:
// [Man1, Man2, Woman1, Woman2]. Nil means unfilled.
type Lineup [models.LineupSize]*models.Player

// ExpectedGenderForSlot: slots 0-1 are men's, 2-3 women's.
func ExpectedGenderForSlot(slotIndex int) models.Gender {
	if slotIndex <= 1 {
		return models.GenderMale
	}
	return models.GenderFemale
}

// ValidateRoster requires at least two players of each gender before
// lineup editing is allowed at all.
func ValidateRoster(roster []models.Player) error {
	var men, women int
	for _, p := range roster {
		switch p.Gender {
		case models.GenderMale:
			men++
		case models.GenderFemale:
			women++
		}
	}
	if men < MinPerGender {
		return &InsufficientRosterError{Gender: models.GenderMale, Count: men}
	}
	if women < MinPerGender {
		return &InsufficientRosterError{Gender: models.GenderFemale, Count: women}
	}
	return nil
}

// AvailablePlayers lists the roster players eligible for a slot: the
// expected gender, minus anyone already placed in a different slot. The
// current occupant stays offered so re-selecting is a no-op.
func AvailablePlayers(roster []models.Player, lineup Lineup, slotIndex int) []models.Player {
	if slotIndex < 0 || slotIndex >= models.LineupSize {
		return nil
	}
	want := ExpectedGenderForSlot(slotIndex)
	available := make([]models.Player, 0, len(roster))
	for _, p := range roster {
		if p.Gender != want {
			continue
		}
		taken := false
		for i, placed := range lineup {
			if i != slotIndex && placed != nil && placed.ID == p.ID {
				taken = true
				break
			}
		}
		if !taken {
			available = append(available, p)
		}
	}
	return available
}

// Assign places a player in a slot, displacing them from any other slot
// they occupy. Wrong-gender players are rejected outright.
func (l *Lineup) Assign(slotIndex int, player models.Player) error {
	if slotIndex < 0 || slotIndex >= models.LineupSize {
		return ErrSlotOutOfRange
	}
	if player.Gender != ExpectedGenderForSlot(slotIndex) {
		return fmt.Errorf("%w: slot %d expects %s", ErrGenderMismatch, slotIndex, ExpectedGenderForSlot(slotIndex))
	}
	for i, placed := range l {
		if i != slotIndex && placed != nil && placed.ID == player.ID {
			l[i] = nil
		}
	}
	p := player
	l[slotIndex] = &p
	return nil
}

// Unassign clears a slot.
func (l *Lineup) Unassign(slotIndex int) error {
	if slotIndex < 0 || slotIndex >= models.LineupSize {
		return ErrSlotOutOfRange
	}
	l[slotIndex] = nil
	return nil
}

// Complete reports whether all four slots are filled. The gender invariant
// holds by construction, Assign never lets a violation in.
func (l Lineup) Complete() bool {
	for _, p := range l {
		if p == nil {
			return false
		}
	}
	return true
}

// FromEntries rebuilds the working lineup from persisted entry rows.
func FromEntries(entries []models.LineupEntry) Lineup {
	var l Lineup
	for _, e := range entries {
		if e.SlotIndex >= 0 && e.SlotIndex < models.LineupSize && e.Player != nil {
			p := *e.Player
			l[e.SlotIndex] = &p
		}
	}
	return l
}
