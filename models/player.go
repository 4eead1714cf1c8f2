package models

import "time"

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type Player struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Gender    Gender    `json:"gender" db:"gender"`
	Rating    *float64  `json:"rating,omitempty" db:"rating"`
	ClubID    *string   `json:"club_id,omitempty" db:"club_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Club *Club `json:"club,omitempty" db:"-"`
}
