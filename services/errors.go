package services

import "errors"

// Errors shared across services and the HTTP error mapping.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Auth.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrEmailTaken         = errors.New("email address is already in use")

	// Tournament and team setup.
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrTournamentTypeInvalid  = errors.New("invalid tournament type")
	ErrTeamNameRequired       = errors.New("team name is required")
	ErrSeedConflict           = errors.New("seed is already assigned to another team")
	ErrNotEnoughTeams         = errors.New("at least two seeded teams are required")

	// Bracket lifecycle.
	ErrBracketExists       = errors.New("bracket already generated for this stop")
	ErrBracketNotGenerated = errors.New("bracket has not been generated for this stop")

	// Lineups.
	ErrLineupDeadlinePassed = errors.New("lineup deadline has passed")
	ErrLineupLocked         = errors.New("lineup is locked because the match is decided")
	ErrMatchHasNoLineupTeam = errors.New("team does not play in this round")
)
