package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/matchplay/tournament-system/lineups"
	"github.com/matchplay/tournament-system/scoring"
	"github.com/matchplay/tournament-system/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

// mapServiceErrorToHTTP translates service and engine errors into HTTP
// responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var decisionErr *scoring.InvalidDecisionStateError

	switch {
	case errors.Is(err, services.ErrNotFound):
		notFoundResponse(w, r)

	// Conflicts: the request is well-formed but collides with state.
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrSeedConflict),
		errors.Is(err, services.ErrBracketExists),
		errors.Is(err, scoring.ErrTiebreakerExists),
		errors.Is(err, scoring.ErrMatchTerminal):
		conflictResponse(w, r, err.Error())

	// Scoring state machine violations.
	case errors.As(err, &decisionErr),
		errors.Is(err, scoring.ErrTiedScore),
		errors.Is(err, scoring.ErrScoreOutOfRange),
		errors.Is(err, scoring.ErrGameAlreadyEnded),
		errors.Is(err, scoring.ErrGameNotInProgress),
		errors.Is(err, scoring.ErrGameNotComplete),
		errors.Is(err, scoring.ErrScoresMissing),
		errors.Is(err, scoring.ErrMatchNotReady),
		errors.Is(err, scoring.ErrOpponentMissing),
		errors.Is(err, scoring.ErrInvalidTeamSide):
		unprocessableResponse(w, r, err)

	// Lineup rule violations.
	case errors.Is(err, lineups.ErrGenderMismatch),
		errors.Is(err, lineups.ErrSlotOutOfRange),
		errors.Is(err, lineups.ErrPlayerNotListed),
		errors.Is(err, lineups.ErrInsufficientRoster),
		errors.Is(err, services.ErrMatchHasNoLineupTeam),
		errors.Is(err, services.ErrLineupLocked),
		errors.Is(err, services.ErrLineupDeadlinePassed):
		unprocessableResponse(w, r, err)

	// Validation and business rules.
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrTournamentNameRequired),
		errors.Is(err, services.ErrTournamentTypeInvalid),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrNotEnoughTeams),
		errors.Is(err, services.ErrBracketNotGenerated):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
