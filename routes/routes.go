package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matchplay/tournament-system/handlers"
	"github.com/matchplay/tournament-system/middleware"
)

// SetupRoutes wires every handler onto the router. Reads are public,
// mutations require a manager token.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	stopHandler *handlers.StopHandler,
	matchHandler *handlers.MatchHandler,
	lineupHandler *handlers.LineupHandler,
	clubHandler *handlers.ClubHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.With(auth.Authenticate).Get("/auth/me", authHandler.Me)

	router.Get("/ws/stops/{stopID}", webSocketHandler.ServeStop)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.GetByID)
		r.Get("/{tournamentID}/teams", tournamentHandler.ListTeams)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize("manager", "admin"))

			r.Post("/", tournamentHandler.Create)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)
			r.Post("/{tournamentID}/teams", tournamentHandler.AddTeam)
			r.Put("/{tournamentID}/seeds", tournamentHandler.AssignSeeds)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize("manager", "admin"))

			r.Put("/{teamID}", tournamentHandler.UpdateTeam)
			r.Post("/{teamID}/logo", tournamentHandler.UploadTeamLogo)
			r.Delete("/{teamID}", tournamentHandler.RemoveTeam)
		})
	})

	router.Route("/stops", func(r chi.Router) {
		r.Get("/{stopID}", stopHandler.GetFull)
		r.Get("/{stopID}/duplicates", stopHandler.FindDuplicateMatchups)
		r.Get("/{stopID}/teams/{teamID}/roster", stopHandler.GetRoster)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize("manager", "admin"))

			r.Post("/", stopHandler.Create)
			r.Patch("/{stopID}", stopHandler.Update)
			r.Delete("/{stopID}", stopHandler.Delete)
			r.Post("/{stopID}/bracket", stopHandler.GenerateBracket)
			r.Put("/{stopID}/bracket", stopHandler.RegenerateBracket)
			r.Put("/{stopID}/teams/{teamID}/roster", stopHandler.SetRoster)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize("manager", "admin"))

			r.Post("/{matchID}/complete", matchHandler.Complete)
			r.Post("/{matchID}/forfeit", matchHandler.Forfeit)
			r.Post("/{matchID}/decide-by-points", matchHandler.DecideByPoints)
			r.Post("/{matchID}/tiebreaker", matchHandler.ScheduleTiebreaker)
		})
	})

	router.Route("/games", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize("manager", "admin"))

			r.Post("/{gameID}/start", matchHandler.StartGame)
			r.Put("/{gameID}/score", matchHandler.UpdateGameScore)
			r.Post("/{gameID}/end", matchHandler.EndGame)
			r.Post("/{gameID}/reopen", matchHandler.ReopenGame)
			r.Put("/{gameID}/court", matchHandler.SetGameCourt)
		})
	})

	router.Route("/rounds/{roundID}", func(r chi.Router) {
		r.Get("/lineups", lineupHandler.ListByRound)

		r.Route("/teams/{teamID}/lineup", func(r chi.Router) {
			r.Get("/", lineupHandler.Get)
			r.Get("/available", lineupHandler.AvailablePlayers)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Use(auth.Authorize("manager", "admin"))

				r.Put("/", lineupHandler.Submit)
				r.Delete("/", lineupHandler.Clear)
			})
		})
	})

	router.Route("/clubs", func(r chi.Router) {
		r.Get("/", clubHandler.List)
		r.Get("/{clubID}", clubHandler.GetByID)
		r.Get("/{clubID}/players", clubHandler.ListPlayers)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize("manager", "admin"))

			r.Post("/", clubHandler.Create)
			r.Delete("/{clubID}", clubHandler.Delete)
			r.Post("/{clubID}/logo", clubHandler.UploadLogo)
			r.Post("/{clubID}/players", clubHandler.AddPlayer)
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize("manager", "admin"))

			r.Delete("/{playerID}", clubHandler.RemovePlayer)
		})
	})
}
