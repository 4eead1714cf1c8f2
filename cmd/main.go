package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/matchplay/tournament-system/brackets"
	"github.com/matchplay/tournament-system/config"
	"github.com/matchplay/tournament-system/db"
	"github.com/matchplay/tournament-system/handlers"
	"github.com/matchplay/tournament-system/middleware"
	"github.com/matchplay/tournament-system/repositories"
	api "github.com/matchplay/tournament-system/routes"
	"github.com/matchplay/tournament-system/services"
	"github.com/matchplay/tournament-system/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	stopRepo := repositories.NewPostgresStopRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	clubRepo := repositories.NewPostgresClubRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	rosterRepo := repositories.NewPostgresRosterRepository(dbConn)
	lineupRepo := repositories.NewPostgresLineupRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		teamRepo,
		stopRepo,
		uploader,
		logger,
	)
	stopService := services.NewStopService(
		dbConn,
		stopRepo,
		roundRepo,
		matchRepo,
		gameRepo,
		teamRepo,
		rosterRepo,
		playerRepo,
		uploader,
		logger,
	)
	bracketService := services.NewBracketService(
		dbConn,
		tournamentRepo,
		stopRepo,
		roundRepo,
		matchRepo,
		gameRepo,
		teamRepo,
		stopService,
		wsHub,
		logger,
	)
	matchService := services.NewMatchService(
		dbConn,
		matchRepo,
		gameRepo,
		roundRepo,
		stopRepo,
		tournamentRepo,
		lineupRepo,
		wsHub,
		logger,
	)
	lineupService := services.NewLineupService(
		dbConn,
		lineupRepo,
		rosterRepo,
		roundRepo,
		stopRepo,
		matchRepo,
		logger,
	)
	clubService := services.NewClubService(clubRepo, playerRepo, uploader, logger)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	stopHandler := handlers.NewStopHandler(stopService, bracketService)
	matchHandler := handlers.NewMatchHandler(matchService)
	lineupHandler := handlers.NewLineupHandler(lineupService)
	clubHandler := handlers.NewClubHandler(clubService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		authHandler,
		tournamentHandler,
		stopHandler,
		matchHandler,
		lineupHandler,
		clubHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
