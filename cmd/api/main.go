package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lotsaero/rifa-backend/api/routes"
	"github.com/lotsaero/rifa-backend/internal/config"
	"github.com/lotsaero/rifa-backend/internal/engine"
	"github.com/lotsaero/rifa-backend/internal/handlers"
	"github.com/lotsaero/rifa-backend/internal/mirror"
	"github.com/lotsaero/rifa-backend/internal/models"
	mongorepo "github.com/lotsaero/rifa-backend/internal/repositories/mongodb"
	"github.com/lotsaero/rifa-backend/internal/services"
	"github.com/lotsaero/rifa-backend/internal/ws"
	"github.com/lotsaero/rifa-backend/pkg/mongodb"
	"github.com/lotsaero/rifa-backend/pkg/whatsapp"
)

func main() {
	// Missing .env is fine; configuration falls back to real env vars
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	mongoClient, err := mongodb.NewClient(connectCtx, cfg.MongoDB.URI)
	connectCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("error disconnecting from MongoDB")
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	raffleRepo := mongorepo.NewRaffleRepository(db, logger)
	adminUserRepo := mongorepo.NewAdminUserRepository(db)

	// Initial load is fatal on failure: without a document there is
	// nothing to serve.
	m := mirror.New(raffleRepo, cfg.Raffle.ID, logger)
	if err := m.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed initial raffle document load")
	}
	go func() {
		if err := m.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("mirror subscription ended")
		}
	}()

	clock := clockwork.NewRealClock()
	eng := engine.NewService(raffleRepo, m, cfg.Raffle, clock, logger)
	go eng.RunSweeper(ctx)

	handoff := whatsapp.NewHandoff(cfg.WhatsApp.Number)
	checkoutService := services.NewCheckoutService(eng, handoff, cfg.Raffle, logger)
	authService := services.NewAuthService(adminUserRepo, cfg, logger)

	if err := authService.EnsureBootstrapAdmin(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed bootstrap admin")
	}

	hub := ws.NewHub(logger)
	unsubscribe := m.Subscribe(func(*models.RaffleDocument) {
		hub.BroadcastState(eng.StateView())
	})
	defer unsubscribe()

	handlerDeps := routes.HandlerDependencies{
		AuthHandler:   handlers.NewAuthHandler(authService),
		RaffleHandler: handlers.NewRaffleHandler(eng, checkoutService, cfg),
		AdminHandler:  handlers.NewAdminHandler(eng),
		WSHandler:     ws.NewHandler(hub, eng, checkoutService, cfg.Raffle, logger),
	}

	router := routes.SetupRouter(cfg, logger, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting")
}
