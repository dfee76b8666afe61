package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/studyhall/server/internal/adapters/http"
	"github.com/studyhall/server/internal/adapters/socket"
	"github.com/studyhall/server/internal/app"
	"github.com/studyhall/server/internal/auth"
	"github.com/studyhall/server/internal/config"
	"github.com/studyhall/server/internal/store/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	users := postgres.NewUsers(db)
	rooms := postgres.NewRooms(db)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	hub := socket.NewHub()
	tracker := app.NewTracker()
	registry := app.NewRegistry()
	lifecycle := &app.Lifecycle{
		Rooms:           rooms,
		Users:           users,
		Registry:        registry,
		Tracker:         tracker,
		Bcast:           hub,
		LeaveGrace:      cfg.LeaveGrace,
		DisconnectGrace: cfg.DisconnectGrace,
	}
	presence := &app.PresenceService{
		Registry:        registry,
		Tracker:         tracker,
		Lifecycle:       lifecycle,
		Users:           users,
		Rooms:           rooms,
		Dir:             rooms,
		Bcast:           hub,
		JoinThrottle:    cfg.JoinThrottle,
		MessageThrottle: cfg.MessageThrottle,
	}

	ws := &socket.Controller{
		Service:    presence,
		Verifier:   verifier,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}
	roomAPI := &router.RoomAPI{
		Users:     users,
		Rooms:     rooms,
		Dir:       rooms,
		Presence:  presence,
		Lifecycle: lifecycle,
	}

	r := router.SetupRouter(ctx, cfg, ws, roomAPI, verifier)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("studyhall server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
