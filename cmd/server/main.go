package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/holdfast/internal/auth"
	"github.com/freeeve/holdfast/internal/config"
	"github.com/freeeve/holdfast/internal/handler"
	"github.com/freeeve/holdfast/internal/logger"
	"github.com/freeeve/holdfast/internal/middleware"
	"github.com/freeeve/holdfast/internal/repository/postgres"
	redisrepo "github.com/freeeve/holdfast/internal/repository/redis"
	"github.com/freeeve/holdfast/internal/service"
	"github.com/freeeve/holdfast/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Options{})
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.Init(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File, Dev: cfg.DevMode})
	log.Info().Str("port", cfg.Port).Bool("devMode", cfg.DevMode).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Tracing setup failed")
	}

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Timer keys expire into keyspace events; the poller covers servers that refuse this.
	if err := redisClient.Underlying().ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (falling back to polling)")
	}

	// Repos
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)
	turnRepo := postgres.NewTurnRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(cfg.Google)

	wsHub := handler.NewHub()

	// Services
	locks := &service.GameLocks{}
	gameSvc := service.NewGameService(gameRepo, turnRepo, redisClient, cfg.Game)
	turnSvc := service.NewTurnService(gameRepo, turnRepo, redisClient, wsHub, locks)
	intentSvc := service.NewIntentService(gameRepo, turnRepo, redisClient, locks)
	timerListener := service.NewTimerListener(redisClient.Underlying(), turnSvc, turnRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, userRepo, cfg.DevMode)
	userHandler := handler.NewUserHandler(userRepo)
	gameHandler := handler.NewGameHandler(gameSvc, turnSvc, wsHub)
	intentHandler := handler.NewIntentHandler(intentSvc, turnSvc, wsHub)
	turnHandler := handler.NewTurnHandler(turnSvc)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("DELETE /games/{id}", gameHandler.DeleteGame)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	api.HandleFunc("POST /games/{id}/intents", intentHandler.SubmitIntent)
	api.HandleFunc("GET /games/{id}/snapshot", turnHandler.Snapshot)
	api.HandleFunc("GET /games/{id}/turns", turnHandler.ListTurns)
	api.HandleFunc("GET /games/{id}/turns/{number}", turnHandler.GetTurn)
	api.HandleFunc("GET /games/{id}/leaders", turnHandler.Leaders)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", auth.Middleware(jwtMgr)(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	root := middleware.Chain(mux, middleware.Recover, middleware.Logger, middleware.CORS(cfg.CORSOrigin), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Rehydrate Redis from Postgres after a restart.
	if err := turnSvc.RecoverActiveGames(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}
	go timerListener.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Tracing shutdown error")
	}
	log.Info().Msg("Server stopped")
}
