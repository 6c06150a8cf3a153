package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nenegana-backend/internal/config"
	"nenegana-backend/internal/database"
	"nenegana-backend/internal/handlers"
	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/middleware"
	"nenegana-backend/internal/repository"
	"nenegana-backend/internal/router"
	"nenegana-backend/internal/services"
	"nenegana-backend/internal/speech"
	"nenegana-backend/internal/websocket"
	"nenegana-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting nenegana backend", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: PostgreSQL ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := database.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	// ──── Step 3: Redis ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("redis connected")

	// ──── Step 4: Speech ────
	var recognizer speech.Recognizer
	if cfg.SpeechEnabled {
		google, err := speech.NewGoogleRecognizer(ctx, speech.GoogleConfig{LanguageCode: cfg.SpeechLanguage}, log)
		if err != nil {
			log.Fatal("speech client initialization failed", "error", err)
		}
		defer google.Close()
		recognizer = google
		log.Info("speech recognition enabled", "language", cfg.SpeechLanguage)
	} else {
		log.Info("speech recognition disabled, text input only")
	}
	listener := speech.NewListener(recognizer, cfg.SpeechTimeout, log)

	// ──── Repositories & Services ────
	playerRepo := repository.NewPlayerRepo(pool)
	attemptRepo := repository.NewAttemptRepo(pool)
	sessionStore := repository.NewSessionStore(redisClients.Queue, cfg.QuizSessionTTL)
	broker := services.NewBroker(redisClients.PubSub)

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(playerRepo, jwtAuth)
	quizService := services.NewQuizService(sessionStore, broker, listener, cfg.QuizDefaultQuestions, log)

	// ──── Step 5: Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, attemptRepo, services.NewBroker(redisClients.Queue), cfg.WorkerCount, log)
	workerPool.Start()

	// ──── Step 6: WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, cfg.FrontendURL, log)

	// ──── Step 7: HTTP Server ────
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	r := router.New(jwtAuth, authLimiter, router.Handlers{
		Auth:     handlers.NewAuthHandler(authService, log),
		Kana:     handlers.NewKanaHandler(),
		Quiz:     handlers.NewQuizHandler(quizService, log),
		Attempts: handlers.NewAttemptHandler(attemptRepo, log),
		WS:       wsHub.HandleWebSocket,
	}, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		wsHub.Close()
		workerPool.Stop()
		authLimiter.Stop()
	}()

	log.Info("nenegana backend ready", "addr", server.Addr, "api", "/api/v1", "ws", "/api/v1/ws")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", "error", err)
	}
	<-shutdownDone
}
