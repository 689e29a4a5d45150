package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	adapterHTTP "github.com/habitup/habitup-engine/internal/adapters/handler/http"
	"github.com/habitup/habitup-engine/internal/adapters/cache"
	"github.com/habitup/habitup-engine/internal/adapters/insight"
	"github.com/habitup/habitup-engine/internal/adapters/repository"
	"github.com/habitup/habitup-engine/internal/core/domain"
	"github.com/habitup/habitup-engine/internal/core/flow"
	"github.com/habitup/habitup-engine/internal/core/services"
	"github.com/habitup/habitup-engine/internal/core/workers"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var db *sqlx.DB
	var profileRepo domain.ProfileRepository

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		log.Println("DB_HOST not set, using in-memory profile store (profiles will not survive restarts)")
		profileRepo = repository.NewInMemoryProfileRepository()
	} else {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
			dbHost, env("DB_PORT", "5432"), os.Getenv("DB_NAME"))

		log.Println("Connecting to database...")

		var err error
		db, err = sqlx.Connect("pgx", dsn)
		if err != nil {
			log.Fatalf("Critical: Failed to connect to database: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		log.Println("Database connected successfully.")

		profileRepo = repository.NewPostgresProfileRepository(db)
	}

	var rdb *redis.Client
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		var err error
		rdb, err = cache.NewRedisClient(redisHost, env("REDIS_PORT", "6379"), os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			log.Printf("Redis unavailable, continuing without cache and rate limiting: %v", err)
			rdb = nil
		} else {
			profileRepo = repository.NewCachedProfileRepository(profileRepo, rdb)
		}
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatalf("Critical: GEMINI_API_KEY is required")
	}

	generator, err := insight.NewGeminiGenerator(ctx, apiKey, os.Getenv("GEMINI_MODEL"))
	if err != nil {
		log.Fatalf("Critical: Failed to create insight generator: %v", err)
	}

	// Federated providers are opt-in; unset providers fall back to the
	// per-session shadow-credential shim.
	providers := map[string]string{}
	if url := os.Getenv("OAUTH_GOOGLE_URL"); url != "" {
		providers["google"] = url
	}
	if url := os.Getenv("OAUTH_APPLE_URL"); url != "" {
		providers["apple"] = url
	}

	authService := services.NewAuthService(profileRepo, providers)
	tokenService := services.NewTokenService(
		env("JWT_SECRET", "dev-secret-change-me"),
		env("JWT_ISSUER", "habitup-engine"),
		72*time.Hour,
		profileRepo,
	)
	insightService := services.NewInsightService(generator)

	syncWorker := workers.NewSyncWorker(profileRepo)
	syncWorker.Start(ctx)

	registry := flow.NewRegistry(insightService, syncWorker)
	registry.Start(ctx)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:  adapterHTTP.NewAuthHandler(authService, tokenService),
		FlowHandler:  adapterHTTP.NewFlowHandler(registry),
		TaskHandler:  adapterHTTP.NewTaskHandler(),
		TokenService: tokenService,
		Registry:     registry,
		ProfileRepo:  profileRepo,
		DB:           db,
		Redis:        rdb,
		StartTime:    startTime,
	})

	srv := &http.Server{
		Addr:         ":" + env("PORT", "8080"),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("HabitUp Engine running on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
