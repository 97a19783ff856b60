// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

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

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/sparkdhq/sparkd-backend/internal/auth"
	"github.com/sparkdhq/sparkd-backend/internal/common/database"
	"github.com/sparkdhq/sparkd-backend/internal/config"
	"github.com/sparkdhq/sparkd-backend/internal/matching"
	"github.com/sparkdhq/sparkd-backend/internal/profile"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting Sparkd Matching API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load and validate configuration
	log.Println("\n📋 Step 2: Loading configuration...")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed:", err)
	}
	log.Println("✅ Configuration loaded and valid")

	// 3. Connect to PostgreSQL
	log.Println("\n🗄️  Step 3: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL successfully")

	// 4. Connect to Redis (optional)
	log.Println("\n📮 Step 4: Connecting to Redis...")
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), using in-memory recommendation cache", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("✅ Connected to Redis successfully")
		}
	} else {
		log.Println("⚠️  Redis URL not configured, using in-memory recommendation cache")
	}

	// 5. Run database migrations
	log.Println("\n🔨 Step 5: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Fatal("❌ Failed to run migrations: ", err)
	}
	log.Println("✅ Database migrations completed")

	// 6. Initialize stores
	log.Println("\n🗃️  Step 6: Initializing stores...")
	profileStore := profile.NewPostgresStore(db)
	interactionStore := matching.NewPostgresStore(db)
	log.Println("✅ Stores initialized")

	// 7. Initialize recommendation cache
	log.Println("\n🧠 Step 7: Initializing recommendation cache...")
	var cache matching.RecommendationCache
	if redisClient != nil {
		cache = matching.NewRedisCache(redisClient, cfg.RotationDepth)
		log.Println("   ✅ Using Redis recommendation cache")
	} else {
		cache = matching.NewMemoryCache(cfg.RotationDepth, nil)
		log.Println("   ⚠️  Using in-memory recommendation cache (single instance only)")
	}

	// 8. Initialize matching system
	log.Println("\n💘 Step 8: Initializing matching system...")

	hub := matching.NewHub()
	go hub.Run()

	statsProvider := matching.NewStatsProvider(interactionStore)

	matchingService := matching.NewService(
		profileStore,
		interactionStore,
		cache,
		statsProvider,
		hub,
		matching.ServiceConfig{
			Weights: matching.ScoreWeights{
				Interests:   cfg.InterestWeight,
				Age:         cfg.AgeWeight,
				Proximity:   cfg.ProximityWeight,
				Activity:    cfg.ActivityWeight,
				Reciprocity: cfg.ReciprocityWeight,
			},
			NewUserBoost:     cfg.NewUserBoost,
			UnderLikedBoost:  cfg.UnderLikedBoost,
			OnboardingWindow: cfg.OnboardingWindow,
			InactivityWindow: cfg.InactivityWindow,
			CacheTTL:         cfg.CacheTTL,
			DefaultPageSize:  cfg.DefaultPageSize,
			MaxPageSize:      cfg.MaxPageSize,
			CandidatePool:    cfg.CandidatePool,
			ScoringTimeout:   cfg.ScoringTimeout,
		},
	)
	matchingHandler := matching.NewHandler(matchingService)
	log.Println("✅ Matching system initialized")

	// 9. Start background jobs
	log.Println("\n⏰ Step 9: Starting background jobs...")
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	scheduler := matching.NewScheduler(statsProvider, cfg.StatsRefreshInterval)
	scheduler.Start(jobCtx)
	log.Println("✅ Population stats aggregation job started")

	// 10. Set up routes
	log.Println("\n🛣️  Step 10: Setting up routes...")
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
	matching.RegisterRoutes(router, matchingHandler, hub, authMiddleware)
	log.Println("✅ Routes registered")

	// 11. Start HTTP server with graceful shutdown
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("\n🌐 Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("❌ Server forced to shutdown:", err)
	}

	log.Println("✅ Server stopped")
}

// runMigrations creates the tables and constraints the matching core relies
// on. The (actor_id, target_id) primary key gives swipes their overwrite
// semantics; the (user_low, user_high) unique constraint is the match
// creation race arbiter.
func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id BIGSERIAL PRIMARY KEY,
			display_name TEXT NOT NULL,
			birth_date DATE NOT NULL,
			gender TEXT NOT NULL,
			interests TEXT[] NOT NULL DEFAULT '{}',
			location_lat DOUBLE PRECISION,
			location_lng DOUBLE PRECISION,
			last_active TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			engagement_rate DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS preferences (
			user_id BIGINT PRIMARY KEY REFERENCES profiles(id),
			min_age INT NOT NULL DEFAULT 18,
			max_age INT NOT NULL DEFAULT 100,
			preferred_gender TEXT NOT NULL DEFAULT 'any',
			max_distance_km DOUBLE PRECISION NOT NULL DEFAULT 100,
			dealbreaker_tags TEXT[] NOT NULL DEFAULT '{}'
		)`,

		`CREATE TABLE IF NOT EXISTS swipes (
			actor_id BIGINT NOT NULL REFERENCES profiles(id),
			target_id BIGINT NOT NULL REFERENCES profiles(id),
			action TEXT NOT NULL CHECK (action IN ('like', 'super_like', 'pass')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (actor_id, target_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_swipes_target ON swipes (target_id, action)`,

		`CREATE TABLE IF NOT EXISTS matches (
			id UUID PRIMARY KEY,
			user_low BIGINT NOT NULL REFERENCES profiles(id),
			user_high BIGINT NOT NULL REFERENCES profiles(id),
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'unmatched', 'blocked')),
			matched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_low, user_high),
			CHECK (user_low < user_high)
		)`,

		`CREATE TABLE IF NOT EXISTS blocks (
			blocker_id BIGINT NOT NULL REFERENCES profiles(id),
			blocked_id BIGINT NOT NULL REFERENCES profiles(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (blocker_id, blocked_id)
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
