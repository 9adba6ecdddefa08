package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raid-reserve/internal/admin/admin_api"
	"raid-reserve/internal/auth"
	"raid-reserve/internal/config"
	"raid-reserve/internal/database/migrations"
	"raid-reserve/internal/kafka"
	"raid-reserve/internal/logger"
	"raid-reserve/internal/metrics"
	"raid-reserve/internal/reservation"
	"raid-reserve/internal/reservation/db"
	"raid-reserve/internal/reservation/reservation_api"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func openDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	if dsn := cfg.Database.PostgresDSN; dsn != "" {
		var sqldb *sql.DB
		var err error
		maxRetries := 5

		for i := 0; i < maxRetries; i++ {
			log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
			sqldb, err = sql.Open("postgres", dsn)
			if err == nil {
				err = sqldb.Ping()
				if err == nil {
					break
				}
			}
			log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
			if i < maxRetries-1 {
				time.Sleep(2 * time.Second)
			}
		}
		if err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
		}
		log.Info("DATABASE", "✅ PostgreSQL connection successful")

		bunDB := bun.NewDB(sqldb, pgdialect.New())

		runner := migrations.NewRunner(bunDB, "./migrations")
		if err := runner.Up(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
		return bunDB
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.SQLitePath)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open SQLite store %q: %v", cfg.Database.SQLitePath, err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ SQLite store opened at %s", cfg.Database.SQLitePath))
	return bun.NewDB(sqldb, sqlitedialect.New())
}

func sessionSecret(cfg *config.Config, log *logger.Logger) []byte {
	if cfg.Session.Secret != "" {
		return []byte(cfg.Session.Secret)
	}
	// Random per-process secret. Markers stop verifying across restarts.
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Failed to generate session secret: %v", err))
	}
	log.Warn("CONFIG", "SESSION_SECRET not set, using a random per-process secret")
	return []byte(hex.EncodeToString(buf))
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting raid reservation service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Unknown timezone %q: %v", cfg.Timezone, err))
	}

	if cfg.Admin.Key == "" {
		log.Warn("CONFIG", "ADMIN_KEY not set, admin login is disabled")
	}
	if cfg.Admin.Path == "" {
		log.Fatal("CONFIG", "ADMIN_PATH not set")
	}

	bunDB := openDatabase(cfg, log)
	defer bunDB.Close()

	store := &db.DB{Bun: bunDB}
	if cfg.Database.PostgresDSN == "" {
		if err := store.CreateTables(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Failed to create tables: %v", err))
		}
	}

	var sessions auth.SessionStore
	if cfg.Redis.Addr != "" {
		redisStore, err := auth.InitializeRedisStore(cfg.Redis.Addr, log)
		if err != nil {
			log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		log.Info("REDIS", "REDIS_ADDR not set, using in-memory admin session store")
		sessions = auth.NewMemoryStore()
	}

	var events reservation.EventPublisher = kafka.NoopPublisher{}
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicExists(cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for topic %s", cfg.Kafka.Topic))
	}

	authManager := auth.NewManager(sessionSecret(cfg, log), sessions, loc)
	service := reservation.NewService(store, events, log, loc)

	viewerHandler := &reservation_api.Handler{
		Service: service,
		Auth:    authManager,
		Logger:  log,
	}
	adminHandler := &admin_api.Handler{
		Service:   service,
		Auth:      authManager,
		AdminKey:  cfg.Admin.Key,
		AdminBase: cfg.AdminBase(),
		Logger:    log,
	}

	log.Info("HTTP", "Setting up router")
	r := chi.NewRouter()

	viewerHandler.RegisterRoutes(r)
	adminHandler.RegisterRoutes(r)
	log.Info("ROUTER", fmt.Sprintf("Admin routes registered under %s", cfg.AdminBase()))

	// The obvious guess stays a 404. The real panel lives under the
	// configured path segment.
	if cfg.Admin.Path != "admin" {
		r.HandleFunc("/admin", http.NotFound)
		r.HandleFunc("/admin/*", http.NotFound)
	}

	r.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Raid reservation service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Raid reservation service shutdown complete")
	}
}
