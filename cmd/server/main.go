package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"fieldcare-dispatch-service/internal/adapters/cache"
	"fieldcare-dispatch-service/internal/adapters/distance"
	"fieldcare-dispatch-service/internal/adapters/repositories"
	"fieldcare-dispatch-service/internal/api"
	"fieldcare-dispatch-service/internal/config"
	"fieldcare-dispatch-service/internal/platform/db"
	"fieldcare-dispatch-service/internal/ports"
	"fieldcare-dispatch-service/internal/services"
)

// main is the application composition root. It wires concrete adapters
// (SQLite records, a tiered distance cache, the routing provider) behind
// ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatal(err)
	}
	if err := repositories.SeedFromJSON(conn, cfg.SeedPath); err != nil {
		log.Println(err)
	}

	// A missing API key is a soft degrade: the gateway refuses calls and
	// every estimate comes from the local haversine fallback.
	if strings.TrimSpace(cfg.ProviderAPIKey) == "" {
		log.Println("MAPS_API_KEY not set, travel times will use the local estimator")
	}
	gateway := distance.NewGateway(distance.Config{
		APIKey:         cfg.ProviderAPIKey,
		BaseURL:        cfg.ProviderBaseURL,
		CallsPerSecond: cfg.CallsPerSecond,
		CallsPerDay:    cfg.CallsPerDay,
	}, distance.NewBreaker())

	travel := services.NewTravelTimeService(gateway, distanceCache(cfg, conn))

	store := repositories.NewSqliteRecordStore(conn)
	generator := services.NewDraftRouteGenerator(store, travel, services.GeneratorConfig{
		OfficeOverride: cfg.OfficeOverride(),
		ConflictPolicy: services.ConflictPolicy(cfg.ConflictPolicy),
	})

	router := api.NewRouter(generator)

	// Timeouts are tuned for cold-cache draft generation (external API latency).
	log.Printf("Server listening addr=:%s", cfg.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}
	return conn, nil
}

// distanceCache picks the best available backend: Redis for multi-instance
// deployments, a shared Postgres table when DATABASE_URL is set, otherwise
// the local SQLite table. Failures fall through to the next tier.
func distanceCache(cfg *config.Config, conn *sql.DB) ports.DistanceCache {
	if cfg.RedisURL != "" {
		c, err := cache.NewRedisDistanceCache(cfg.RedisURL, 0)
		if err != nil {
			log.Printf("redis cache unavailable: %v", err)
		} else {
			return c
		}
	}

	if cfg.DBURL != "" {
		pg, err := db.Open(cfg.DBURL)
		if err != nil {
			log.Printf("postgres cache unavailable: %v", err)
		} else {
			return cache.NewSQLDistanceCache(pg)
		}
	}

	return cache.NewSqliteDistanceCache(conn)
}
