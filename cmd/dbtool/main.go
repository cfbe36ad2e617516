// dbtool initializes the dispatch schema and seeds demo records into the
// local SQLite database. When DATABASE_URL is set it also provisions the
// shared Postgres distance-cache table, which the server does not
// auto-migrate.
package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"fieldcare-dispatch-service/internal/adapters/cache"
	"fieldcare-dispatch-service/internal/adapters/repositories"
	"fieldcare-dispatch-service/internal/config"
	"fieldcare-dispatch-service/internal/platform/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	log.Println("Seeding database...")
	if err := repositories.SeedFromJSON(conn, cfg.SeedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")

	if cfg.DBURL != "" {
		log.Println("Provisioning shared distance cache...")
		pg, err := db.Open(cfg.DBURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		if err := cache.EnsureSchema(pg); err != nil {
			log.Fatalf("distance cache provisioning failed: %v", err)
		}
		log.Println("Distance cache ready.")
	}
}

func open(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", dbPath, err)
	}
	return conn, nil
}
