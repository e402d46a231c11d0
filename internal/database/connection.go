package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. PostgreSQL is used when
// DATABASE_URL is set, otherwise a local SQLite file under the data directory.
func Connect() error {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		db, err := sqlx.Connect("postgres", url)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
		DB = db
		return initializeSchema()
	}

	dbPath := os.Getenv("PEPEL_DB_PATH")
	if dbPath == "" {
		// Create data directory if it doesn't exist
		dataDir := "data"
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}
		dbPath = filepath.Join(dataDir, "pepel.db")
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// SQLite doesn't support multiple writers; a single connection keeps
	// concurrent inserts serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db

	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if DB.DriverName() == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	// Append-only log of check-in answers
	_, err := DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS responses (
			id %s,
			user_id BIGINT NOT NULL,
			username TEXT NOT NULL,
			level INTEGER NOT NULL,
			timestamp TEXT NOT NULL
		)
	`, idColumn))
	if err != nil {
		return fmt.Errorf("failed to create responses table: %v", err)
	}

	_, err = DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_responses_user_time
		ON responses (user_id, timestamp)
	`)
	if err != nil {
		return fmt.Errorf("failed to create responses index: %v", err)
	}

	// Known recipients for the weekly broadcast
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS subscribers (
			user_id BIGINT PRIMARY KEY
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create subscribers table: %v", err)
	}

	return nil
}
