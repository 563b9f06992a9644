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

// Connect establishes a connection to the database. The backend is selected
// with the DB_TYPE environment variable: "sqlite" (default) keeps everything
// in a local file, "postgres" connects to DATABASE_URL.
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var db *sqlx.DB
	var err error

	switch dbType {
	case "sqlite":
		db, err = connectSQLite(os.Getenv("SQLITE_PATH"))
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	DB = db

	// Initialize schema
	return initializeSchema()
}

func connectSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		path = filepath.Join("data", "lexigo.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
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
	return createSchema(DB)
}

func createSchema(db *sqlx.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			active BOOLEAN DEFAULT true,
			notification_enabled BOOLEAN DEFAULT true,
			notification_hour INTEGER DEFAULT 9,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Create dictionary table (shared definition cache)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS dictionary (
			word TEXT PRIMARY KEY,
			definition TEXT NOT NULL,
			example TEXT NOT NULL,
			pronunciation TEXT,
			level TEXT,
			importance_rate TEXT,
			synonyms TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create dictionary table: %v", err)
	}

	// Create study_items table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS study_items (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			word TEXT NOT NULL,
			phase TEXT NOT NULL DEFAULT 'learning',
			step INTEGER NOT NULL DEFAULT 0,
			interval_days INTEGER NOT NULL DEFAULT 1,
			ease_factor REAL NOT NULL DEFAULT 2.5,
			next_review_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(user_id),
			FOREIGN KEY (word) REFERENCES dictionary(word),
			UNIQUE(user_id, word)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create study_items table: %v", err)
	}

	return nil
}
