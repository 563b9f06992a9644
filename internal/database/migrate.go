package database

import (
	"context"
	"fmt"
	"log"

	"github.com/example/lexigo/pkg/models"
	"github.com/jmoiron/sqlx"
)

// migrateChunkSize limits how many rows go into one transaction
const migrateChunkSize = 500

// MigrateSQLiteToPostgres copies users, dictionary entries and study items
// from a local SQLite file into the Postgres database at dsn. Rows already
// present in the target are skipped, so the migration can be re-run.
func MigrateSQLiteToPostgres(ctx context.Context, sqlitePath, dsn string) error {
	source, err := sqlx.Connect("sqlite3", sqlitePath)
	if err != nil {
		return fmt.Errorf("failed to open sqlite source: %v", err)
	}
	defer source.Close()

	target, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres target: %v", err)
	}
	defer target.Close()

	if err := createSchema(target); err != nil {
		return fmt.Errorf("failed to prepare target schema: %v", err)
	}

	var users []models.User
	if err := source.SelectContext(ctx, &users, "SELECT * FROM users"); err != nil {
		return fmt.Errorf("failed to read users: %v", err)
	}
	var entries []models.DictionaryEntry
	if err := source.SelectContext(ctx, &entries, `
		SELECT word, definition, example,
			COALESCE(pronunciation, '') AS pronunciation,
			COALESCE(level, '') AS level,
			COALESCE(importance_rate, '') AS importance_rate,
			COALESCE(synonyms, '') AS synonyms
		FROM dictionary
	`); err != nil {
		return fmt.Errorf("failed to read dictionary: %v", err)
	}
	var items []models.StudyItem
	if err := source.SelectContext(ctx, &items, "SELECT * FROM study_items"); err != nil {
		return fmt.Errorf("failed to read study items: %v", err)
	}
	log.Printf("Read from SQLite: %d users, %d dictionary entries, %d study items",
		len(users), len(entries), len(items))

	if err := copyUsers(ctx, target, users); err != nil {
		return err
	}
	if err := copyDictionary(ctx, target, entries); err != nil {
		return err
	}
	if err := copyStudyItems(ctx, target, items); err != nil {
		return err
	}

	log.Println("Migration complete")
	return nil
}

func copyUsers(ctx context.Context, target *sqlx.DB, users []models.User) error {
	return inChunks(len(users), func(lo, hi int) error {
		tx, err := target.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %v", err)
		}
		defer tx.Rollback()

		for _, u := range users[lo:hi] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO users (user_id, active, notification_enabled, notification_hour, created_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (user_id) DO NOTHING
			`, u.ID, u.Active, u.NotificationEnabled, u.NotificationHour, u.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to copy user %d: %v", u.ID, err)
			}
		}
		return tx.Commit()
	})
}

func copyDictionary(ctx context.Context, target *sqlx.DB, entries []models.DictionaryEntry) error {
	return inChunks(len(entries), func(lo, hi int) error {
		tx, err := target.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %v", err)
		}
		defer tx.Rollback()

		for _, e := range entries[lo:hi] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO dictionary (word, definition, example, pronunciation, level, importance_rate, synonyms)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (word) DO NOTHING
			`, e.Word, e.Definition, e.Example, e.Pronunciation, e.Level, e.ImportanceRate, e.Synonyms)
			if err != nil {
				return fmt.Errorf("failed to copy dictionary entry %q: %v", e.Word, err)
			}
		}
		return tx.Commit()
	})
}

func copyStudyItems(ctx context.Context, target *sqlx.DB, items []models.StudyItem) error {
	return inChunks(len(items), func(lo, hi int) error {
		tx, err := target.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %v", err)
		}
		defer tx.Rollback()

		for _, s := range items[lo:hi] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO study_items (
					id, user_id, word, phase, step, interval_days, ease_factor,
					next_review_at, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (id) DO NOTHING
			`, s.ID, s.UserID, s.Word, s.Phase, s.Step, s.IntervalDays,
				s.EaseFactor, s.NextReviewAt, s.CreatedAt, s.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to copy study item %s: %v", s.ID, err)
			}
		}
		return tx.Commit()
	})
}

func inChunks(total int, copyChunk func(lo, hi int) error) error {
	for lo := 0; lo < total; lo += migrateChunkSize {
		hi := lo + migrateChunkSize
		if hi > total {
			hi = total
		}
		if err := copyChunk(lo, hi); err != nil {
			return err
		}
	}
	return nil
}
