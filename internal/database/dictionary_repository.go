package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/lexigo/pkg/models"
)

// DictionaryRepository handles the shared word-definition cache
type DictionaryRepository struct{}

// NewDictionaryRepository creates a new repository instance
func NewDictionaryRepository() *DictionaryRepository {
	return &DictionaryRepository{}
}

// GetByWord returns a cached entry for the normalized word
func (r *DictionaryRepository) GetByWord(ctx context.Context, word string) (*models.DictionaryEntry, error) {
	var entry models.DictionaryEntry
	err := DB.GetContext(ctx, &entry, `
		SELECT word, definition, example,
			COALESCE(pronunciation, '') AS pronunciation,
			COALESCE(level, '') AS level,
			COALESCE(importance_rate, '') AS importance_rate,
			COALESCE(synonyms, '') AS synonyms
		FROM dictionary WHERE word = $1
	`, models.NormalizeWord(word))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dictionary entry: %v", err)
	}
	return &entry, nil
}

// Save caches an entry. The first write for a word wins; entries are
// immutable afterwards, so an existing row is left untouched.
func (r *DictionaryRepository) Save(ctx context.Context, entry *models.DictionaryEntry) error {
	entry.Word = models.NormalizeWord(entry.Word)

	if _, err := r.GetByWord(ctx, entry.Word); err == nil {
		return nil // already cached
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err := DB.ExecContext(ctx, `
		INSERT INTO dictionary (word, definition, example, pronunciation, level, importance_rate, synonyms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.Word, entry.Definition, entry.Example, entry.Pronunciation,
		entry.Level, entry.ImportanceRate, entry.Synonyms)
	if err != nil {
		return fmt.Errorf("failed to save dictionary entry: %v", err)
	}
	return nil
}

// Upsert inserts or replaces an entry. Used by the bulk importer, where a
// curated spreadsheet is allowed to overwrite cached LLM output.
func (r *DictionaryRepository) Upsert(ctx context.Context, entry *models.DictionaryEntry) (created bool, err error) {
	entry.Word = models.NormalizeWord(entry.Word)

	_, err = r.GetByWord(ctx, entry.Word)
	if err == nil {
		_, err = DB.ExecContext(ctx, `
			UPDATE dictionary SET
				definition = $1, example = $2, pronunciation = $3,
				level = $4, importance_rate = $5, synonyms = $6
			WHERE word = $7
		`, entry.Definition, entry.Example, entry.Pronunciation,
			entry.Level, entry.ImportanceRate, entry.Synonyms, entry.Word)
		if err != nil {
			return false, fmt.Errorf("failed to update dictionary entry: %v", err)
		}
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	_, err = DB.ExecContext(ctx, `
		INSERT INTO dictionary (word, definition, example, pronunciation, level, importance_rate, synonyms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.Word, entry.Definition, entry.Example, entry.Pronunciation,
		entry.Level, entry.ImportanceRate, entry.Synonyms)
	if err != nil {
		return false, fmt.Errorf("failed to insert dictionary entry: %v", err)
	}
	return true, nil
}

// Count returns the number of cached entries
func (r *DictionaryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM dictionary"); err != nil {
		return 0, fmt.Errorf("failed to count dictionary entries: %v", err)
	}
	return count, nil
}
