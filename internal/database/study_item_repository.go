package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lexigo/pkg/models"
	"github.com/google/uuid"
)

// StudyItemRepository handles database operations for per-user study items.
// It is the durable half of the review scheduler: the quiz package reads due
// items from here and writes back every grade transition.
type StudyItemRepository struct{}

// NewStudyItemRepository creates a new repository instance
func NewStudyItemRepository() *StudyItemRepository {
	return &StudyItemRepository{}
}

// studyCardRow is the flat scan target for study_items joined with dictionary
type studyCardRow struct {
	models.StudyItem
	Definition     string `db:"definition"`
	Example        string `db:"example"`
	Pronunciation  string `db:"pronunciation"`
	Level          string `db:"level"`
	ImportanceRate string `db:"importance_rate"`
	Synonyms       string `db:"synonyms"`
}

func (row *studyCardRow) toCard() models.StudyCard {
	return models.StudyCard{
		Item: row.StudyItem,
		Entry: models.DictionaryEntry{
			Word:           row.StudyItem.Word,
			Definition:     row.Definition,
			Example:        row.Example,
			Pronunciation:  row.Pronunciation,
			Level:          row.Level,
			ImportanceRate: row.ImportanceRate,
			Synonyms:       row.Synonyms,
		},
	}
}

const studyCardColumns = `
	s.id, s.user_id, s.word, s.phase, s.step, s.interval_days, s.ease_factor,
	s.next_review_at, s.created_at, s.updated_at,
	d.definition, d.example,
	COALESCE(d.pronunciation, '') AS pronunciation,
	COALESCE(d.level, '') AS level,
	COALESCE(d.importance_rate, '') AS importance_rate,
	COALESCE(d.synonyms, '') AS synonyms`

// AddToStudyList creates a study item for (user, word) in the initial
// learning state, due immediately. Returns ErrDuplicate when the pair
// already exists: duplicates are rejected, never merged.
func (r *StudyItemRepository) AddToStudyList(ctx context.Context, userID int64, word string, now time.Time) (*models.StudyItem, error) {
	word = models.NormalizeWord(word)

	var existingID string
	err := DB.GetContext(ctx, &existingID,
		"SELECT id FROM study_items WHERE user_id = $1 AND word = $2", userID, word)
	if err == nil {
		return nil, ErrDuplicate
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check study item: %v", err)
	}

	item := &models.StudyItem{
		ID:           uuid.NewString(),
		UserID:       userID,
		Word:         word,
		Phase:        models.PhaseLearning,
		Step:         0,
		IntervalDays: 1,
		EaseFactor:   2.5,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = DB.ExecContext(ctx, `
		INSERT INTO study_items (
			id, user_id, word, phase, step, interval_days, ease_factor,
			next_review_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, item.ID, item.UserID, item.Word, item.Phase, item.Step,
		item.IntervalDays, item.EaseFactor, item.NextReviewAt,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		// A concurrent add can slip past the existence check and lose the
		// race on the (user_id, word) unique constraint
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create study item: %v", err)
	}
	return item, nil
}

// GetDueCards returns the user's due items joined with their dictionary
// entries, earliest-due first. Ties are broken by id so repeated calls with
// no intervening grade return the same order.
func (r *StudyItemRepository) GetDueCards(ctx context.Context, userID int64, now time.Time) ([]models.StudyCard, error) {
	query := `
		SELECT ` + studyCardColumns + `
		FROM study_items s
		JOIN dictionary d ON d.word = s.word
		WHERE s.user_id = $1 AND s.next_review_at <= $2
		ORDER BY s.next_review_at ASC, s.id ASC
	`
	var rows []studyCardRow
	if err := DB.SelectContext(ctx, &rows, query, userID, now); err != nil {
		return nil, fmt.Errorf("failed to get due items: %v", err)
	}

	cards := make([]models.StudyCard, 0, len(rows))
	for i := range rows {
		cards = append(cards, rows[i].toCard())
	}
	return cards, nil
}

// GetCardByID returns one study item with its dictionary entry
func (r *StudyItemRepository) GetCardByID(ctx context.Context, id string) (*models.StudyCard, error) {
	query := `
		SELECT ` + studyCardColumns + `
		FROM study_items s
		JOIN dictionary d ON d.word = s.word
		WHERE s.id = $1
	`
	var row studyCardRow
	if err := DB.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get study item: %v", err)
	}
	card := row.toCard()
	return &card, nil
}

// Update persists a schedule transition computed by the SRS engine
func (r *StudyItemRepository) Update(ctx context.Context, item *models.StudyItem, now time.Time) error {
	item.UpdatedAt = now
	result, err := DB.ExecContext(ctx, `
		UPDATE study_items SET
			phase = $1,
			step = $2,
			interval_days = $3,
			ease_factor = $4,
			next_review_at = $5,
			updated_at = $6
		WHERE id = $7
	`, item.Phase, item.Step, item.IntervalDays, item.EaseFactor,
		item.NextReviewAt, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update study item: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a study item
func (r *StudyItemRepository) Delete(ctx context.Context, id string) error {
	_, err := DB.ExecContext(ctx, "DELETE FROM study_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete study item: %v", err)
	}
	return nil
}

// GetUserPage returns one page of the user's dictionary, newest first,
// plus whether another page follows.
func (r *StudyItemRepository) GetUserPage(ctx context.Context, userID int64, page, limit int) ([]models.StudyCard, bool, error) {
	offset := page * limit
	query := `
		SELECT ` + studyCardColumns + `
		FROM study_items s
		JOIN dictionary d ON d.word = s.word
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $2 OFFSET $3
	`
	var rows []studyCardRow
	if err := DB.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, false, fmt.Errorf("failed to get user dictionary page: %v", err)
	}

	cards := make([]models.StudyCard, 0, len(rows))
	for i := range rows {
		cards = append(cards, rows[i].toCard())
	}

	var remaining int
	err := DB.GetContext(ctx, &remaining, `
		SELECT COUNT(*) FROM study_items WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count study items: %v", err)
	}

	return cards, remaining > offset+limit, nil
}

// UserStats summarizes a user's study list for the stats screen
type UserStats struct {
	Total    int `db:"total"`
	DueNow   int `db:"due_now"`
	Learning int `db:"learning"`
	Review   int `db:"review"`
}

// GetUserStats returns per-user study counters
func (r *StudyItemRepository) GetUserStats(ctx context.Context, userID int64, now time.Time) (*UserStats, error) {
	var stats UserStats
	err := DB.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN next_review_at <= $2 THEN 1 ELSE 0 END), 0) AS due_now,
			COALESCE(SUM(CASE WHEN phase = 'learning' THEN 1 ELSE 0 END), 0) AS learning,
			COALESCE(SUM(CASE WHEN phase = 'review' THEN 1 ELSE 0 END), 0) AS review
		FROM study_items
		WHERE user_id = $1
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %v", err)
	}
	return &stats, nil
}

// Count returns the total number of study items across all users
func (r *StudyItemRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM study_items"); err != nil {
		return 0, fmt.Errorf("failed to count study items: %v", err)
	}
	return count, nil
}
