package models

import "time"

// Study phases. An item starts in the short-delay learning ladder and
// graduates to day-scale review intervals.
const (
	PhaseLearning = "learning"
	PhaseReview   = "review"
)

// StudyItem tracks one user's review schedule for one word
type StudyItem struct {
	ID           string    `json:"id" db:"id"` // Opaque identifier, stable for the item's lifetime
	UserID       int64     `json:"user_id" db:"user_id"`
	Word         string    `json:"word" db:"word"` // Foreign key into the dictionary
	Phase        string    `json:"phase" db:"phase"`
	Step         int       `json:"step" db:"step"`                   // Learning-ladder index, meaningful while Phase == learning
	IntervalDays int       `json:"interval_days" db:"interval_days"` // Days until next due, meaningful while Phase == review
	EaseFactor   float64   `json:"ease_factor" db:"ease_factor"`     // 1.3..3.0, starts at 2.5
	NextReviewAt time.Time `json:"next_review_at" db:"next_review_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsDue reports whether the item should be reviewed at the given time
func (s *StudyItem) IsDue(now time.Time) bool {
	return !s.NextReviewAt.After(now)
}

// StudyCard pairs a study item with its dictionary entry for display
type StudyCard struct {
	Item  StudyItem
	Entry DictionaryEntry
}
