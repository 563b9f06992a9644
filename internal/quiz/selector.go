package quiz

import (
	"context"
	"errors"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/pkg/models"
)

// Label says how a picked card should be presented
type Label string

const (
	// LabelFlashcard marks a regular due review
	LabelFlashcard Label = "flashcard"
	// LabelRelearning marks a card that was failed earlier in the session
	LabelRelearning Label = "re-learning"
)

// Pick is one selection result: the card to present next and its label.
// A nil *Pick from selection means the session is complete.
type Pick struct {
	Card  models.StudyCard
	Label Label
}

// selectNext picks the next card for the user, in strict priority order:
//
//  1. earliest due item not failed this session ("flashcard"),
//  2. earliest due item that was failed ("re-learning"),
//  3. with no due items left, the oldest failed item even though its own
//     due time has not arrived ("re-learning"),
//  4. nothing left: the failed queue is cleared and nil is returned.
//
// Fresh reviews come before re-surfacing failures so the user is not stuck
// looping on one hard word, but the session only completes once every
// failure has been re-graded.
func (m *Manager) selectNext(ctx context.Context, s *session, userID int64) (*Pick, error) {
	due, err := m.store.GetDueCards(ctx, userID, m.clock())
	if err != nil {
		// A store fault must surface as a fault, never as "session complete"
		return nil, err
	}

	for i := range due {
		if !s.failed.contains(due[i].Item.ID) {
			return &Pick{Card: due[i], Label: LabelFlashcard}, nil
		}
	}

	if len(due) > 0 {
		return &Pick{Card: due[0], Label: LabelRelearning}, nil
	}

	// No due items: pull failed items forward even though their natural due
	// time has not arrived. Stale ids (item deleted concurrently) are
	// dropped and the loop moves on; the loop is bounded by the queue size.
	for s.failed.len() > 0 {
		id, _ := s.failed.head()
		card, err := m.store.GetCardByID(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			s.failed.remove(id)
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Pick{Card: *card, Label: LabelRelearning}, nil
	}

	s.failed.clear()
	return nil, nil
}
