package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/srs"
	"github.com/example/lexigo/pkg/models"
)

// ErrNoCurrentCard is returned when reveal is requested but no card is
// pending, e.g. after the process restarted mid-session
var ErrNoCurrentCard = errors.New("no card is currently presented")

// Store is the slice of the progress store the review flow depends on
type Store interface {
	GetDueCards(ctx context.Context, userID int64, now time.Time) ([]models.StudyCard, error)
	GetCardByID(ctx context.Context, id string) (*models.StudyCard, error)
	Update(ctx context.Context, item *models.StudyItem, now time.Time) error
}

// Manager drives review sessions across all users. It owns every piece of
// ephemeral session state, partitioned by user id: sessions of different
// users never share mutable state, and all operations for one user are
// serialized on that user's session lock.
type Manager struct {
	store  Store
	engine *srs.Engine
	clock  func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewManager creates a session manager on top of the given store
func NewManager(store Store, engine *srs.Engine) *Manager {
	return &Manager{
		store:    store,
		engine:   engine,
		clock:    time.Now,
		sessions: make(map[int64]*session),
	}
}

// get lazily creates the user's session
func (m *Manager) get(userID int64) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &session{}
		m.sessions[userID] = s
	}
	return s
}

// StartSession picks the first card of a review round. A nil Pick means
// there is nothing to review right now.
func (m *Manager) StartSession(ctx context.Context, userID int64) (*Pick, error) {
	s := m.get(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	return m.present(ctx, s, userID)
}

// RevealCurrent returns the full card for the currently presented item
func (m *Manager) RevealCurrent(ctx context.Context, userID int64) (*models.StudyCard, error) {
	s := m.get(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil, ErrNoCurrentCard
	}

	card, err := m.store.GetCardByID(ctx, s.pending.itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Deleted under us; forget the presentation
			s.failed.remove(s.pending.itemID)
			s.pending = nil
		}
		return nil, err
	}

	s.pending.revealed = true
	return card, nil
}

// GradeCurrent applies the grade to the currently presented card, persists
// the schedule transition, updates the failed queue and selects the next
// card. A given grade event is applied at most once: after it is consumed
// the new pending card starts unrevealed, so a duplicated request cannot
// grade anything and only re-runs selection.
func (m *Manager) GradeCurrent(ctx context.Context, userID int64, grade srs.Grade) (*Pick, error) {
	s := m.get(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || !s.pending.revealed {
		// Duplicate tap or stale client; nothing to apply
		return m.present(ctx, s, userID)
	}

	itemID := s.pending.itemID
	card, err := m.store.GetCardByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.failed.remove(itemID)
			s.pending = nil
			return m.present(ctx, s, userID)
		}
		return nil, err
	}

	now := m.clock()
	next, err := m.engine.Advance(card.Item, grade, now)
	if err != nil {
		return nil, err
	}
	if err := m.store.Update(ctx, &next, now); err != nil {
		return nil, err
	}

	// Queue membership changes before re-selection so the selector sees it
	if grade == srs.GradeAgain {
		s.failed.push(itemID)
	} else {
		s.failed.remove(itemID)
	}
	s.pending = nil

	return m.present(ctx, s, userID)
}

// present runs selection and records the presented card. Caller holds s.mu.
func (m *Manager) present(ctx context.Context, s *session, userID int64) (*Pick, error) {
	pick, err := m.selectNext(ctx, s, userID)
	if err != nil {
		return nil, err
	}
	if pick == nil {
		s.pending = nil
		return nil, nil
	}
	s.pending = &pendingCard{itemID: pick.Card.Item.ID}
	return pick, nil
}

// RememberLookup stores the user's last successful word lookup, replacing
// any previous one
func (m *Manager) RememberLookup(userID int64, word string) {
	s := m.get(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWord = word
}

// TakeLookup consumes the last looked-up word
func (m *Manager) TakeLookup(userID int64) (string, bool) {
	s := m.get(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	word := s.lastWord
	s.lastWord = ""
	return word, word != ""
}
