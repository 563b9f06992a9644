package quiz

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/srs"
	"github.com/example/lexigo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory Store with injectable faults
type fakeStore struct {
	cards   map[string]*models.StudyCard
	dueErr  error
	getErr  error
	updates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{cards: make(map[string]*models.StudyCard)}
}

func (f *fakeStore) add(id string, userID int64, word string, due time.Time) {
	f.cards[id] = &models.StudyCard{
		Item: models.StudyItem{
			ID:           id,
			UserID:       userID,
			Word:         word,
			Phase:        models.PhaseLearning,
			IntervalDays: 1,
			EaseFactor:   2.5,
			NextReviewAt: due,
		},
		Entry: models.DictionaryEntry{Word: word, Definition: "def of " + word},
	}
}

func (f *fakeStore) GetDueCards(_ context.Context, userID int64, now time.Time) ([]models.StudyCard, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	var due []models.StudyCard
	for _, c := range f.cards {
		if c.Item.UserID == userID && !c.Item.NextReviewAt.After(now) {
			due = append(due, *c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Item.NextReviewAt.Equal(due[j].Item.NextReviewAt) {
			return due[i].Item.ID < due[j].Item.ID
		}
		return due[i].Item.NextReviewAt.Before(due[j].Item.NextReviewAt)
	})
	return due, nil
}

func (f *fakeStore) GetCardByID(_ context.Context, id string) (*models.StudyCard, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	card, ok := f.cards[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *card
	return &copied, nil
}

func (f *fakeStore) Update(_ context.Context, item *models.StudyItem, _ time.Time) error {
	card, ok := f.cards[item.ID]
	if !ok {
		return database.ErrNotFound
	}
	card.Item = *item
	f.updates++
	return nil
}

func newTestManager(store *fakeStore) *Manager {
	m := NewManager(store, srs.NewEngine())
	m.clock = func() time.Time { return testNow }
	return m
}

func TestStartSessionPicksEarliestDue(t *testing.T) {
	store := newFakeStore()
	store.add("b", 1, "banana", testNow.Add(-1*time.Hour))
	store.add("a", 1, "apple", testNow.Add(-2*time.Hour))
	store.add("c", 1, "cherry", testNow.Add(1*time.Hour)) // not due

	m := newTestManager(store)

	pick, err := m.StartSession(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "a", pick.Card.Item.ID)
	assert.Equal(t, LabelFlashcard, pick.Label)
}

func TestStartSessionWithNothingDue(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(time.Hour))

	m := newTestManager(store)

	pick, err := m.StartSession(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, pick)
}

func TestStoreFaultIsNotSessionComplete(t *testing.T) {
	store := newFakeStore()
	store.dueErr = errors.New("connection refused")

	m := newTestManager(store)

	pick, err := m.StartSession(context.Background(), 1)
	assert.Error(t, err)
	assert.Nil(t, pick)
}

func TestRevealRequiresPendingCard(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	_, err := m.RevealCurrent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoCurrentCard)
}

func TestGradeGoodAdvancesAndMovesOn(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(-2*time.Hour))
	store.add("b", 1, "banana", testNow.Add(-1*time.Hour))

	m := newTestManager(store)
	ctx := context.Background()

	pick, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "a", pick.Card.Item.ID)

	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)

	next, err := m.GradeCurrent(ctx, 1, srs.GradeGood)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "b", next.Card.Item.ID)
	assert.Equal(t, LabelFlashcard, next.Label)

	// The graded item moved to its next learning step and out of the due set
	assert.Equal(t, 1, store.cards["a"].Item.Step)
	assert.Equal(t, testNow.Add(10*time.Minute), store.cards["a"].Item.NextReviewAt)
	assert.Equal(t, 1, store.updates)
}

func TestGradeAgainResurfacesAfterFreshCards(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(-2*time.Hour))
	store.add("b", 1, "banana", testNow.Add(-1*time.Hour))

	m := newTestManager(store)
	ctx := context.Background()

	_, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)

	// Fail "a": it stays due (reset to now) but fresh "b" must come first
	next, err := m.GradeCurrent(ctx, 1, srs.GradeAgain)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "b", next.Card.Item.ID)
	assert.Equal(t, LabelFlashcard, next.Label)

	// Pass "b": only the failed "a" remains, now labeled re-learning
	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)
	next, err = m.GradeCurrent(ctx, 1, srs.GradeGood)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "a", next.Card.Item.ID)
	assert.Equal(t, LabelRelearning, next.Label)
}

func TestSessionCompletesOnlyAfterFailuresRegraded(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(-time.Hour))

	m := newTestManager(store)
	ctx := context.Background()

	_, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)

	next, err := m.GradeCurrent(ctx, 1, srs.GradeAgain)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "a", next.Card.Item.ID)
	assert.Equal(t, LabelRelearning, next.Label)

	// Passing it now ends the session
	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)
	next, err = m.GradeCurrent(ctx, 1, srs.GradeGood)
	require.NoError(t, err)
	assert.Nil(t, next)

	s := m.get(1)
	assert.Equal(t, 0, s.failed.len())
}

func TestFailedQueuePullsForwardWhenNothingDue(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(-time.Hour))

	m := newTestManager(store)
	ctx := context.Background()

	_, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)
	_, err = m.GradeCurrent(ctx, 1, srs.GradeAgain)
	require.NoError(t, err)

	// Push the failed card into the future so the due set is empty; it must
	// still be pulled forward from the failed queue
	store.cards["a"].Item.NextReviewAt = testNow.Add(time.Hour)

	pick, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "a", pick.Card.Item.ID)
	assert.Equal(t, LabelRelearning, pick.Label)
}

func TestStaleFailedIDsAreDropped(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(-time.Hour))

	m := newTestManager(store)
	ctx := context.Background()

	_, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)
	_, err = m.GradeCurrent(ctx, 1, srs.GradeAgain)
	require.NoError(t, err)

	// The failed card is deleted out from under the session
	delete(store.cards, "a")

	pick, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, pick)

	s := m.get(1)
	assert.Equal(t, 0, s.failed.len())
}

func TestFailedQueueKeepsNoDuplicates(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(-time.Hour))

	m := newTestManager(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pick, err := m.StartSession(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, pick)
		_, err = m.RevealCurrent(ctx, 1)
		require.NoError(t, err)
		_, err = m.GradeCurrent(ctx, 1, srs.GradeAgain)
		require.NoError(t, err)
	}

	s := m.get(1)
	assert.Equal(t, 1, s.failed.len())
}

func TestDuplicateGradeIsNotAppliedTwice(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(-2*time.Hour))
	store.add("b", 1, "banana", testNow.Add(-1*time.Hour))

	m := newTestManager(store)
	ctx := context.Background()

	_, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)

	_, err = m.GradeCurrent(ctx, 1, srs.GradeGood)
	require.NoError(t, err)
	require.Equal(t, 1, store.updates)

	// A retried grade finds the next card unrevealed and applies nothing
	pick, err := m.GradeCurrent(ctx, 1, srs.GradeGood)
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "b", pick.Card.Item.ID)
	assert.Equal(t, 1, store.updates)
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	store := newFakeStore()
	store.add("a", 1, "apple", testNow.Add(-time.Hour))
	store.add("x", 2, "xylophone", testNow.Add(-time.Hour))

	m := newTestManager(store)
	ctx := context.Background()

	_, err := m.StartSession(ctx, 1)
	require.NoError(t, err)
	_, err = m.RevealCurrent(ctx, 1)
	require.NoError(t, err)
	_, err = m.GradeCurrent(ctx, 1, srs.GradeAgain)
	require.NoError(t, err)

	// User 2 never failed anything, so their pick is a plain flashcard
	pick, err := m.StartSession(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "x", pick.Card.Item.ID)
	assert.Equal(t, LabelFlashcard, pick.Label)

	assert.Equal(t, 1, m.get(1).failed.len())
	assert.Equal(t, 0, m.get(2).failed.len())
}

func TestLookupIsConsumedOnce(t *testing.T) {
	m := newTestManager(newFakeStore())

	m.RememberLookup(1, "serendipity")

	word, ok := m.TakeLookup(1)
	assert.True(t, ok)
	assert.Equal(t, "serendipity", word)

	_, ok = m.TakeLookup(1)
	assert.False(t, ok)
}

func TestLookupIsReplacedBySearch(t *testing.T) {
	m := newTestManager(newFakeStore())

	m.RememberLookup(1, "first")
	m.RememberLookup(1, "second")

	word, ok := m.TakeLookup(1)
	assert.True(t, ok)
	assert.Equal(t, "second", word)
}
