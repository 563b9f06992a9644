package quiz

import "sync"

// session is one user's ephemeral review state. It lives until the process
// exits or the failed queue is cleared on session completion; abandoning a
// session performs no rollback, already-persisted grades stay.
type session struct {
	mu sync.Mutex
	// Last successfully looked-up word, consumed on add-to-study-list
	lastWord string
	// Items graded "again" in this session and not yet re-graded
	failed failedQueue
	// Currently presented card, nil between selection rounds
	pending *pendingCard
}

// pendingCard tracks the card shown to the user and whether its definition
// has been revealed. A grade applies to the pending card exactly once.
type pendingCard struct {
	itemID   string
	revealed bool
}

// failedQueue is an ordered set of study-item ids, oldest failure first
type failedQueue struct {
	ids []string
}

func (q *failedQueue) contains(id string) bool {
	for _, v := range q.ids {
		if v == id {
			return true
		}
	}
	return false
}

// push appends an id unless it is already queued
func (q *failedQueue) push(id string) {
	if !q.contains(id) {
		q.ids = append(q.ids, id)
	}
}

func (q *failedQueue) remove(id string) {
	for i, v := range q.ids {
		if v == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			return
		}
	}
}

func (q *failedQueue) head() (string, bool) {
	if len(q.ids) == 0 {
		return "", false
	}
	return q.ids[0], true
}

func (q *failedQueue) len() int {
	return len(q.ids)
}

func (q *failedQueue) clear() {
	q.ids = nil
}
