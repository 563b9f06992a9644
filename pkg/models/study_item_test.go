package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWord(t *testing.T) {
	assert.Equal(t, "abandon", NormalizeWord("  Abandon "))
	assert.Equal(t, "give up", NormalizeWord("GIVE UP"))
	assert.Equal(t, "", NormalizeWord("   "))
}

func TestIsDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	item := StudyItem{NextReviewAt: now}
	assert.True(t, item.IsDue(now))

	item.NextReviewAt = now.Add(-time.Minute)
	assert.True(t, item.IsDue(now))

	item.NextReviewAt = now.Add(time.Minute)
	assert.False(t, item.IsDue(now))
}
