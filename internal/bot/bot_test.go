package bot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestBot() *Bot {
	return &Bot{
		config:            DefaultConfig(),
		awaitingImport:    make(map[int64]bool),
		awaitingBroadcast: make(map[int64]bool),
	}
}

func TestAdminModeToggles(t *testing.T) {
	b := newTestBot()

	assert.False(t, b.inImportMode(1))
	b.setImportMode(1, true)
	assert.True(t, b.inImportMode(1))
	assert.False(t, b.inImportMode(2))
	b.setImportMode(1, false)
	assert.False(t, b.inImportMode(1))

	b.setBroadcastMode(1, true)
	assert.True(t, b.inBroadcastMode(1))
	b.setBroadcastMode(1, false)
	assert.False(t, b.inBroadcastMode(1))
}

// Updates arrive on separate goroutines; toggling input modes from several
// of them at once must be safe
func TestAdminModesAreGoroutineSafe(t *testing.T) {
	b := newTestBot()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		userID := int64(i % 4)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.setImportMode(userID, j%2 == 0)
				b.inImportMode(userID)
				b.setBroadcastMode(userID, j%2 == 1)
				b.inBroadcastMode(userID)
			}
		}()
	}
	wg.Wait()

	for id := int64(0); id < 4; id++ {
		assert.False(t, b.inImportMode(id))
		assert.True(t, b.inBroadcastMode(id))
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Abandon", capitalize("abandon"))
	assert.Equal(t, "Give up", capitalize("give up"))
	assert.Equal(t, "Éclair", capitalize("éclair"))
	assert.Equal(t, "", capitalize(""))
}
