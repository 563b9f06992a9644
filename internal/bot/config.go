package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Channel the user must join before the bot responds; empty disables the check
	ChannelUsername string
	// Number of dictionary entries per page in the word list view
	PageSize int
	// Pause between broadcast sends to stay under Telegram's flood limit
	BroadcastPause time.Duration
	// How often broadcast progress messages are refreshed, in sent messages
	BroadcastProgressStep int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		PageSize:              5,
		BroadcastPause:        50 * time.Millisecond,
		BroadcastProgressStep: 10,
	}
}
