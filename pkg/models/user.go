package models

import "time"

// User represents a Telegram user of the bot
type User struct {
	ID                  int64     `json:"user_id" db:"user_id"` // Telegram user ID
	Active              bool      `json:"active" db:"active"`   // False once the user blocks the bot
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // Hour of day for reminders (0-23)
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
