package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/lexigo/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, "SELECT * FROM users WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

// EnsureExists registers the user on first contact. Returns true when the
// user was created, false when they were already known.
func (r *UserRepository) EnsureExists(ctx context.Context, userID int64) (bool, error) {
	_, err := r.GetByID(ctx, userID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	_, err = DB.ExecContext(ctx, `
		INSERT INTO users (user_id, active, notification_enabled, notification_hour)
		VALUES ($1, true, true, 9)
	`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to create user: %v", err)
	}
	return true, nil
}

// Update modifies the user's settings
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	result, err := DB.ExecContext(ctx, `
		UPDATE users SET
			active = $1,
			notification_enabled = $2,
			notification_hour = $3
		WHERE user_id = $4
	`, user.Active, user.NotificationEnabled, user.NotificationHour, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
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

// MarkInactive flags a user who blocked the bot so broadcasts skip them
func (r *UserRepository) MarkInactive(ctx context.Context, userID int64) error {
	_, err := DB.ExecContext(ctx, "UPDATE users SET active = false WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to mark user inactive: %v", err)
	}
	return nil
}

// GetAllActiveIDs returns the IDs of all users who have not blocked the bot
func (r *UserRepository) GetAllActiveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := DB.SelectContext(ctx, &ids, "SELECT user_id FROM users WHERE active = true ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %v", err)
	}
	return ids, nil
}

// GetUsersForNotification returns active users whose reminder hour matches
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	err := DB.SelectContext(ctx, &users, `
		SELECT * FROM users
		WHERE active = true AND notification_enabled = true AND notification_hour = $1
		ORDER BY user_id
	`, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %v", err)
	}
	return users, nil
}

// Counts returns total and active user counts for the admin panel
func (r *UserRepository) Counts(ctx context.Context) (total int, active int, err error) {
	if err = DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %v", err)
	}
	if err = DB.GetContext(ctx, &active, "SELECT COUNT(*) FROM users WHERE active = true"); err != nil {
		return 0, 0, fmt.Errorf("failed to count active users: %v", err)
	}
	return total, active, nil
}
