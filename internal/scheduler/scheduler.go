package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/example/lexigo/internal/database"
	"github.com/go-co-op/gocron"
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     *database.UserRepository
	items     *database.StudyItemRepository
}

// Notifier interface for sending review reminders
type Notifier interface {
	SendReminder(userID int64, dueCount int) error
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
		users:     database.NewUserRepository(),
		items:     database.NewStudyItemRepository(),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Hourly check for users whose preferred notification hour has arrived
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)

	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders finds users whose notification hour matches the
// current hour and reminds those with due cards
func (s *Scheduler) checkAndSendReminders() {
	ctx := context.Background()
	now := time.Now().UTC()

	users, err := s.users.GetUsersForNotification(ctx, now.Hour())
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	for _, user := range users {
		stats, err := s.items.GetUserStats(ctx, user.ID, now)
		if err != nil {
			log.Printf("Error getting due counts for user %d: %v", user.ID, err)
			continue
		}

		if stats.DueNow == 0 {
			continue
		}

		if err := s.notifier.SendReminder(user.ID, stats.DueNow); err != nil {
			log.Printf("Error sending reminder to user %d: %v", user.ID, err)
		}
	}
}

// RunManualCheck forces a reminder check for a specific user
func (s *Scheduler) RunManualCheck(userID int64) error {
	ctx := context.Background()

	stats, err := s.items.GetUserStats(ctx, userID, time.Now().UTC())
	if err != nil {
		return err
	}

	if stats.DueNow > 0 {
		return s.notifier.SendReminder(userID, stats.DueNow)
	}

	return nil
}
