package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/example/lexigo/internal/ai"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/quiz"
	"github.com/example/lexigo/internal/scheduler"
	"github.com/example/lexigo/internal/srs"
	"github.com/example/lexigo/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// lookupClient resolves unknown words into dictionary entries
type lookupClient interface {
	Lookup(ctx context.Context, word string) (*models.DictionaryEntry, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	api               *tgbotapi.BotAPI
	token             string
	config            *BotConfig
	lookup            lookupClient
	quiz              *quiz.Manager
	users             *database.UserRepository
	dictionary        *database.DictionaryRepository
	items             *database.StudyItemRepository
	schedulerEnabled  bool
	scheduler         *scheduler.Scheduler
	adminUserIDs      map[int64]bool

	// Updates are handled on separate goroutines, so the admin input-mode
	// maps need a lock
	stateMu           sync.Mutex
	awaitingImport    map[int64]bool
	awaitingBroadcast map[int64]bool
}

// setImportMode toggles whether the admin's next upload is a dictionary import
func (b *Bot) setImportMode(userID int64, on bool) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	if on {
		b.awaitingImport[userID] = true
	} else {
		delete(b.awaitingImport, userID)
	}
}

func (b *Bot) inImportMode(userID int64) bool {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.awaitingImport[userID]
}

// setBroadcastMode toggles whether the admin's next message is broadcast
func (b *Bot) setBroadcastMode(userID int64, on bool) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	if on {
		b.awaitingBroadcast[userID] = true
	} else {
		delete(b.awaitingBroadcast, userID)
	}
}

func (b *Bot) inBroadcastMode(userID int64) bool {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.awaitingBroadcast[userID]
}

// New creates a new bot instance
func New() (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	var lookup lookupClient
	if os.Getenv("OPENAI_API_KEY") != "" {
		client, err := ai.New()
		if err != nil {
			log.Printf("Warning: Unable to initialize lookup client: %v", err)
		} else {
			lookup = client
		}
	}

	config := DefaultConfig()
	config.ChannelUsername = strings.TrimPrefix(os.Getenv("CHANNEL_USERNAME"), "@")

	items := database.NewStudyItemRepository()

	bot := &Bot{
		token:             token,
		config:            config,
		lookup:            lookup,
		quiz:              quiz.NewManager(items, srs.NewEngine()),
		users:             database.NewUserRepository(),
		dictionary:        database.NewDictionaryRepository(),
		items:             items,
		schedulerEnabled:  os.Getenv("ENABLE_SCHEDULER") != "false",
		adminUserIDs:      make(map[int64]bool),
		awaitingImport:    make(map[int64]bool),
		awaitingBroadcast: make(map[int64]bool),
	}

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			bot.adminUserIDs[id] = true
		}
	}

	return bot, nil
}

// Start initializes the bot and blocks handling updates
func (b *Bot) Start() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}

	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)

	if b.schedulerEnabled {
		b.scheduler = scheduler.New(b)
		b.scheduler.Start()
		log.Println("Reminder scheduler started")
	}

	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(userID int64, dueCount int) error {
	text := fmt.Sprintf("🧠 You have %d word(s) ready for review! Tap Start Review to practice.", dueCount)
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())

	if _, err := b.api.Send(msg); err != nil {
		if isBlockedError(err) {
			log.Printf("User %d blocked the bot, marking as inactive", userID)
			if markErr := b.users.MarkInactive(context.Background(), userID); markErr != nil {
				log.Printf("Error marking user %d inactive: %v", userID, markErr)
			}
		}
		return err
	}
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// isSubscribed reports whether the user is a member of the required channel.
// Check failures count as subscribed so an API hiccup never locks users out.
func (b *Bot) isSubscribed(userID int64) bool {
	if b.config.ChannelUsername == "" {
		return true
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: "@" + b.config.ChannelUsername,
			UserID:             userID,
		},
	})
	if err != nil {
		log.Printf("Subscription check error for user %d: %v", userID, err)
		return true
	}

	switch member.Status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}

// subscribeKeyboard offers the join link plus a re-check button
func (b *Bot) subscribeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Join Channel", "https://t.me/"+b.config.ChannelUsername),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ I Subscribed", "check_subscription"),
		),
	)
}

// mainMenuButtons returns the buttons for the main menu
func (b *Bot) mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🧠 Start Review", CallbackData: "quiz"},
			{Text: "📚 My Dictionary", CallbackData: "dict_list"},
		},
	}
}

// isBlockedError reports whether a send failed because the user blocked the bot
func isBlockedError(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := err.(*tgbotapi.Error); ok {
		return apiErr.Code == 403
	}
	return strings.Contains(err.Error(), "Forbidden")
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleMessage routes commands, admin input modes, and free-text word lookups
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	userID := message.From.ID

	if b.isAdmin(userID) {
		if b.inBroadcastMode(userID) {
			b.setBroadcastMode(userID, false)
			b.runBroadcast(message)
			return
		}
		if b.inImportMode(userID) {
			if message.Document != nil {
				b.setImportMode(userID, false)
				b.handleImportUpload(message)
				return
			}
			if message.IsCommand() && message.Command() == "cancel" {
				b.setImportMode(userID, false)
				b.send(tgbotapi.NewMessage(message.Chat.ID, "Import cancelled."))
				return
			}
			b.send(tgbotapi.NewMessage(message.Chat.ID, "Please attach an .xlsx or .csv file, or /cancel."))
			return
		}
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStartCommand(message)
		case "menu":
			b.showMainMenu(message.Chat.ID)
		case "stats":
			b.handleStatsCommand(message)
		case "admin":
			if b.isAdmin(userID) {
				b.handleAdminCommand(message)
			}
		case "import":
			if b.isAdmin(userID) {
				b.handleImportCommand(message)
			}
		default:
			msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /menu to show the main menu.")
			msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
			b.send(msg)
		}
		return
	}

	if message.Text != "" {
		b.handleSearch(message)
	}
}

// send is a convenience wrapper that logs send failures
func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// answerCallback acknowledges a callback query, optionally with an alert popup
func (b *Bot) answerCallback(callbackID, text string, alert bool) {
	callback := tgbotapi.NewCallback(callbackID, text)
	callback.ShowAlert = alert
	if _, err := b.api.Request(callback); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}
