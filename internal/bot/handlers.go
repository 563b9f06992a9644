package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/quiz"
	"github.com/example/lexigo/internal/srs"
	"github.com/example/lexigo/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleStartCommand handles the /start command
func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	ctx := context.Background()
	userID := message.From.ID

	created, err := b.users.EnsureExists(ctx, userID)
	if err != nil {
		log.Printf("Error registering user %d: %v", userID, err)
	}

	if !b.isSubscribed(userID) {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"👋 Welcome to <b>Lexi Go!</b>\n\n📢 To use the bot, please join our channel first:")
		msg.ParseMode = "HTML"
		msg.ReplyMarkup = b.subscribeKeyboard()
		b.send(msg)
		return
	}

	var text string
	if created {
		text = "<b>🚀 Lexi Go</b>\n" +
			"<i>Your personal vocabulary architect.</i>\n\n" +
			"🔍 <b>Instant Definitions</b>\n" +
			"Get clear, concise meanings instantly.\n\n" +
			"🧠 <b>Cue Card Memorization</b>\n" +
			"Master new words effortlessly with spaced repetition.\n\n" +
			"<i>⌨ Send any word to begin.</i>"
	} else {
		text = "👋 Send me a word to define it, or click below to practice"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
	b.send(msg)
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "👋 Send me a word to define it, or click below to practice")
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
	b.send(msg)
}

// handleStatsCommand shows the user's study progress
func (b *Bot) handleStatsCommand(message *tgbotapi.Message) {
	ctx := context.Background()

	stats, err := b.items.GetUserStats(ctx, message.From.ID, time.Now().UTC())
	if err != nil {
		log.Printf("Error getting stats for user %d: %v", message.From.ID, err)
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Statistics are unavailable right now. Try again later."))
		return
	}

	text := "📊 <b>Your Progress</b>\n\n" +
		fmt.Sprintf("📚 Words in your dictionary: <b>%d</b>\n", stats.Total) +
		fmt.Sprintf("⏰ Due for review now: <b>%d</b>\n", stats.DueNow) +
		fmt.Sprintf("🌱 Still learning: <b>%d</b>\n", stats.Learning) +
		fmt.Sprintf("🌳 In long-term review: <b>%d</b>", stats.Review)

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
	b.send(msg)
}

// handleSearch resolves a free-text word, from cache or the lookup client
func (b *Bot) handleSearch(message *tgbotapi.Message) {
	ctx := context.Background()
	userID := message.From.ID
	word := models.NormalizeWord(message.Text)

	if word == "" || strings.ContainsAny(word, " \n") {
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Please send a single word to look up."))
		return
	}

	if _, err := b.users.EnsureExists(ctx, userID); err != nil {
		log.Printf("Error registering user %d: %v", userID, err)
	}

	if !b.isSubscribed(userID) {
		msg := tgbotapi.NewMessage(message.Chat.ID, "📢 You need to join our channel to use this bot:")
		msg.ReplyMarkup = b.subscribeKeyboard()
		b.send(msg)
		return
	}

	waitMsg, err := b.api.Send(tgbotapi.NewMessage(message.Chat.ID, "🔍 Searching..."))
	if err != nil {
		log.Printf("Error sending wait message: %v", err)
		return
	}

	entry, err := b.dictionary.GetByWord(ctx, word)
	if errors.Is(err, database.ErrNotFound) {
		entry, err = b.lookupAndCache(ctx, word)
	}
	if err != nil || entry == nil {
		log.Printf("Lookup failed for %q: %v", word, err)
		edit := tgbotapi.NewEditMessageText(message.Chat.ID, waitMsg.MessageID, "❌ <b>Word not found.</b>")
		edit.ParseMode = "HTML"
		b.send(edit)
		return
	}

	b.quiz.RememberLookup(userID, entry.Word)

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		message.Chat.ID, waitMsg.MessageID, formatEntry(entry),
		createKeyboard([][]MenuButton{
			{{Text: "➕ Add to Dictionary", CallbackData: "add_word"}},
		}),
	)
	edit.ParseMode = "HTML"
	b.send(edit)
}

// lookupAndCache asks the model for a definition and stores it for everyone
func (b *Bot) lookupAndCache(ctx context.Context, word string) (*models.DictionaryEntry, error) {
	if b.lookup == nil {
		return nil, fmt.Errorf("word lookup is not configured")
	}

	entry, err := b.lookup.Lookup(ctx, word)
	if err != nil {
		return nil, err
	}

	if err := b.dictionary.Save(ctx, entry); err != nil {
		// The definition is still usable even if caching failed
		log.Printf("Error caching definition for %q: %v", word, err)
	}
	return entry, nil
}

// capitalize upper-cases the first rune for display
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// formatEntry renders a dictionary entry as an HTML message
func formatEntry(entry *models.DictionaryEntry) string {
	synonyms := entry.Synonyms
	if synonyms == "" {
		synonyms = "-"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🇬🇧 <b>%s</b>   <code>%s</code>\n", entry.Word, entry.Level))
	if entry.ImportanceRate != "" {
		sb.WriteString(fmt.Sprintf("⭐️ <b>Importance:</b> %s/10\n", entry.ImportanceRate))
	}
	sb.WriteString(fmt.Sprintf("\n📖 <b>Definition:</b>\n%s\n\n", entry.Definition))
	sb.WriteString(fmt.Sprintf("✍️ <b>Example:</b>\n<i>%s</i>\n\n", entry.Example))
	sb.WriteString(fmt.Sprintf("🔊 <b>Pronunciation:</b> <code>%s</code>\n", entry.Pronunciation))
	sb.WriteString(fmt.Sprintf("🔄 <b>Synonyms:</b> %s", synonyms))
	return sb.String()
}

// handleCallbackQuery handles callback queries from inline buttons
func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	switch {
	case callback.Data == "main_menu":
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"👋 Send me a word to define it, or click below to practice",
			createKeyboard(b.mainMenuButtons()))
		b.send(edit)
		b.answerCallback(callback.ID, "", false)

	case callback.Data == "check_subscription":
		if b.isSubscribed(userID) {
			edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
				"✅ <b>Thanks for subscribing!</b>\n\n👋 Send me a word to define it, or click below to practice",
				createKeyboard(b.mainMenuButtons()))
			edit.ParseMode = "HTML"
			b.send(edit)
			b.answerCallback(callback.ID, "", false)
		} else {
			b.answerCallback(callback.ID, "❌ You haven't subscribed yet!", true)
		}

	case callback.Data == "quiz":
		b.handleQuizStart(callback)

	case callback.Data == "show":
		b.handleQuizShow(callback)

	case strings.HasPrefix(callback.Data, "grade:"):
		b.handleQuizGrade(callback, strings.TrimPrefix(callback.Data, "grade:"))

	case callback.Data == "add_word":
		b.handleAddWord(callback)

	case callback.Data == "dict_list":
		b.handleDictionaryPage(callback, 0)

	case strings.HasPrefix(callback.Data, "dict_page:"):
		page, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "dict_page:"))
		if err != nil || page < 0 {
			b.answerCallback(callback.ID, "", false)
			return
		}
		b.handleDictionaryPage(callback, page)

	default:
		b.handleAdminCallback(callback)
	}
}

// handleQuizStart begins or resumes a review round
func (b *Bot) handleQuizStart(callback *tgbotapi.CallbackQuery) {
	ctx := context.Background()

	pick, err := b.quiz.StartSession(ctx, callback.From.ID)
	if err != nil {
		log.Printf("Error starting session for user %d: %v", callback.From.ID, err)
		b.answerCallback(callback.ID, "Something went wrong. Please try again.", true)
		return
	}

	b.presentPick(callback, pick)
	b.answerCallback(callback.ID, "", false)
}

// presentPick renders the next card prompt, or the completion screen
func (b *Bot) presentPick(callback *tgbotapi.CallbackQuery, pick *quiz.Pick) {
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	if pick == nil {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"<b>🎉 Session Complete!</b>\n"+
				"You have no more words to review right now.\n\n"+
				"<i>Take a break or search for new words.</i>",
			createKeyboard(b.mainMenuButtons()))
		edit.ParseMode = "HTML"
		b.send(edit)
		return
	}

	var title string
	if pick.Label == quiz.LabelRelearning {
		title = "🔄 <b>Re-learning Round</b>"
	} else {
		title = "🃏 <b>Flashcard</b>"
	}

	entry := pick.Card.Entry
	text := fmt.Sprintf("%s\n\n🚩 <b>%s</b>\n\n✨ %s\n🔊 Pronunciation: <code>%s</code>",
		title, strings.ToUpper(entry.Word), entry.Level, entry.Pronunciation)

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text,
		createKeyboard([][]MenuButton{
			{{Text: "👀 Show Definition", CallbackData: "show"}},
		}))
	edit.ParseMode = "HTML"
	b.send(edit)
}

// handleQuizShow reveals the definition of the current card
func (b *Bot) handleQuizShow(callback *tgbotapi.CallbackQuery) {
	ctx := context.Background()

	card, err := b.quiz.RevealCurrent(ctx, callback.From.ID)
	if err != nil {
		if errors.Is(err, quiz.ErrNoCurrentCard) || errors.Is(err, database.ErrNotFound) {
			b.answerCallback(callback.ID, "⚠️ Session expired. Tap Start Review again.", true)
			return
		}
		log.Printf("Error revealing card for user %d: %v", callback.From.ID, err)
		b.answerCallback(callback.ID, "Something went wrong. Please try again.", true)
		return
	}

	entry := card.Entry
	synonyms := entry.Synonyms
	if synonyms == "" {
		synonyms = "-"
	}

	text := fmt.Sprintf("🃏 <b>Flashcard</b>\n\n"+
		"🚩 <b>%s</b>  <code>%s</code>\n"+
		"🔊 <code>%s</code>\n\n"+
		"📖 <b>Definition:</b>\n%s\n\n"+
		"✍️ <b>Example:</b>\n<i>%s</i>\n\n"+
		"🔄 <b>Synonyms:</b> %s\n\n"+
		"<i>How well did you remember it?</i>",
		strings.ToUpper(entry.Word), entry.Level, entry.Pronunciation,
		entry.Definition, entry.Example, synonyms)

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		callback.Message.Chat.ID, callback.Message.MessageID, text,
		createKeyboard([][]MenuButton{
			{
				{Text: "❌ Again", CallbackData: "grade:again"},
				{Text: "✅ Good", CallbackData: "grade:good"},
				{Text: "⚡️ Easy", CallbackData: "grade:easy"},
			},
		}))
	edit.ParseMode = "HTML"
	b.send(edit)
	b.answerCallback(callback.ID, "", false)
}

// handleQuizGrade applies a grade and moves to the next card
func (b *Bot) handleQuizGrade(callback *tgbotapi.CallbackQuery, rawGrade string) {
	ctx := context.Background()

	grade, err := srs.ParseGrade(rawGrade)
	if err != nil {
		b.answerCallback(callback.ID, "Unknown grade.", true)
		return
	}

	pick, err := b.quiz.GradeCurrent(ctx, callback.From.ID, grade)
	if err != nil {
		log.Printf("Error grading card for user %d: %v", callback.From.ID, err)
		b.answerCallback(callback.ID, "Something went wrong. Please try again.", true)
		return
	}

	if grade == srs.GradeAgain {
		b.answerCallback(callback.ID, "❌ Again", false)
	} else {
		b.answerCallback(callback.ID, "✅ "+capitalize(rawGrade), false)
	}

	b.presentPick(callback, pick)
}

// handleAddWord moves the last looked-up word onto the user's study list
func (b *Bot) handleAddWord(callback *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	userID := callback.From.ID

	word, ok := b.quiz.TakeLookup(userID)
	if !ok {
		b.answerCallback(callback.ID, "⚠️ Session expired. Search again.", true)
		return
	}

	_, err := b.items.AddToStudyList(ctx, userID, word, time.Now().UTC())
	if errors.Is(err, database.ErrDuplicate) {
		b.answerCallback(callback.ID, "⚠️ Already in your list.", true)
		return
	}
	if err != nil {
		log.Printf("Error adding %q for user %d: %v", word, userID, err)
		b.answerCallback(callback.ID, "Something went wrong. Please try again.", true)
		return
	}

	b.answerCallback(callback.ID, "✅ Added to your study list!", false)

	markup := createKeyboard([][]MenuButton{
		{{Text: "📚 My Dictionary", CallbackData: "dict_list"}},
	})
	edit := tgbotapi.NewEditMessageReplyMarkup(callback.Message.Chat.ID, callback.Message.MessageID, markup)
	b.send(edit)
}

// handleDictionaryPage shows one page of the user's saved words
func (b *Bot) handleDictionaryPage(callback *tgbotapi.CallbackQuery, page int) {
	ctx := context.Background()
	userID := callback.From.ID

	cards, hasNext, err := b.items.GetUserPage(ctx, userID, page, b.config.PageSize)
	if err != nil {
		log.Printf("Error getting dictionary page for user %d: %v", userID, err)
		b.answerCallback(callback.ID, "Something went wrong. Please try again.", true)
		return
	}

	if len(cards) == 0 && page == 0 {
		b.answerCallback(callback.ID, "Your dictionary is empty. Search some words first!", true)
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>📚 Your Dictionary</b>\n\n")
	for i, card := range cards {
		sb.WriteString(fmt.Sprintf("%d. <b>%s</b> <code>%s</code>\n",
			page*b.config.PageSize+i+1, capitalize(card.Entry.Word), card.Entry.Level))
		sb.WriteString(fmt.Sprintf("└ <i>%s</i>\n\n", card.Entry.Definition))
	}

	var nav []MenuButton
	if page > 0 {
		nav = append(nav, MenuButton{Text: "⬅️ Prev", CallbackData: fmt.Sprintf("dict_page:%d", page-1)})
	}
	if hasNext {
		nav = append(nav, MenuButton{Text: "Next ➡️", CallbackData: fmt.Sprintf("dict_page:%d", page+1)})
	}
	buttons := [][]MenuButton{}
	if len(nav) > 0 {
		buttons = append(buttons, nav)
	}
	buttons = append(buttons, []MenuButton{{Text: "« Back to Menu", CallbackData: "main_menu"}})

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		callback.Message.Chat.ID, callback.Message.MessageID, sb.String(), createKeyboard(buttons))
	edit.ParseMode = "HTML"
	b.send(edit)
	b.answerCallback(callback.ID, "", false)
}
