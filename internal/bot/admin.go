package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/lexigo/internal/excel"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// adminPanelButtons returns the admin panel keyboard layout
func adminPanelButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📊 Statistics", CallbackData: "admin_stats"},
			{Text: "📢 Mailing", CallbackData: "admin_mailing"},
		},
	}
}

// handleAdminCommand shows the admin panel
func (b *Bot) handleAdminCommand(message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, "👨‍💼 <b>Admin Panel</b>")
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = createKeyboard(adminPanelButtons())
	b.send(msg)
}

// handleAdminCallback handles admin panel button presses
func (b *Bot) handleAdminCallback(callback *tgbotapi.CallbackQuery) {
	if !b.isAdmin(callback.From.ID) {
		b.answerCallback(callback.ID, "", false)
		return
	}

	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	switch callback.Data {
	case "admin_stats":
		b.showAdminStats(chatID, messageID)
		b.answerCallback(callback.ID, "", false)

	case "admin_mailing":
		b.setBroadcastMode(callback.From.ID, true)
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"📢 <b>Mailing</b>\n\nSend me the message you want to broadcast.\nIt can be text, photo, video, or anything else.",
			createKeyboard([][]MenuButton{
				{{Text: "❌ Cancel", CallbackData: "admin_cancel"}},
			}))
		edit.ParseMode = "HTML"
		b.send(edit)
		b.answerCallback(callback.ID, "", false)

	case "admin_cancel":
		b.setBroadcastMode(callback.From.ID, false)
		fallthrough

	case "admin_back":
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"👨‍💼 <b>Admin Panel</b>", createKeyboard(adminPanelButtons()))
		edit.ParseMode = "HTML"
		b.send(edit)
		b.answerCallback(callback.ID, "", false)

	default:
		b.answerCallback(callback.ID, "", false)
	}
}

// showAdminStats renders system-wide counters
func (b *Bot) showAdminStats(chatID int64, messageID int) {
	ctx := context.Background()

	total, active, err := b.users.Counts(ctx)
	if err != nil {
		log.Printf("Error getting user counts: %v", err)
	}
	dictCount, err := b.dictionary.Count(ctx)
	if err != nil {
		log.Printf("Error getting dictionary count: %v", err)
	}
	itemCount, err := b.items.Count(ctx)
	if err != nil {
		log.Printf("Error getting study item count: %v", err)
	}

	text := "📊 <b>Statistics</b>\n\n" +
		fmt.Sprintf("👥 Total users: <b>%d</b>\n", total) +
		fmt.Sprintf("✅ Active users: <b>%d</b>\n", active) +
		fmt.Sprintf("📖 Global dictionary: <b>%d</b> words\n", dictCount) +
		fmt.Sprintf("🧠 Words being studied: <b>%d</b>", itemCount)

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text,
		createKeyboard([][]MenuButton{
			{{Text: "🔙 Back", CallbackData: "admin_back"}},
		}))
	edit.ParseMode = "HTML"
	b.send(edit)
}

// runBroadcast copies the admin's message to every active user. Users who
// blocked the bot get marked inactive so later broadcasts skip them.
func (b *Bot) runBroadcast(message *tgbotapi.Message) {
	ctx := context.Background()

	userIDs, err := b.users.GetAllActiveIDs(ctx)
	if err != nil {
		log.Printf("Error getting broadcast recipients: %v", err)
		b.send(tgbotapi.NewMessage(message.Chat.ID, "❌ Could not load the recipient list."))
		return
	}

	total := len(userIDs)
	if total == 0 {
		b.send(tgbotapi.NewMessage(message.Chat.ID, "❌ No users found."))
		return
	}

	progressMsg, err := b.api.Send(tgbotapi.NewMessage(message.Chat.ID,
		fmt.Sprintf("📤 Sending...\n\n%s 0%%\n✅ 0 / %d sent", progressBar(0), total)))
	if err != nil {
		log.Printf("Error sending progress message: %v", err)
	}

	var sent, blocked, failed int
	for i, userID := range userIDs {
		copyMsg := tgbotapi.NewCopyMessage(userID, message.Chat.ID, message.MessageID)
		if _, err := b.api.CopyMessage(copyMsg); err != nil {
			failed++
			if isBlockedError(err) {
				log.Printf("User %d blocked the bot, marking as inactive", userID)
				if markErr := b.users.MarkInactive(ctx, userID); markErr != nil {
					log.Printf("Error marking user %d inactive: %v", userID, markErr)
				}
				blocked++
			}
		} else {
			sent++
		}

		if (i+1)%b.config.BroadcastProgressStep == 0 || i+1 == total {
			percent := (i + 1) * 100 / total
			edit := tgbotapi.NewEditMessageText(message.Chat.ID, progressMsg.MessageID,
				fmt.Sprintf("📤 Sending...\n\n%s %d%%\n✅ %d / %d sent\n🚫 Blocked: %d",
					progressBar(percent), percent, sent, total, blocked))
			b.send(edit)
		}

		// Telegram allows roughly 30 messages per second; stay well under
		time.Sleep(b.config.BroadcastPause)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(message.Chat.ID, progressMsg.MessageID,
		fmt.Sprintf("✅ <b>Mailing complete!</b>\n\n"+
			"👥 Total: <b>%d</b>\n"+
			"✅ Sent: <b>%d</b>\n"+
			"🚫 Blocked: <b>%d</b>\n"+
			"❌ Failed: <b>%d</b>", total, sent, blocked, failed),
		createKeyboard(adminPanelButtons()))
	edit.ParseMode = "HTML"
	b.send(edit)
}

// progressBar renders a ten-segment text progress bar
func progressBar(percent int) string {
	filled := percent / 10
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

// handleImportCommand puts the admin into file-upload mode
func (b *Bot) handleImportCommand(message *tgbotapi.Message) {
	b.setImportMode(message.From.ID, true)
	b.send(tgbotapi.NewMessage(message.Chat.ID,
		"📥 Send an .xlsx or .csv file with dictionary entries.\n\n"+
			"Columns: word, definition, example, pronunciation, level, importance rate, synonyms.\n"+
			"The first row is treated as a header. Send /cancel to abort."))
}

// handleImportUpload downloads the attached file and imports its entries
func (b *Bot) handleImportUpload(message *tgbotapi.Message) {
	doc := message.Document

	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		b.send(tgbotapi.NewMessage(message.Chat.ID, "❌ Unsupported file type. Please send .xlsx or .csv."))
		return
	}

	localPath, err := b.downloadDocument(doc, ext)
	if err != nil {
		log.Printf("Error downloading import file: %v", err)
		b.send(tgbotapi.NewMessage(message.Chat.ID, "❌ Could not download the file. Please try again."))
		return
	}
	defer os.Remove(localPath)

	config := excel.DefaultImportConfig()
	config.FilePath = localPath

	result, err := excel.ImportEntries(context.Background(), b.dictionary, config)
	if err != nil {
		log.Printf("Error importing entries: %v", err)
		b.send(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("❌ Import failed: %v", err)))
		return
	}

	var sb strings.Builder
	sb.WriteString("✅ Import finished:\n")
	sb.WriteString(fmt.Sprintf("- Processed: %d\n", result.TotalProcessed))
	sb.WriteString(fmt.Sprintf("- Created: %d\n", result.Created))
	sb.WriteString(fmt.Sprintf("- Updated: %d\n", result.Updated))
	if len(result.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("\n❌ Errors (%d):\n", len(result.Errors)))
		for i, errMsg := range result.Errors {
			if i == 10 {
				sb.WriteString(fmt.Sprintf("... and %d more\n", len(result.Errors)-10))
				break
			}
			sb.WriteString("- " + errMsg + "\n")
		}
	}

	b.send(tgbotapi.NewMessage(message.Chat.ID, sb.String()))
}

// downloadDocument fetches a Telegram document into a temp file
func (b *Bot) downloadDocument(doc *tgbotapi.Document, ext string) (string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		return "", fmt.Errorf("failed to resolve file: %v", err)
	}

	resp, err := http.Get(file.Link(b.token))
	if err != nil {
		return "", fmt.Errorf("failed to download file: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected download status: %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "lexigo-import-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save file: %v", err)
	}

	return tmp.Name(), nil
}
