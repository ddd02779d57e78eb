package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxContentRunes bounds article content in a single reply; Telegram
// rejects messages past 4096 characters.
const maxContentRunes = 3000

const webSearchSuffix = " ច្បាប់កម្ពុជា"

// handleMessage processes a single inbound message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.sendPlain(message.Chat.ID, technicalErrorNotice, nil)
		}
	}()

	ctx := context.Background()

	switch {
	case message.IsCommand():
		if message.Command() == "start" {
			b.handleStart(message)
		}
	case message.Voice != nil:
		b.handleVoice(ctx, message)
	case len(message.Photo) > 0:
		b.handlePhoto(ctx, message)
	case message.Location != nil:
		b.handleLocation(message)
	case message.Text != "":
		b.handleText(ctx, message)
	}
}

// handleStart resets the chat mode and shows the main menu
func (b *Bot) handleStart(message *tgbotapi.Message) {
	b.setMode(message.Chat.ID, ModeNone)

	name := ""
	if message.From != nil {
		name = message.From.FirstName
	}
	welcome := fmt.Sprintf(
		"សួស្តី <b>%s</b>! 🙏 ស្វាគមន៍មកកាន់ <b>ជំនួយការច្បាប់ AI</b>\n\n"+
			"ខ្ញុំអាចជួយដោះស្រាយបញ្ហាផ្លូវច្បាប់, គណនាប្រាក់ពិន័យ, និងផ្តល់យោបល់បាន។\n\n"+
			"👇 <b>សូមជ្រើសរើសសេវាកម្ម៖</b>", name)

	menu := mainMenu()
	msg := tgbotapi.NewMessage(message.Chat.ID, welcome)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = menu
	if _, err := b.api.Send(msg); err != nil {
		b.sendPlain(message.Chat.ID, stripBoldTags(welcome), &menu)
	}
}

// handleText interprets free text according to the chat's current mode.
// Tool modes are single-shot: the mode resets after one use.
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	back := backToMainMenu()

	switch b.mode(chatID) {
	case ModeCalc:
		b.setMode(chatID, ModeNone)
		status, _ := b.sendPlain(chatID, "🧮 កំពុងគណនា...", nil)
		result := b.ai.EstimateFine(ctx, message.Text)
		b.deleteMessage(chatID, status.MessageID)
		b.sendFormatted(chatID, result, &back)
		return

	case ModeTranslate:
		b.setMode(chatID, ModeNone)
		status, _ := b.sendPlain(chatID, "📝 កំពុងបកប្រែ...", nil)
		result := b.ai.Translate(ctx, message.Text)
		b.deleteMessage(chatID, status.MessageID)
		b.sendFormatted(chatID, fmt.Sprintf("📝 *លទ្ធផល៖*\n\n%s", result), &back)
		return
	}

	status, _ := b.sendPlain(chatID, "🔍 កំពុងស្វែងរក...", nil)

	article, err := b.db.FindByKeyword(ctx, message.Text)
	if err != nil {
		b.logger.Error("Keyword lookup failed", zap.Error(err), zap.Int64("chat_id", chatID))
		article = nil
	}

	if article != nil {
		content := article.Content
		if utf8.RuneCountInString(content) > maxContentRunes {
			content = string([]rune(content)[:maxContentRunes]) + "..."
		}
		b.deleteMessage(chatID, status.MessageID)
		b.sendFormatted(chatID, fmt.Sprintf("📚 *ឯកសារច្បាប់៖*\n\n*%s*\n%s", article.Title, content), &back)
		return
	}

	answer := b.answerWithWebContext(ctx, message.Text)
	b.deleteMessage(chatID, status.MessageID)
	b.sendFormatted(chatID, fmt.Sprintf("🤖 *ចម្លើយ AI៖*\n\n%s", answer), &back)
}

// answerWithWebContext fetches search snippets for the question and
// hands both to the AI gateway
func (b *Bot) answerWithWebContext(ctx context.Context, question string) string {
	snippets := b.search.Snippets(ctx, question+webSearchSuffix, 2)
	if snippets == "" {
		snippets = "No web results."
	}
	return b.ai.Answer(ctx, question, snippets)
}

// handleLocation replies with a map link for nearby police stations
func (b *Bot) handleLocation(message *tgbotapi.Message) {
	mapsURL := fmt.Sprintf("https://www.google.com/maps/search/police+station+near+me/@%f,%f,15z",
		message.Location.Latitude, message.Location.Longitude)

	back := backToMainMenu()
	msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("📍 <a href='%s'>មើលទីតាំងលើផែនទី</a>", mapsURL))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = back
	if _, err := b.api.Send(msg); err != nil {
		b.sendPlain(message.Chat.ID, "📍 "+mapsURL, &back)
	}
}

func stripBoldTags(s string) string {
	s = strings.ReplaceAll(s, "<b>", "")
	return strings.ReplaceAll(s, "</b>", "")
}
