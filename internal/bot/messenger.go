package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// technicalErrorNotice is shown when an event cannot be handled at all.
const technicalErrorNotice = "⚠️ មានបញ្ហាបច្ចេកទេស។"

// markdownV2Specials are the characters MarkdownV2 requires escaped.
const markdownV2Specials = `_*[]()~` + "`" + `>#+-=|{}.!`

// escapeMarkdown escapes MarkdownV2 control characters so AI-generated
// text survives the formatted send tier.
func escapeMarkdown(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownV2Specials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// sendFormatted delivers text that may contain markup of unknown
// quality (typically AI output). It tries escaped MarkdownV2, then raw
// HTML, then plain text; the first accepted tier wins. All three
// failing returns the last error for the caller to log.
func (b *Bot) sendFormatted(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	tiers := []struct {
		parseMode string
		text      string
	}{
		{tgbotapi.ModeMarkdownV2, escapeMarkdown(text)},
		{tgbotapi.ModeHTML, text},
		{"", text},
	}

	var lastErr error
	for _, tier := range tiers {
		msg := tgbotapi.NewMessage(chatID, tier.text)
		msg.ParseMode = tier.parseMode
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		if _, err := b.api.Send(msg); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	b.logger.Error("All send tiers failed", zap.Error(lastErr), zap.Int64("chat_id", chatID))
	return lastErr
}

// editFormatted replaces an existing message in place with the same
// tolerance for broken markup. Menus are mostly hand-written HTML, so
// the edit path tries HTML before escaped MarkdownV2.
func (b *Bot) editFormatted(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	tiers := []struct {
		parseMode string
		text      string
	}{
		{tgbotapi.ModeHTML, text},
		{tgbotapi.ModeMarkdownV2, escapeMarkdown(text)},
		{"", text},
	}

	var lastErr error
	for _, tier := range tiers {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, tier.text)
		edit.ParseMode = tier.parseMode
		edit.ReplyMarkup = markup
		if _, err := b.api.Send(edit); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	b.logger.Error("All edit tiers failed", zap.Error(lastErr), zap.Int64("chat_id", chatID))
	return lastErr
}

// sendPlain sends unformatted text, returning the sent message so
// callers can edit or delete transient status messages.
func (b *Bot) sendPlain(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("Failed to send message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return sent, err
}

func (b *Bot) editPlain(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("Failed to edit message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("Failed to delete message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}
