package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	maxSectionButtonRunes = 28
	articlesPerRow        = 3
)

// handleCallbackQuery processes inline keyboard button clicks. Stale or
// malformed payloads (an index past the section list, a deleted article
// id) silently no-op: the prior menu stays on screen untouched.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	// Answer the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback query", zap.Error(err))
	}

	if query.Message == nil {
		return
	}

	ctx := context.Background()
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	cb := parseCallback(query.Data)

	switch cb.kind {
	case cbMain:
		b.setMode(chatID, ModeNone)
		menu := mainMenu()
		b.editFormatted(chatID, messageID, "សួស្តី! 🙏 ខ្ញុំជាជំនួយការច្បាប់។ សូមជ្រើសរើស៖", &menu)

	case cbHelpUsage:
		back := backToMainMenu()
		helpText := "ℹ️ <b>របៀបប្រើប្រាស់ Bot នេះ៖</b>\n\n" +
			"1. <b>🗣️ សួរតាមសំឡេង:</b> ចុច Mic រួចនិយាយ។\n" +
			"2. <b>💬 សួរតាមអក្សរ:</b> វាយសំណួរផ្ទាល់។\n" +
			"3. <b>📸 វិភាគរូបភាព:</b> ផ្ញើរូបភាពឯកសារច្បាប់។\n" +
			"4. <b>🧮 គណនាពិន័យ:</b> ចូលម៉ឺនុយ 'គណនាពិន័យ'។"
		b.editFormatted(chatID, messageID, helpText, &back)

	case cbAskAIInfo:
		back := backToMainMenu()
		b.editFormatted(chatID, messageID, "🤖 <b>របៀបសួរ AI:</b>\n\nវាយសំណួររបស់អ្នកផ្ទាល់ ខ្ញុំនឹងឆ្លើយភ្លាមៗ!", &back)

	case cbToolCalc:
		b.setMode(chatID, ModeCalc)
		back := backToMainMenu()
		b.editFormatted(chatID, messageID,
			"🧮 <b>ម៉ាស៊ីនគណនាពិន័យ</b>\n\nសរសេរកំហុសរបស់អ្នកមក (ឧទាហរណ៍: អត់ពាក់មួក, ជិះបញ្ច្រាស)...", &back)

	case cbToolTranslate:
		b.setMode(chatID, ModeTranslate)
		back := backToMainMenu()
		b.editFormatted(chatID, messageID, "📝 <b>អ្នកបកប្រែច្បាប់</b>\n\nសូមផ្ញើអត្ថបទមកខ្ញុំ...", &back)

	case cbInfoLocation:
		back := backToMainMenu()
		b.sendFormatted(chatID, "📍 សូមផ្ញើ **Location** មកខ្ញុំ (ចុចរូប 📎 -> Location)", &back)

	case cbGenMenu:
		menu := generatorMenu()
		b.editFormatted(chatID, messageID, "📝 ជ្រើសរើសលិខិត៖", &menu)

	case cbGenDoc:
		b.handleGenerateDocument(ctx, chatID, messageID, cb.docType)

	case cbExplain:
		b.handleExplain(ctx, chatID, messageID, cb.articleID)

	case cbLawCode:
		b.showSectionList(ctx, chatID, messageID, cb.lawCode)

	case cbSection:
		b.showArticleList(ctx, chatID, messageID, cb.lawCode, cb.sectionIdx)

	case cbArticle:
		b.showArticle(ctx, chatID, messageID, cb.articleID)
	}
}

// handleGenerateDocument drafts a document template. Documents are sent
// plain: generated templates regularly contain characters the markup
// modes reject.
func (b *Bot) handleGenerateDocument(ctx context.Context, chatID int64, messageID int, docType string) {
	docName, ok := generatorDocTypes[docType]
	if !ok {
		return
	}

	b.editPlain(chatID, messageID, "⏳ កំពុងសរសេរ...")
	content := b.ai.GenerateDocument(ctx, docName)
	b.deleteMessage(chatID, messageID)

	back := backToMainMenu()
	b.sendPlain(chatID, content, &back)
}

// handleExplain replaces the article message with a simplified rewrite
func (b *Bot) handleExplain(ctx context.Context, chatID int64, messageID int, articleID uint32) {
	article, err := b.db.GetArticle(ctx, articleID)
	if err != nil {
		b.logger.Error("Failed to fetch article for explanation", zap.Error(err), zap.Uint32("article_id", articleID))
		return
	}
	if article == nil {
		return
	}

	b.editFormatted(chatID, messageID, fmt.Sprintf("💡 <b>កំពុងពន្យល់...</b>\n\n%s", article.Title), nil)

	explanation := b.ai.Explain(ctx, article.Title+"\n"+article.Content)
	back := backToMainMenu()
	b.editFormatted(chatID, messageID, explanation, &back)
}

// showSectionList renders the distinct sections of a law code, one
// button per row. Buttons carry (law_code, index) instead of the
// section text: section names may contain characters unsafe for
// callback payloads, and an index keeps the payload short.
func (b *Bot) showSectionList(ctx context.Context, chatID int64, messageID int, lawCode string) {
	sections, err := b.db.ListSections(ctx, lawCode)
	if err != nil {
		b.logger.Error("Failed to list sections", zap.Error(err), zap.String("law_code", lawCode))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for idx, section := range sections {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📂 "+sectionButtonLabel(section), sectionCallback(lawCode, idx)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 ត្រឡប់ទៅម៉ឺនុយដើម", "main"),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.editFormatted(chatID, messageID, "📖 <b>មាតិកាច្បាប់៖</b>", &keyboard)
}

// showArticleList resolves a section index back to its name and lists
// the section's articles, batched three buttons per row
func (b *Bot) showArticleList(ctx context.Context, chatID int64, messageID int, lawCode string, sectionIdx int) {
	sections, err := b.db.ListSections(ctx, lawCode)
	if err != nil {
		b.logger.Error("Failed to list sections", zap.Error(err), zap.String("law_code", lawCode))
		return
	}
	if sectionIdx >= len(sections) {
		// Stale index from an old keyboard; leave the menu as is.
		return
	}
	section := sections[sectionIdx]

	articles, err := b.db.ListArticles(ctx, lawCode, section)
	if err != nil {
		b.logger.Error("Failed to list articles",
			zap.Error(err),
			zap.String("law_code", lawCode),
			zap.String("section", section),
		)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, ref := range articles {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			"📄 "+articleButtonLabel(ref.Title), articleCallback(ref.ID),
		))
		if len(row) == articlesPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 ត្រឡប់", lawCodeCallback(lawCode)),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.editFormatted(chatID, messageID, fmt.Sprintf("📂 <b>%s</b>", section), &keyboard)
}

// showArticle renders the full article with explain and back buttons.
// The back button needs the section's index, recomputed by scanning the
// section list; a section no longer present falls back to index 0.
func (b *Bot) showArticle(ctx context.Context, chatID int64, messageID int, articleID uint32) {
	article, err := b.db.GetArticle(ctx, articleID)
	if err != nil {
		b.logger.Error("Failed to fetch article", zap.Error(err), zap.Uint32("article_id", articleID))
		return
	}
	if article == nil {
		return
	}

	sections, err := b.db.ListSections(ctx, article.LawCode)
	if err != nil {
		b.logger.Error("Failed to list sections", zap.Error(err), zap.String("law_code", article.LawCode))
		return
	}
	sectionIdx := 0
	for idx, section := range sections {
		if section == article.Section {
			sectionIdx = idx
			break
		}
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💡 ពន្យល់ខ្ញុំ", explainCallback(articleID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 ត្រឡប់", sectionCallback(article.LawCode, sectionIdx)),
		),
	)
	b.editFormatted(chatID, messageID, fmt.Sprintf("*%s*\n\n%s", article.Title, article.Content), &keyboard)
}

// sectionButtonLabel shortens a section name for a button: anything
// from the first parenthesis on is dropped, then the label is capped at
// 28 runes.
func sectionButtonLabel(section string) string {
	short := section
	if i := strings.Index(short, "("); i >= 0 {
		short = short[:i]
	}
	short = strings.TrimSpace(short)
	if utf8.RuneCountInString(short) > maxSectionButtonRunes+2 {
		short = string([]rune(short)[:maxSectionButtonRunes]) + ".."
	}
	return short
}

// articleButtonLabel keeps only the part of the title before the colon
func articleButtonLabel(title string) string {
	if i := strings.Index(title, ":"); i >= 0 {
		return title[:i]
	}
	return title
}
