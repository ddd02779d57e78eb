package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lawbot/internal/storage"
)

// Mode governs how the next free-text message from a chat is
// interpreted. It is single-shot: consuming a message in a tool mode
// resets the chat to ModeNone.
type Mode int

const (
	ModeNone Mode = iota
	ModeCalc
	ModeTranslate
)

// telegramAPI is the subset of *tgbotapi.BotAPI the bot uses. Tests
// substitute a recording fake.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// aiGateway is the AI provider boundary. Chat-style calls always return
// displayable text (degrading internally); Transcribe reports
// not-available through its second return value.
type aiGateway interface {
	Answer(ctx context.Context, question, webContext string) string
	Translate(ctx context.Context, text string) string
	EstimateFine(ctx context.Context, violation string) string
	DescribePhoto(ctx context.Context, photoBase64 string) string
	GenerateDocument(ctx context.Context, docType string) string
	Explain(ctx context.Context, articleText string) string
	Transcribe(ctx context.Context, path string) (string, bool)
}

// snippetFetcher is the web search boundary
type snippetFetcher interface {
	Snippets(ctx context.Context, query string, max int) string
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api     telegramAPI
	db      storage.Storage
	ai      aiGateway
	search  snippetFetcher
	modes   map[int64]Mode
	modesMu sync.RWMutex
	logger  *zap.Logger
}

func (b *Bot) mode(chatID int64) Mode {
	b.modesMu.RLock()
	defer b.modesMu.RUnlock()
	return b.modes[chatID]
}

func (b *Bot) setMode(chatID int64, m Mode) {
	b.modesMu.Lock()
	defer b.modesMu.Unlock()
	if m == ModeNone {
		delete(b.modes, chatID)
		return
	}
	b.modes[chatID] = m
}
