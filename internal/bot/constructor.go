package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lawbot/internal/ai"
	"lawbot/internal/search"
	"lawbot/internal/storage"
)

// NewBot creates a new Telegram bot
func NewBot(token string, db storage.Storage, aiClient *ai.Client, fetcher *search.Fetcher, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return &Bot{
		api:    api,
		db:     db,
		ai:     aiClient,
		search: fetcher,
		modes:  make(map[int64]Mode),
		logger: logger,
	}, nil
}
