package bot

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// downloadFile fetches a Telegram file into a temp file. The returned
// cleanup removes the file and must run on every exit path.
func (b *Bot) downloadFile(ctx context.Context, fileID, pattern string) (string, func(), error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() {
		os.Remove(tmp.Name())
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	return tmp.Name(), cleanup, nil
}

// handleVoice transcribes a voice note and answers it like a typed
// question
func (b *Bot) handleVoice(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	status, err := b.sendPlain(chatID, "🎧 កំពុងស្តាប់...", nil)
	if err != nil {
		return
	}

	path, cleanup, err := b.downloadFile(ctx, message.Voice.FileID, "voice_*.ogg")
	if err != nil {
		b.logger.Error("Failed to download voice note", zap.Error(err), zap.Int64("chat_id", chatID))
		b.editPlain(chatID, status.MessageID, technicalErrorNotice)
		return
	}
	defer cleanup()

	text, ok := b.ai.Transcribe(ctx, path)
	if !ok {
		b.editPlain(chatID, status.MessageID, "❌ ស្តាប់មិនច្បាស់។")
		return
	}

	b.editPlain(chatID, status.MessageID, fmt.Sprintf("🗣️ \"%s\"\n\n🤖 កំពុងគិត...", text))

	answer := b.answerWithWebContext(ctx, text)
	back := backToMainMenu()
	b.sendFormatted(chatID, fmt.Sprintf("🤖 *ចម្លើយ AI៖*\n\n%s", answer), &back)
}

// handlePhoto runs the vision prompt over the largest photo size
func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	status, err := b.sendPlain(chatID, "📸 កំពុងវិភាគ...", nil)
	if err != nil {
		return
	}

	largest := message.Photo[len(message.Photo)-1]
	path, cleanup, err := b.downloadFile(ctx, largest.FileID, "photo_*.jpg")
	if err != nil {
		b.logger.Error("Failed to download photo", zap.Error(err), zap.Int64("chat_id", chatID))
		b.editPlain(chatID, status.MessageID, "❌ មានបញ្ហារូបភាព")
		return
	}
	defer cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		b.logger.Error("Failed to read photo temp file", zap.Error(err))
		b.editPlain(chatID, status.MessageID, "❌ មានបញ្ហារូបភាព")
		return
	}

	answer := b.ai.DescribePhoto(ctx, base64.StdEncoding.EncodeToString(data))
	b.deleteMessage(chatID, status.MessageID)

	back := backToMainMenu()
	b.sendFormatted(chatID, fmt.Sprintf("🤖 *លទ្ធផល៖*\n\n%s", answer), &back)
}
