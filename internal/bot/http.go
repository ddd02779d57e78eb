package bot

import (
	"encoding/json"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HTTPServer exposes the keep-alive endpoints hosting platforms probe,
// plus the Telegram webhook receiver used in webhook mode.
type HTTPServer struct {
	bot         *Bot
	webhookMode bool
}

// NewHTTPServer creates the HTTP server for health checks and webhooks
func NewHTTPServer(bot *Bot, webhookMode bool) *HTTPServer {
	return &HTTPServer{
		bot:         bot,
		webhookMode: webhookMode,
	}
}

// RegisterRoutes registers the endpoints on the provided mux
func (hs *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/", hs.handleRoot)
	mux.HandleFunc("/telegram-webhook", hs.handleWebhook)
}

func (hs *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (hs *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	mode := "polling"
	if hs.webhookMode {
		mode = "webhook"
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Legal Assistant Bot is running (mode: %s)", mode)
}

// handleWebhook receives a Telegram update. The update is processed in
// the background so Telegram gets its acknowledgement quickly.
func (hs *HTTPServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		hs.bot.logger.Warn("Failed to decode webhook update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	go hs.bot.HandleUpdate(update)

	w.WriteHeader(http.StatusOK)
}
