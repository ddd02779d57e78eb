package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lawbot/internal/ai"
	"lawbot/internal/models"
	"lawbot/internal/storage"
	"lawbot/internal/storage/stubs"
)

// fakeAPI records every outbound call instead of talking to Telegram.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  func(c tgbotapi.Chattable) error
	fileErr  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 1000 + len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if f.fileErr != nil {
		return "", f.fileErr
	}
	return "https://example.invalid/" + fileID, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.sent {
		if edit, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, edit)
		}
	}
	return out
}

// fakeGateway returns canned AI answers and records which operations ran.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (g *fakeGateway) record(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, op)
}

func (g *fakeGateway) reply(op, prefix, in string) string {
	g.record(op)
	if g.fail {
		return ai.Unavailable
	}
	return prefix + in
}

func (g *fakeGateway) Answer(ctx context.Context, question, webContext string) string {
	return g.reply("Answer", "answer:", question)
}

func (g *fakeGateway) Translate(ctx context.Context, text string) string {
	return g.reply("Translate", "translated:", text)
}

func (g *fakeGateway) EstimateFine(ctx context.Context, violation string) string {
	return g.reply("EstimateFine", "fine:", violation)
}

func (g *fakeGateway) DescribePhoto(ctx context.Context, photoBase64 string) string {
	return g.reply("DescribePhoto", "photo:", "")
}

func (g *fakeGateway) GenerateDocument(ctx context.Context, docType string) string {
	return g.reply("GenerateDocument", "doc:", docType)
}

func (g *fakeGateway) Explain(ctx context.Context, articleText string) string {
	return g.reply("Explain", "explained:", articleText)
}

func (g *fakeGateway) Transcribe(ctx context.Context, path string) (string, bool) {
	g.record("Transcribe")
	if g.fail {
		return "", false
	}
	return "spoken question", true
}

func (g *fakeGateway) called(op string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.calls {
		if c == op {
			return true
		}
	}
	return false
}

type fakeSearch struct {
	mu      sync.Mutex
	queries []string
}

func (s *fakeSearch) Snippets(ctx context.Context, query string, max int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return "web snippet"
}

func newTestBot(t *testing.T, db storage.Storage) (*Bot, *fakeAPI, *fakeGateway, *fakeSearch) {
	t.Helper()
	api := &fakeAPI{}
	gw := &fakeGateway{}
	sf := &fakeSearch{}
	b := &Bot{
		api:    api,
		db:     db,
		ai:     gw,
		search: sf,
		modes:  make(map[int64]Mode),
		logger: zap.NewNop(),
	}
	return b, api, gw, sf
}

func seedLawStore(t *testing.T) *stubs.MockDB {
	t.Helper()
	db := stubs.NewMockDB()
	ctx := context.Background()
	articles := []models.LawArticle{
		{ID: 1, LawCode: "traffic", Section: "ជំពូក ១", Title: "មាត្រា ១: មួកសុវត្ថិភាព", Content: "អ្នកបើកបរត្រូវពាក់មួកសុវត្ថិភាព។"},
		{ID: 2, LawCode: "traffic", Section: "ជំពូក ១", Title: "មាត្រា ២: ល្បឿន", Content: "ល្បឿនកំណត់ក្នុងទីក្រុង។"},
		{ID: 3, LawCode: "traffic", Section: "ជំពូក ១", Title: "មាត្រា ៣: ភ្លើងសញ្ញា", Content: "ត្រូវគោរពភ្លើងសញ្ញា។"},
		{ID: 4, LawCode: "traffic", Section: "ជំពូក ១", Title: "មាត្រា ៤: ចំណត", Content: "ហាមចតទីសាធារណៈ។"},
		{ID: 5, LawCode: "traffic", Section: "ជំពូក ២", Title: "មាត្រា ៥: ប័ណ្ណបើកបរ", Content: "ត្រូវមានប័ណ្ណបើកបរ។"},
	}
	for _, a := range articles {
		require.NoError(t, db.SaveArticle(ctx, a))
	}
	return db
}

func textMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{FirstName: "Dara"},
	}
}

func callback(chatID int64, messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cbq-1",
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}
}

func TestHandleStart(t *testing.T) {
	b, api, _, _ := newTestBot(t, stubs.NewMockDB())
	b.setMode(7, ModeCalc)

	msg := textMessage(7, "/start")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}
	b.handleMessage(msg)

	assert.Equal(t, ModeNone, b.mode(7))
	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, tgbotapi.ModeHTML, msgs[0].ParseMode)
	assert.Contains(t, msgs[0].Text, "Dara")
	assert.NotNil(t, msgs[0].ReplyMarkup)
}

func TestCalcModeIsSingleShot(t *testing.T) {
	b, api, gw, _ := newTestBot(t, stubs.NewMockDB())

	b.handleCallbackQuery(callback(7, 50, "tool_calc"))
	assert.Equal(t, ModeCalc, b.mode(7))

	b.handleMessage(textMessage(7, "អត់ពាក់មួក"))

	assert.True(t, gw.called("EstimateFine"))
	assert.Equal(t, ModeNone, b.mode(7))

	msgs := api.messages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].Text, "fine:អត់ពាក់មួក")

	// The next message goes down the normal question path
	b.handleMessage(textMessage(7, "second question"))
	assert.True(t, gw.called("Answer"))
}

func TestTranslateMode(t *testing.T) {
	b, api, gw, _ := newTestBot(t, stubs.NewMockDB())

	b.handleCallbackQuery(callback(7, 50, "tool_translate"))
	assert.Equal(t, ModeTranslate, b.mode(7))

	b.handleMessage(textMessage(7, "hello"))

	assert.True(t, gw.called("Translate"))
	assert.Equal(t, ModeNone, b.mode(7))
	msgs := api.messages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].Text, "translated:hello")
}

func TestTextKeywordHit(t *testing.T) {
	b, api, gw, _ := newTestBot(t, seedLawStore(t))

	b.handleMessage(textMessage(7, "ល្បឿន"))

	assert.False(t, gw.called("Answer"))
	msgs := api.messages()
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Contains(t, last.Text, "មាត្រា ២: ល្បឿន")
	assert.Contains(t, last.Text, "ល្បឿនកំណត់ក្នុងទីក្រុង។")
}

func TestTextFallsBackToAI(t *testing.T) {
	b, api, gw, sf := newTestBot(t, seedLawStore(t))

	b.handleMessage(textMessage(7, "question with no keyword match"))

	assert.True(t, gw.called("Answer"))
	require.Len(t, sf.queries, 1)
	assert.True(t, strings.HasSuffix(sf.queries[0], webSearchSuffix))

	msgs := api.messages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].Text, "answer:question with no keyword match")
}

func TestTextAIUnavailable(t *testing.T) {
	b, api, gw, _ := newTestBot(t, stubs.NewMockDB())
	gw.fail = true

	b.handleMessage(textMessage(7, "anything at all"))

	// Exactly one reply besides the deleted status message
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, ai.Unavailable)
}

func TestMenuDrillDown(t *testing.T) {
	b, api, gw, _ := newTestBot(t, seedLawStore(t))

	// Law code opens the section list
	b.handleCallbackQuery(callback(7, 50, "code_traffic"))
	edits := api.edits()
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Text, "មាតិកាច្បាប់")
	require.NotNil(t, edits[0].ReplyMarkup)
	rows := edits[0].ReplyMarkup.InlineKeyboard
	require.Len(t, rows, 3) // two sections plus back
	assert.Equal(t, "sect|traffic|0", *rows[0][0].CallbackData)
	assert.Equal(t, "sect|traffic|1", *rows[1][0].CallbackData)
	assert.Equal(t, "main", *rows[2][0].CallbackData)

	// Section opens the article list, three buttons per row
	b.handleCallbackQuery(callback(7, 50, "sect|traffic|0"))
	edits = api.edits()
	require.Len(t, edits, 2)
	assert.Contains(t, edits[1].Text, "ជំពូក ១")
	rows = edits[1].ReplyMarkup.InlineKeyboard
	require.Len(t, rows, 3) // 4 articles over two rows, plus back
	require.Len(t, rows[0], 3)
	require.Len(t, rows[1], 1)
	assert.Equal(t, "art|1", *rows[0][0].CallbackData)
	assert.Equal(t, "art|4", *rows[1][0].CallbackData)
	assert.Equal(t, "code_traffic", *rows[2][0].CallbackData)

	// Article shows the content with explain and back buttons
	b.handleCallbackQuery(callback(7, 50, "art|2"))
	edits = api.edits()
	require.Len(t, edits, 3)
	assert.Contains(t, edits[2].Text, "មាត្រា ២: ល្បឿន")
	assert.Contains(t, edits[2].Text, "ល្បឿនកំណត់ក្នុងទីក្រុង។")
	rows = edits[2].ReplyMarkup.InlineKeyboard
	require.Len(t, rows, 2)
	assert.Equal(t, "explain|2", *rows[0][0].CallbackData)
	assert.Equal(t, "sect|traffic|0", *rows[1][0].CallbackData)

	// Explain replaces the article with the simplified rewrite
	b.handleCallbackQuery(callback(7, 50, "explain|2"))
	assert.True(t, gw.called("Explain"))
	edits = api.edits()
	require.Len(t, edits, 5) // progress edit then result
	assert.Contains(t, edits[3].Text, "កំពុងពន្យល់")
	assert.Contains(t, edits[4].Text, "explained:")
}

func TestStaleSectionIndexNoOps(t *testing.T) {
	b, api, _, _ := newTestBot(t, seedLawStore(t))

	b.handleCallbackQuery(callback(7, 50, "sect|traffic|99"))

	assert.Empty(t, api.edits())
	assert.Empty(t, api.messages())
}

func TestUnknownArticleNoOps(t *testing.T) {
	b, api, _, _ := newTestBot(t, seedLawStore(t))

	b.handleCallbackQuery(callback(7, 50, "art|999"))
	b.handleCallbackQuery(callback(7, 50, "explain|999"))
	b.handleCallbackQuery(callback(7, 50, "garbage payload"))

	assert.Empty(t, api.edits())
	assert.Empty(t, api.messages())
}

// The back button on an article recomputes the section index. When the
// section is gone from the list the index falls back to 0.
func TestArticleBackIndexFallsBackToZero(t *testing.T) {
	db := seedLawStore(t)
	b, api, _, _ := newTestBot(t, &renamedSectionsDB{MockDB: db})

	b.handleCallbackQuery(callback(7, 50, "art|1"))

	edits := api.edits()
	require.Len(t, edits, 1)
	rows := edits[0].ReplyMarkup.InlineKeyboard
	assert.Equal(t, "sect|traffic|0", *rows[1][0].CallbackData)
}

// renamedSectionsDB reports section names that match no stored article.
type renamedSectionsDB struct {
	*stubs.MockDB
}

func (d *renamedSectionsDB) ListSections(ctx context.Context, lawCode string) ([]string, error) {
	return []string{"ជំពូកថ្មី ១", "ជំពូកថ្មី ២"}, nil
}

func TestMainCallbackResetsMode(t *testing.T) {
	b, api, _, _ := newTestBot(t, stubs.NewMockDB())
	b.setMode(7, ModeTranslate)

	b.handleCallbackQuery(callback(7, 50, "main"))

	assert.Equal(t, ModeNone, b.mode(7))
	edits := api.edits()
	require.Len(t, edits, 1)
	assert.NotNil(t, edits[0].ReplyMarkup)
}

func TestGenerateDocument(t *testing.T) {
	b, api, gw, _ := newTestBot(t, stubs.NewMockDB())

	b.handleCallbackQuery(callback(7, 50, "gen_complaint"))

	assert.True(t, gw.called("GenerateDocument"))
	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "doc:ពាក្យបណ្តឹង", msgs[0].Text)
	assert.Empty(t, msgs[0].ParseMode)
}

func TestGenerateDocumentUnknownType(t *testing.T) {
	b, api, gw, _ := newTestBot(t, stubs.NewMockDB())

	b.handleCallbackQuery(callback(7, 50, "gen_bogus"))

	assert.False(t, gw.called("GenerateDocument"))
	assert.Empty(t, api.messages())
	assert.Empty(t, api.edits())
}

func TestVoiceDownloadFailure(t *testing.T) {
	b, api, gw, _ := newTestBot(t, stubs.NewMockDB())
	api.fileErr = errors.New("file gone")

	msg := textMessage(7, "")
	msg.Voice = &tgbotapi.Voice{FileID: "voice-1"}
	b.handleMessage(msg)

	assert.False(t, gw.called("Transcribe"))
	edits := api.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, technicalErrorNotice, edits[0].Text)
}

func TestHandleMessageRecoversFromPanic(t *testing.T) {
	b, api, _, _ := newTestBot(t, &panickingDB{MockDB: stubs.NewMockDB()})

	b.handleMessage(textMessage(7, "boom"))

	msgs := api.messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, technicalErrorNotice, msgs[len(msgs)-1].Text)
}

type panickingDB struct {
	*stubs.MockDB
}

func (d *panickingDB) FindByKeyword(ctx context.Context, text string) (*models.LawArticle, error) {
	panic("storage exploded")
}

func TestLongArticleContentIsTruncated(t *testing.T) {
	db := stubs.NewMockDB()
	long := strings.Repeat("ក", maxContentRunes+500)
	require.NoError(t, db.SaveArticle(context.Background(), models.LawArticle{
		ID: 1, LawCode: "traffic", Section: "s", Title: "មាត្រា ១: វែង", Content: long,
	}))
	b, api, _, _ := newTestBot(t, db)

	b.handleMessage(textMessage(7, "វែង"))

	msgs := api.messages()
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1].Text
	assert.NotContains(t, last, long)
	assert.Less(t, len([]rune(last)), maxContentRunes+100)
}

func TestHandleLocation(t *testing.T) {
	b, api, _, _ := newTestBot(t, stubs.NewMockDB())

	msg := textMessage(7, "")
	msg.Location = &tgbotapi.Location{Latitude: 11.56, Longitude: 104.92}
	b.handleMessage(msg)

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, tgbotapi.ModeHTML, msgs[0].ParseMode)
	assert.Contains(t, msgs[0].Text, "google.com/maps")
}
