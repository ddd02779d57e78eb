package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Unavailable is the fixed reply substituted for every provider error.
// Callers rely on always getting displayable text back, never an error.
const Unavailable = "⚠️ AI មានបញ្ហាបច្ចេកទេស។"

const (
	defaultTemperature  = 0.7
	preciseTemperature  = 0.3
	transcriptionLang   = "km"
	answerSystemPrompt  = "You are a Cambodian Law Expert. Answer in KHMER. Keep it short."
	photoAnalysisPrompt = "តើរូបនេះជាអ្វី? បើជាឯកសារច្បាប់ សូមសង្ខេប។ បើជាហេតុការណ៍ សូមណែនាំតាមផ្លូវច្បាប់។ ឆ្លើយជាខ្មែរ។"
)

// Client wraps the OpenAI API behind the handful of prompt shapes the
// bot needs. Every chat-style call degrades to Unavailable on failure.
type Client struct {
	oa     *openai.Client
	model  string
	logger *zap.Logger
}

// NewClient creates an AI gateway talking to the OpenAI API
func NewClient(apiKey, model string, logger *zap.Logger) *Client {
	return &Client{
		oa:     openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// NewClientWithBaseURL creates a gateway against a custom endpoint.
// Used by tests to point the client at a fake provider.
func NewClientWithBaseURL(apiKey, model, baseURL string, logger *zap.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{
		oa:     openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// ask issues one chat completion and flattens every failure mode
// (network, quota, empty response) into the Unavailable string.
func (c *Client) ask(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32) string {
	resp, err := c.oa.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		c.logger.Error("Chat completion failed", zap.Error(err))
		return Unavailable
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("Chat completion returned no choices")
		return Unavailable
	}
	return resp.Choices[0].Message.Content
}

// Answer answers an open legal question, optionally enriched with web
// search snippets passed as context
func (c *Client) Answer(ctx context.Context, question, webContext string) string {
	return c.ask(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: answerSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context: %s\n\nQuestion: %s", webContext, question)},
	}, defaultTemperature)
}

// Translate renders text into formal Khmer, keeping legal terminology
func (c *Client) Translate(ctx context.Context, text string) string {
	prompt := fmt.Sprintf("Translate the following legal text into formal Khmer. Maintain legal terminology:\n\n'%s'", text)
	return c.ask(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, preciseTemperature)
}

// EstimateFine estimates a traffic fine under Cambodia Sub-decree No. 39
func (c *Client) EstimateFine(ctx context.Context, violation string) string {
	prompt := fmt.Sprintf("Calculate traffic fine in Riel for: '%s' based on Cambodia Sub-decree No. 39. Answer in Khmer only.", violation)
	return c.ask(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, defaultTemperature)
}

// DescribePhoto analyzes an inline base64 JPEG and returns legal guidance
func (c *Client) DescribePhoto(ctx context.Context, photoBase64 string) string {
	return c.ask(ctx, []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: photoAnalysisPrompt,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:image/jpeg;base64," + photoBase64,
					},
				},
			},
		},
	}, defaultTemperature)
}

// GenerateDocument drafts a formal Khmer document template
func (c *Client) GenerateDocument(ctx context.Context, docType string) string {
	prompt := fmt.Sprintf("សរសេរគំរូ '%s' ជាភាសាខ្មែរផ្លូវការ។", docType)
	return c.ask(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, preciseTemperature)
}

// Explain rewrites a law article in simple Khmer
func (c *Client) Explain(ctx context.Context, articleText string) string {
	prompt := fmt.Sprintf("Explain this law article in simple Khmer: '%s'", articleText)
	return c.ask(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, defaultTemperature)
}

// Transcribe converts a short voice recording into Khmer text. The
// second return value is false when transcription is not available;
// callers must treat that as terminal, not retryable.
func (c *Client) Transcribe(ctx context.Context, path string) (string, bool) {
	resp, err := c.oa.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
		Language: transcriptionLang,
	})
	if err != nil {
		c.logger.Error("Transcription failed", zap.Error(err), zap.String("path", path))
		return "", false
	}
	return resp.Text, true
}
