package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

const (
	// MaxInputChars is the longest source text sent to the model.
	MaxInputChars = 20000
	DefaultCount  = 12
	MinCount      = 1
	MaxCount      = 50
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("flashcard generator is not configured")

const systemPrompt = `You generate study flashcards from input material.
Return ONLY valid JSON: an array of objects with keys front and back.
Each front is a concise question/prompt. Each back is a precise answer.
Avoid duplicates, avoid trivial facts, and focus on high-value concepts.`

// Generator turns source material into flashcard drafts.
type Generator interface {
	Generate(ctx context.Context, text string, count int) ([]models.CardDraft, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OpenAIGenerator calls an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// NewOpenAI builds a generator. A nil client (empty API key) makes every
// Generate call fail with ErrNotConfigured.
func NewOpenAI(cfg Config) *OpenAIGenerator {
	g := &OpenAIGenerator{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
	if g.model == "" {
		g.model = openai.GPT4oMini
	}
	if g.timeout <= 0 {
		g.timeout = 60 * time.Second
	}
	if cfg.APIKey == "" {
		return g
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	g.client = openai.NewClientWithConfig(clientConfig)
	return g
}

// Configured reports whether an API client is available.
func (g *OpenAIGenerator) Configured() bool {
	return g.client != nil
}

// Generate asks the model for count flashcards covering text.
func (g *OpenAIGenerator) Generate(ctx context.Context, text string, count int) ([]models.CardDraft, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}
	text, count = NormalizeRequest(text, count)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	log := logger.FromContext(ctx).WithPrefix("generator")
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text, count)},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Error("chat completion failed after %v: %v", time.Since(start), err)
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	cards, err := ParseCards(resp.Choices[0].Message.Content)
	if err != nil {
		log.Warn("failed to parse model output: %v", err)
		return nil, err
	}
	log.Debug("generated %d cards in %v, tokens=%d", len(cards), time.Since(start), resp.Usage.TotalTokens)
	return cards, nil
}

func userPrompt(text string, count int) string {
	return fmt.Sprintf("Create %d flashcards from the following content. Respond with JSON only.\nCONTENT:\n\n%s", count, text)
}

// NormalizeRequest trims and truncates text to MaxInputChars runes and
// clamps count to [MinCount, MaxCount]; a non-positive count means DefaultCount.
func NormalizeRequest(text string, count int) (string, int) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > MaxInputChars {
		text = string([]rune(text)[:MaxInputChars])
	}

	switch {
	case count <= 0:
		count = DefaultCount
	case count > MaxCount:
		count = MaxCount
	}
	return text, count
}

// ParseCards extracts flashcards from model output. The outermost JSON array
// is taken from the content, so surrounding prose or code fences are ignored.
// Entries missing a front or back are dropped.
func ParseCards(content string) ([]models.CardDraft, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	jsonText := content
	if start >= 0 && end > start {
		jsonText = content[start : end+1]
	}

	var raw []map[string]any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON output: %w", err)
	}

	cards := make([]models.CardDraft, 0, len(raw))
	for _, entry := range raw {
		front := stringField(entry["front"])
		back := stringField(entry["back"])
		if front == "" || back == "" {
			continue
		}
		cards = append(cards, models.CardDraft{Front: front, Back: back})
	}
	return cards, nil
}

func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
