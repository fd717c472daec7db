// Package compose turns a play description into post text.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wadelive/wade/engine"
)

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.85
	DefaultMaxTokens   = 300

	userPrefix = "Write a Bluesky post reacting to this: "
)

var tracer = otel.Tracer("wade/compose")

var ErrEmptyCompletion = errors.New("model returned no text")

// LoadPrompt reads the system prompt (the bot's persona) from a text file. A missing or empty
// file is an error; the bot can't run without one.
func LoadPrompt(p string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("reading prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s is empty", p)
	}
	return prompt, nil
}

type Config struct {
	APIKey string
	// system prompt
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int64
	// for tests and proxies; empty means the public API
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	Logger     *slog.Logger
}

// OpenAI composes posts with a chat completion model.
type OpenAI struct {
	client openai.Client
	cfg    Config
	logger *slog.Logger
}

var _ engine.Composer = (*OpenAI)(nil)

func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("compose: API key is required")
	}
	if cfg.Prompt == "" {
		return nil, fmt.Errorf("compose: system prompt is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger.With("system", "compose", "model", cfg.Model),
	}, nil
}

func (o *OpenAI) Compose(ctx context.Context, source string) (string, error) {
	ctx, span := tracer.Start(ctx, "Compose")
	defer span.End()
	span.SetAttributes(attribute.String("model", o.cfg.Model))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(o.cfg.Prompt),
			openai.UserMessage(userPrefix + source),
		},
		Model:       openai.ChatModel(o.cfg.Model),
		Temperature: openai.Float(o.cfg.Temperature),
		MaxTokens:   openai.Int(o.cfg.MaxTokens),
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	o.logger.Debug("composed post", "tokens", resp.Usage.TotalTokens)
	return text, nil
}

// Passthrough posts the play description as-is. Useful for dry runs without model access.
type Passthrough struct{}

var _ engine.Composer = Passthrough{}

func (Passthrough) Compose(ctx context.Context, source string) (string, error) {
	return source, nil
}
