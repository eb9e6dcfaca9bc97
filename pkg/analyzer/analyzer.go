// Package analyzer scores screenshots for user focus using an OpenAI
// vision model. It wraps the go-openai client behind a narrow ChatClient
// interface so tests can inject fakes.
package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// AnalysisPrompt instructs the model to rate the screenshot. The model must
// answer with a bare JSON object so the response can be parsed directly.
const AnalysisPrompt = "This is a screenshot taken from a user's computer screen. " +
	"Please analyze the probability of the user being distracted at this moment.\n" +
	"Note: To assess distraction probability, consider whether the user is working, " +
	"such as using code editors, video editors, work software, etc., " +
	"or analyze whether the screenshot shows a webpage and what content it contains. " +
	"If watching a video, is it work-related? For example, if watching educational videos, " +
	"consider it as working or studying; if watching entertainment or gaming videos, " +
	"consider it as resting or being distracted.\n" +
	"Please directly output a focus attention score, where 0 means completely distracted " +
	"and 100 means highly focused. You can freely choose a score between 0-100 to evaluate " +
	"the user's attention focus level.\n" +
	"Please return in JSON format: {\"focus_score\": number}"

const (
	defaultModel         = "gpt-4o-mini"
	defaultMaxFileSizeMB = 10
	defaultMaxRetries    = 3
	defaultRetryDelay    = 2 * time.Second
	defaultMaxTokens     = 100

	bytesPerMB = 1 << 20
)

// allowedMIMETypes is the image upload allow-list.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Validation errors surfaced to the API layer as 400s.
var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrImageTooLarge    = errors.New("image exceeds maximum allowed size")
)

// ChatClient captures the subset of the go-openai client used by the
// analyzer. ListModels serves as the connectivity probe.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (
		openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Config configures an Analyzer. Zero values select defaults; MaxRetries
// below 1 also falls back to the default so at least one attempt runs.
type Config struct {
	Model         string
	MaxFileSizeMB int
	MaxRetries    int
	RetryDelay    time.Duration
	Temperature   float32
	MaxTokens     int
}

// Result is the outcome of one screenshot analysis.
type Result struct {
	FocusScore     int     `json:"focus_score"`
	Confidence     string  `json:"confidence,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
}

// Analyzer scores screenshots via the chat completions API with retry and
// exponential backoff.
type Analyzer struct {
	chat ChatClient
	cfg  Config
}

// New builds an Analyzer from the provided chat client.
func New(chat ChatClient, cfg Config) (*Analyzer, error) {
	if chat == nil {
		return nil, errors.New("chat client is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxFileSizeMB == 0 {
		cfg.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Analyzer{chat: chat, cfg: cfg}, nil
}

// NewFromAPIKey constructs an Analyzer using the default go-openai HTTP
// client.
func NewFromAPIKey(apiKey string, cfg Config) (*Analyzer, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	return New(openai.NewClient(apiKey), cfg)
}

// Model returns the configured model identifier.
func (a *Analyzer) Model() string {
	return a.cfg.Model
}

// MaxFileSizeMB returns the configured upload size limit.
func (a *Analyzer) MaxFileSizeMB() int {
	return a.cfg.MaxFileSizeMB
}

// Ping checks connectivity to the completions API by listing models.
func (a *Analyzer) Ping(ctx context.Context) error {
	if _, err := a.chat.ListModels(ctx); err != nil {
		return fmt.Errorf("listing models: %w", err)
	}
	return nil
}

// AnalyzeImage validates the image and scores it, retrying transient API
// failures with exponential backoff.
func (a *Analyzer) AnalyzeImage(ctx context.Context, data []byte, contentType string) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyImage
	}
	if !allowedMIMETypes[contentType] {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidImageType, contentType)
	}
	if len(data) > a.cfg.MaxFileSizeMB*bytesPerMB {
		return Result{}, fmt.Errorf("%w: %.2fMB > %dMB",
			ErrImageTooLarge, float64(len(data))/bytesPerMB, a.cfg.MaxFileSizeMB)
	}

	started := time.Now()
	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))

	var lastErr error
	for attempt := 0; attempt < a.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := a.cfg.RetryDelay * time.Duration(1<<(attempt-1))
			slog.Warn("analyzer: attempt failed, retrying",
				"attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		score, err := a.complete(ctx, dataURL)
		if err != nil {
			lastErr = err
			continue
		}

		elapsed := time.Since(started).Seconds()
		slog.Info("analyzer: image scored", "score", score, "seconds", elapsed)
		return Result{
			FocusScore:     score,
			Confidence:     "high",
			ProcessingTime: elapsed,
		}, nil
	}

	return Result{}, fmt.Errorf("analyzing image after %d attempts: %w", a.cfg.MaxRetries, lastErr)
}

// complete performs one chat completion round-trip and parses the score.
func (a *Analyzer) complete(ctx context.Context, imageDataURL string) (int, error) {
	request := openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a focus analysis assistant that only returns JSON.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: AnalysisPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageDataURL},
					},
				},
			},
		},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}

	response, err := a.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return 0, fmt.Errorf("chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return 0, errors.New("chat completion returned no choices")
	}

	var payload struct {
		FocusScore *float64 `json:"focus_score"`
	}
	content := response.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return 0, fmt.Errorf("parsing model response %q: %w", content, err)
	}
	if payload.FocusScore == nil {
		return 0, fmt.Errorf("model response %q missing focus_score", content)
	}

	score := int(*payload.FocusScore)
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("score %d out of valid range", score)
	}
	return score, nil
}
