package engines

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	VisionMiniName = "vision-mini"
	VisionNanoName = "vision-nano"

	visionMiniModel = "gpt-4.1-mini"
	visionNanoModel = "gpt-4.1-nano"

	// Chat completions report no per-token confidence, so a successful read
	// carries a fixed score. The consensus scorer relies on cross-engine
	// agreement rather than this value.
	visionConfidence = 0.99

	visionMaxTokens = 300

	visionPrompt = "Transcribe the text in this image. Ignore line breaks and " +
		"spaces and write all characters as one continuous string. Output " +
		"only the transcription."
)

// VisionConfig holds configuration for a vision-model OCR engine.
type VisionConfig struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
}

// VisionEngine reads text from crops with an OpenAI vision model.
type VisionEngine struct {
	name       string
	model      string
	maxRetries int
	retryDelay time.Duration
	client     openai.Client
}

// NewVisionEngine creates a vision OCR engine. name distinguishes the
// primary ("vision-mini") and validator ("vision-nano") roles.
func NewVisionEngine(name string, cfg VisionConfig) *VisionEngine {
	if cfg.Model == "" {
		if name == VisionNanoName {
			cfg.Model = visionNanoModel
		} else {
			cfg.Model = visionMiniModel
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// The SDK's own retry layer is disabled; retry-go below controls
		// backoff so all engines share one retry policy.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &VisionEngine{
		name:       name,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client:     openai.NewClient(opts...),
	}
}

// Name returns the engine identifier.
func (e *VisionEngine) Name() string { return e.name }

// Run sends the crop to the vision model as a data URL and returns the
// transcription. Transport and API failures surface as the sentinel failure
// result, never as an error.
func (e *VisionEngine) Run(ctx context.Context, img []byte) (*Result, error) {
	start := time.Now()

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(e.model),
		MaxTokens: openai.Int(visionMaxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(visionPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
	}

	var text string
	err := retry.Do(
		func() error {
			resp, err := e.client.Chat.Completions.New(ctx, params)
			if err != nil {
				var apiErr *openai.Error
				if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 &&
					apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
					return retry.Unrecoverable(err)
				}
				return err
			}
			if len(resp.Choices) == 0 {
				return retry.Unrecoverable(errors.New("empty completion response"))
			}
			text = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(e.maxRetries)),
		retry.Delay(e.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return failedResult(err, start), nil
	}

	return &Result{
		Text:       text,
		Confidence: visionConfidence,
		Success:    true,
		Elapsed:    time.Since(start),
	}, nil
}

var _ Engine = (*VisionEngine)(nil)
