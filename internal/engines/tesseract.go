package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/otiai10/gosseract/v2"
)

const TesseractName = "tesseract"

// TesseractConfig holds configuration for the local Tesseract engine.
type TesseractConfig struct {
	// Languages are Tesseract trained-data identifiers (e.g. "eng", "jpn").
	Languages []string
}

// TesseractEngine runs OCR locally through gosseract. Useful when documents
// cannot leave the machine; recognition quality on dense forms is below the
// vision models, so it is typically paired with one as validator.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine creates a Tesseract-backed engine.
func NewTesseractEngine(cfg TesseractConfig) *TesseractEngine {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &TesseractEngine{
		languages:     langs,
		clientFactory: gosseract.NewClient,
	}
}

// Name returns the engine identifier.
func (e *TesseractEngine) Name() string { return TesseractName }

// Run recognizes the crop with a fresh gosseract client. Tesseract reports a
// mean word confidence in [0, 100], scaled here to [0, 1].
func (e *TesseractEngine) Run(ctx context.Context, img []byte) (*Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return failedResult(err, start), nil
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return failedResult(fmt.Errorf("failed to set languages: %w", err), start), nil
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return failedResult(fmt.Errorf("failed to load image: %w", err), start), nil
	}

	text, err := client.Text()
	if err != nil {
		return failedResult(fmt.Errorf("recognition failed: %w", err), start), nil
	}

	confidence := 0.0
	if words, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(words) > 0 {
		sum := 0.0
		for _, w := range words {
			sum += w.Confidence
		}
		confidence = sum / float64(len(words)) / 100.0
	}

	return &Result{
		Text:       text,
		Confidence: confidence,
		Success:    true,
		Elapsed:    time.Since(start),
	}, nil
}

var _ Engine = (*TesseractEngine)(nil)
