// Package engines defines the OCR capability consumed by the document
// pipeline: given an encoded image, asynchronously return text and a
// confidence score.
//
// Engines never return an error for ordinary recognition failure. A failed
// read is signalled by a Result with Success=false, the sentinel failure
// text, and zero confidence, which the consensus scorer routes to human
// review. Errors are reserved for programmer mistakes (nil image, unknown
// engine name).
package engines

import (
	"context"
	"time"
)

// FailureText is the sentinel recorded when an engine cannot produce a
// reading. It flows into the stored result so reviewers can see which fields
// failed outright.
const FailureText = "[ocr-failed]"

// Result is the outcome of one engine invocation on one crop.
type Result struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Success    bool          `json:"success"`
	ErrorMsg   string        `json:"error_message,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Engine reads text from an encoded (PNG/JPEG) image.
type Engine interface {
	// Name returns the engine identifier (e.g. "dummy", "vision-mini").
	Name() string

	// Run extracts text from the image. Recognition failures are reported
	// in the Result, not as an error.
	Run(ctx context.Context, image []byte) (*Result, error)
}

// failedResult builds the sentinel result for a recognition failure.
func failedResult(err error, start time.Time) *Result {
	return &Result{
		Text:       FailureText,
		Confidence: 0.0,
		Success:    false,
		ErrorMsg:   err.Error(),
		Elapsed:    time.Since(start),
	}
}
