package engines

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// MockEngine is an Engine for testing.
type MockEngine struct {
	// Configurable behavior
	EngineName   string
	ResponseText string
	Confidence   float64
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)

	// State
	requestCount atomic.Int64
}

// NewMockEngine creates a mock engine with sensible defaults.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		EngineName:   MockName,
		ResponseText: "mock reading",
		Confidence:   0.95,
	}
}

// Name returns the engine identifier.
func (e *MockEngine) Name() string { return e.EngineName }

// Run returns the configured reading, or the sentinel failure result when
// the engine is configured to fail.
func (e *MockEngine) Run(ctx context.Context, img []byte) (*Result, error) {
	start := time.Now()
	count := e.requestCount.Add(1)

	if e.Latency > 0 {
		select {
		case <-time.After(e.Latency):
		case <-ctx.Done():
			return failedResult(ctx.Err(), start), nil
		}
	}

	if e.ShouldFail || (e.FailAfter > 0 && int(count) > e.FailAfter) {
		return failedResult(errors.New("mock engine configured to fail"), start), nil
	}

	return &Result{
		Text:       e.ResponseText,
		Confidence: e.Confidence,
		Success:    true,
		Elapsed:    time.Since(start),
	}, nil
}

// RequestCount returns the number of requests made.
func (e *MockEngine) RequestCount() int64 { return e.requestCount.Load() }

var _ Engine = (*MockEngine)(nil)
