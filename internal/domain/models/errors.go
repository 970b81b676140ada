package models

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds of the analysis pipeline. Fatal kinds surface to the caller;
// backend kinds are absorbed by the insight fallback.
var (
	ErrInvalidTicker       = errors.New("invalid ticker")
	ErrNotFound            = errors.New("ticker not found")
	ErrRateLimited         = errors.New("rate limited by upstream")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrTimeout             = errors.New("timed out")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrBackendTimeout      = errors.New("generative backend timed out")
	ErrBackendRejected     = errors.New("generative backend returned unusable output")
)

// Stage identifies where a request is in its lifecycle.
type Stage string

const (
	StagePending      Stage = "pending"
	StageFetching     Stage = "fetching"
	StageComputing    Stage = "computing"
	StageSynthesizing Stage = "synthesizing"
	StageAssembling   Stage = "assembling"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// AnalysisError carries ticker, stage and underlying cause so the transport
// layer can render a specific message.
type AnalysisError struct {
	Ticker Ticker
	Stage  Stage
	Err    error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s: stage %s: %v", e.Ticker, e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// NewAnalysisError wraps a cause with request context.
func NewAnalysisError(ticker Ticker, stage Stage, err error) *AnalysisError {
	return &AnalysisError{Ticker: ticker, Stage: stage, Err: err}
}

// RateLimitError carries the upstream retry-after hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%v (retry after %s)", ErrRateLimited, e.RetryAfter)
	}
	return ErrRateLimited.Error()
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
