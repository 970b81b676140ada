package insight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"StockScope/internal/domain/models"
	"StockScope/internal/domain/repository"
	xhttp "StockScope/pkg/http"
	applogger "StockScope/pkg/logger"
)

const systemPrompt = "You are an equity analyst. Given technical indicators for one ticker, " +
	"write a short narrative assessment in plain language. Start your reply with a single line " +
	"'sentiment: bullish', 'sentiment: bearish' or 'sentiment: neutral', then the narrative. " +
	"Do not give financial advice."

// Config tunes the generative backend call.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	MaxTokens         int
	Temperature       float64
	Timeout           time.Duration
	MaxNarrativeChars int
}

// Synthesizer produces a narrative Insight from an indicator set via an
// OpenAI-compatible chat completions backend.
type Synthesizer struct {
	client  *xhttp.Client
	metrics repository.Metrics
	logger  *applogger.Logger
	cfg     Config
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(client *xhttp.Client, metrics repository.Metrics, logger *applogger.Logger, cfg Config) *Synthesizer {
	return &Synthesizer{client: client, metrics: metrics, logger: logger, cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Synthesize always returns a usable Insight. Backend failures are logged
// and counted, then degrade to the neutral fallback; the pipeline keeps
// going with indicator data intact.
func (s *Synthesizer) Synthesize(ctx context.Context, ticker models.Ticker, set models.IndicatorSet, sector string) models.Insight {
	ins, err := s.generate(ctx, ticker, set, sector)
	if err != nil {
		s.metrics.RecordError(backendErrorKind(err))
		s.logger.Warn("insight degraded",
			applogger.String("ticker", ticker.String()),
			applogger.Error(err),
		)
		return models.DegradedInsight()
	}
	return ins
}

func (s *Synthesizer) generate(ctx context.Context, ticker models.Ticker, set models.IndicatorSet, sector string) (models.Insight, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req := chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(ticker, set, sector)},
		},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	var resp chatResponse
	err := s.client.SendAndParse(reqCtx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    s.cfg.BaseURL + "/v1/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + s.cfg.APIKey,
			"Content-Type":  "application/json",
		},
		Body: req,
	}, &resp)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.Insight{}, fmt.Errorf("%s: %w", ticker, models.ErrBackendTimeout)
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return models.Insight{}, fmt.Errorf("%s: status %d: %w", ticker, se.Status, models.ErrBackendRejected)
		}
		return models.Insight{}, fmt.Errorf("%s: %v: %w", ticker, err, models.ErrBackendRejected)
	}

	if len(resp.Choices) == 0 {
		return models.Insight{}, fmt.Errorf("%s: no choices: %w", ticker, models.ErrBackendRejected)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return models.Insight{}, fmt.Errorf("%s: empty narrative: %w", ticker, models.ErrBackendRejected)
	}

	sentiment, narrative := splitSentiment(content)
	if narrative == "" {
		return models.Insight{}, fmt.Errorf("%s: empty narrative: %w", ticker, models.ErrBackendRejected)
	}
	if s.cfg.MaxNarrativeChars > 0 && len(narrative) > s.cfg.MaxNarrativeChars {
		cut := s.cfg.MaxNarrativeChars
		for cut > 0 && !utf8.RuneStart(narrative[cut]) {
			cut--
		}
		narrative = narrative[:cut]
	}

	return models.Insight{Narrative: narrative, Sentiment: sentiment}, nil
}

// splitSentiment strips the leading sentiment tag line. A missing or
// unrecognized tag defaults to neutral with the full content as narrative.
func splitSentiment(content string) (models.Sentiment, string) {
	first, rest, found := strings.Cut(content, "\n")
	tag, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(first)), "sentiment:")
	if !ok {
		return models.SentimentNeutral, content
	}

	narrative := content
	if found {
		narrative = strings.TrimSpace(rest)
	} else {
		narrative = ""
	}

	switch models.Sentiment(strings.TrimSpace(tag)) {
	case models.SentimentBullish:
		return models.SentimentBullish, narrative
	case models.SentimentBearish:
		return models.SentimentBearish, narrative
	case models.SentimentNeutral:
		return models.SentimentNeutral, narrative
	default:
		return models.SentimentNeutral, content
	}
}

func backendErrorKind(err error) string {
	if errors.Is(err, models.ErrBackendTimeout) {
		return "backend_timeout"
	}
	return "backend_rejected"
}
