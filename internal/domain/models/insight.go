package models

// Sentiment is the coarse tag attached to a narrative.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// FallbackNarrative is returned when the generative backend is unavailable
// or rejects the request. The pipeline still delivers indicator data.
const FallbackNarrative = "analysis unavailable"

// Insight is the generated narrative assessment for one request. It is never
// cached across tickers.
type Insight struct {
	Narrative string    `json:"narrative"`
	Sentiment Sentiment `json:"sentiment"`
	Degraded  bool      `json:"degraded,omitempty"`
}

// DegradedInsight is the deliberate partial-failure fallback.
func DegradedInsight() Insight {
	return Insight{Narrative: FallbackNarrative, Sentiment: SentimentNeutral, Degraded: true}
}
