package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"StockScope/internal/domain/models"
	xhttp "StockScope/pkg/http"
	applogger "StockScope/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordStageLatency(string, float64) {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordCacheHit(string)              {}
func (nopMetrics) RecordCacheMiss(string)             {}
func (nopMetrics) RecordUpstreamCall(string)          {}
func (nopMetrics) RecordLastPrice(string, float64)    {}

func testSet() models.IndicatorSet {
	return models.IndicatorSet{
		"moving-average-20":          models.Number(51.2345),
		"last-close":                 models.Number(53.1),
		"relative-strength-index-14": models.Insufficient(),
	}
}

func newTestSynthesizer(baseURL string) *Synthesizer {
	cfg := Config{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		Model:             "gpt-4o-mini",
		MaxTokens:         400,
		Timeout:           time.Second,
		MaxNarrativeChars: 2000,
	}
	return NewSynthesizer(xhttp.NewClient(xhttp.WithTimeout(time.Second)), nopMetrics{}, applogger.Nop(), cfg)
}

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		resp := map[string]interface{}{
			"choices": []interface{}{
				map[string]interface{}{
					"message": map[string]string{"role": "assistant", "content": content},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestSynthesizeParsesSentiment(t *testing.T) {
	srv := completionServer(t, "sentiment: bullish\nMomentum is improving above the 20-day average.")
	defer srv.Close()

	ins := newTestSynthesizer(srv.URL).Synthesize(context.Background(), "AAPL", testSet(), "Technology")
	if ins.Degraded {
		t.Fatalf("unexpected degraded insight")
	}
	if ins.Sentiment != models.SentimentBullish {
		t.Fatalf("sentiment = %s, want bullish", ins.Sentiment)
	}
	if !strings.Contains(ins.Narrative, "Momentum") {
		t.Fatalf("narrative lost: %q", ins.Narrative)
	}
	if strings.Contains(strings.ToLower(ins.Narrative), "sentiment:") {
		t.Fatalf("tag leaked into narrative: %q", ins.Narrative)
	}
}

func TestSynthesizeMissingTagDefaultsNeutral(t *testing.T) {
	srv := completionServer(t, "The picture is mixed with no clear trend.")
	defer srv.Close()

	ins := newTestSynthesizer(srv.URL).Synthesize(context.Background(), "AAPL", testSet(), "")
	if ins.Degraded {
		t.Fatalf("unexpected degraded insight")
	}
	if ins.Sentiment != models.SentimentNeutral {
		t.Fatalf("sentiment = %s, want neutral", ins.Sentiment)
	}
}

func TestSynthesizeDegradesOnBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ins := newTestSynthesizer(srv.URL).Synthesize(context.Background(), "AAPL", testSet(), "")
	if !ins.Degraded {
		t.Fatalf("expected degraded insight")
	}
	if ins.Narrative != models.FallbackNarrative {
		t.Fatalf("narrative = %q, want fallback", ins.Narrative)
	}
	if ins.Sentiment != models.SentimentNeutral {
		t.Fatalf("sentiment = %s, want neutral", ins.Sentiment)
	}
}

func TestSynthesizeDegradesOnEmptyContent(t *testing.T) {
	srv := completionServer(t, "")
	defer srv.Close()

	ins := newTestSynthesizer(srv.URL).Synthesize(context.Background(), "AAPL", testSet(), "")
	if !ins.Degraded {
		t.Fatalf("expected degraded insight for empty content")
	}
}

func TestSynthesizeCapsNarrative(t *testing.T) {
	long := "sentiment: bearish\n" + strings.Repeat("x", 5000)
	srv := completionServer(t, long)
	defer srv.Close()

	ins := newTestSynthesizer(srv.URL).Synthesize(context.Background(), "AAPL", testSet(), "")
	if ins.Degraded {
		t.Fatalf("unexpected degraded insight")
	}
	if len(ins.Narrative) != 2000 {
		t.Fatalf("narrative len = %d, want 2000", len(ins.Narrative))
	}
}

func TestSynthesizeCapKeepsRuneBoundary(t *testing.T) {
	// Each rune is 3 bytes, so a 2000-byte cap lands mid-rune.
	long := "sentiment: neutral\n" + strings.Repeat("€", 1000)
	srv := completionServer(t, long)
	defer srv.Close()

	ins := newTestSynthesizer(srv.URL).Synthesize(context.Background(), "AAPL", testSet(), "")
	if ins.Degraded {
		t.Fatalf("unexpected degraded insight")
	}
	if len(ins.Narrative) > 2000 {
		t.Fatalf("narrative len = %d, want <= 2000", len(ins.Narrative))
	}
	if !utf8.ValidString(ins.Narrative) {
		t.Fatalf("narrative truncated mid-rune: %q", ins.Narrative[len(ins.Narrative)-4:])
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	set := testSet()
	a := BuildPrompt("AAPL", set, "Technology")
	b := BuildPrompt("AAPL", set, "Technology")
	if a != b {
		t.Fatalf("prompt not deterministic")
	}

	lastClose := strings.Index(a, "last-close")
	sma := strings.Index(a, "moving-average-20")
	rsi := strings.Index(a, "relative-strength-index-14")
	if lastClose < 0 || sma < 0 || rsi < 0 {
		t.Fatalf("missing indicator lines:\n%s", a)
	}
	if !(lastClose < sma && sma < rsi) {
		t.Fatalf("indicator lines not in lexical order:\n%s", a)
	}
	if !strings.Contains(a, "relative-strength-index-14: insufficient-data") {
		t.Fatalf("marker not rendered:\n%s", a)
	}
	if !strings.Contains(a, "moving-average-20: 51.2345") {
		t.Fatalf("value not rendered to 4 decimals:\n%s", a)
	}
}
