package report

import (
	"encoding/json"
	"strings"
	"testing"

	"StockScope/internal/domain/models"
)

func testInputs(narrative string) (models.IndicatorSet, models.Insight) {
	set := models.IndicatorSet{
		"moving-average-20": models.Number(50.5),
		"last-close":        models.Number(53.1),
	}
	return set, models.Insight{Narrative: narrative, Sentiment: models.SentimentBullish}
}

func TestAssembleWithinCeiling(t *testing.T) {
	set, ins := testInputs("Short and sweet.")
	rep, err := NewAssembler(4096).Assemble("AAPL", "Technology", set, ins, models.FreshnessFresh)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if rep.Insight.Narrative != "Short and sweet." {
		t.Fatalf("narrative modified: %q", rep.Insight.Narrative)
	}
	if rep.DataFreshness != models.FreshnessFresh {
		t.Fatalf("freshness = %s", rep.DataFreshness)
	}
	if rep.GeneratedAt.IsZero() {
		t.Fatalf("missing generated_at")
	}
}

func TestAssembleTruncatesNarrativeOnly(t *testing.T) {
	set, ins := testInputs(strings.Repeat("a", 8000))
	rep, err := NewAssembler(1024).Assemble("AAPL", "Technology", set, ins, models.FreshnessStale)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	encoded, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) > 1024 {
		t.Fatalf("encoded report %d bytes, ceiling 1024", len(encoded))
	}
	if !strings.HasSuffix(rep.Insight.Narrative, "...") {
		t.Fatalf("expected truncation marker, got %q", rep.Insight.Narrative[len(rep.Insight.Narrative)-10:])
	}

	// everything but the narrative survives intact
	if len(rep.Indicators) != 2 {
		t.Fatalf("indicators modified")
	}
	if rep.DataFreshness != models.FreshnessStale {
		t.Fatalf("freshness modified")
	}
	if rep.Insight.Sentiment != models.SentimentBullish {
		t.Fatalf("sentiment modified")
	}
}

func TestAssembleDropsNarrativeWhenHopeless(t *testing.T) {
	set, ins := testInputs("tiny")
	rep, err := NewAssembler(10).Assemble("AAPL", "Technology", set, ins, models.FreshnessFresh)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if rep.Insight.Narrative != "" {
		t.Fatalf("narrative should be emptied, got %q", rep.Insight.Narrative)
	}
}

func TestAssembleZeroCeilingDisablesTruncation(t *testing.T) {
	set, ins := testInputs(strings.Repeat("b", 8000))
	rep, err := NewAssembler(0).Assemble("AAPL", "", set, ins, models.FreshnessFresh)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(rep.Insight.Narrative) != 8000 {
		t.Fatalf("narrative truncated with ceiling disabled")
	}
}
