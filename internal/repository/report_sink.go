package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"StockScope/internal/domain/models"
	"StockScope/internal/domain/repository"
	pkgch "StockScope/pkg/clickhouse"
	pkgkafka "StockScope/pkg/kafka"
)

// KafkaReportSink publishes completed reports to a topic, keyed by ticker so
// one symbol's history lands in order on a single partition.
type KafkaReportSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaReportSink creates the Kafka-backed sink.
func NewKafkaReportSink(producer *pkgkafka.Producer, topic string) repository.ReportSink {
	return &KafkaReportSink{producer: producer, topic: topic}
}

func (s *KafkaReportSink) Record(ctx context.Context, r *models.Report) error {
	return s.producer.Publish(ctx, s.topic, []byte(r.Ticker), r)
}

func (s *KafkaReportSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}

// reportsSchema keeps full report history queryable by ticker and time.
var reportsSchema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		generated_at   DateTime,
		ticker         String,
		sector         String,
		data_freshness String,
		sentiment      String,
		degraded       UInt8,
		payload        String
	) ENGINE = MergeTree()
	ORDER BY (ticker, generated_at)`,
}

// CHReportStore persists completed reports to ClickHouse.
type CHReportStore struct {
	db *sql.DB
}

// NewCHReportStore creates the store and ensures the schema exists.
func NewCHReportStore(client *pkgch.Client) (repository.ReportSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, reportsSchema); err != nil {
		return nil, fmt.Errorf("reports schema: %w", err)
	}
	return &CHReportStore{db: client.DB()}, nil
}

func (s *CHReportStore) Record(ctx context.Context, r *models.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	degraded := uint8(0)
	if r.Insight.Degraded {
		degraded = 1
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO reports (generated_at, ticker, sector, data_freshness, sentiment, degraded, payload) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.GeneratedAt,
		r.Ticker.String(),
		r.Sector,
		string(r.DataFreshness),
		string(r.Insight.Sentiment),
		degraded,
		string(payload),
	)
	return err
}

func (s *CHReportStore) Close() error {
	return nil // connection pool is managed by pkg/clickhouse
}

// NopSink discards reports. Used when no recorder backend is configured.
type NopSink struct{}

func (NopSink) Record(context.Context, *models.Report) error { return nil }
func (NopSink) Close() error                                 { return nil }
