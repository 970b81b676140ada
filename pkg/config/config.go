package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	MarketData struct {
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		Interval       string        `yaml:"interval"`
		Range          string        `yaml:"range"`
		IntradayTTL    time.Duration `yaml:"intraday_ttl"`
		HistoricalTTL  time.Duration `yaml:"historical_ttl"`
		CacheRetention time.Duration `yaml:"cache_retention"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		BackoffBase    time.Duration `yaml:"backoff_base"`
		BackoffMax     time.Duration `yaml:"backoff_max"`
	} `yaml:"market_data"`
	Insight struct {
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		Model             string        `yaml:"model"`
		MaxTokens         int           `yaml:"max_tokens"`
		Temperature       float64       `yaml:"temperature"`
		Timeout           time.Duration `yaml:"timeout"`
		MaxNarrativeChars int           `yaml:"max_narrative_chars"`
	} `yaml:"insight"`
	Pipeline struct {
		GlobalTimeout  time.Duration `yaml:"global_timeout"`
		ReportMaxBytes int           `yaml:"report_max_bytes"`
	} `yaml:"pipeline"`
	Cache struct {
		MemoryMaxEntries int `yaml:"memory_max_entries"`
		Redis            struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Recorder struct {
		Backend         string        `yaml:"backend"` // none, kafka or clickhouse
		DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
		Kafka           struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host        string        `yaml:"host"`
			Port        int           `yaml:"port"`
			Database    string        `yaml:"database"`
			User        string        `yaml:"user"`
			Password    string        `yaml:"password"`
			DialTimeout time.Duration `yaml:"dial_timeout"`
			ReadTimeout time.Duration `yaml:"read_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"recorder"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and deployment
// knobs with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_DATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("INSIGHT_API_KEY"); v != "" {
		c.Insight.APIKey = v
	}
	if v := os.Getenv("RECORDER_BACKEND"); v != "" {
		c.Recorder.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Recorder.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.MarketData.Interval == "" {
		c.MarketData.Interval = "1d"
	}
	if c.MarketData.Range == "" {
		c.MarketData.Range = "3mo"
	}
	if c.MarketData.IntradayTTL == 0 {
		c.MarketData.IntradayTTL = 5 * time.Minute
	}
	if c.MarketData.HistoricalTTL == 0 {
		c.MarketData.HistoricalTTL = 24 * time.Hour
	}
	if c.MarketData.CacheRetention == 0 {
		c.MarketData.CacheRetention = 48 * time.Hour
	}
	if c.MarketData.RequestTimeout == 0 {
		c.MarketData.RequestTimeout = 10 * time.Second
	}
	if c.MarketData.MaxRetries == 0 {
		c.MarketData.MaxRetries = 3
	}
	if c.MarketData.BackoffBase == 0 {
		c.MarketData.BackoffBase = 250 * time.Millisecond
	}
	if c.MarketData.BackoffMax == 0 {
		c.MarketData.BackoffMax = 5 * time.Second
	}
	if c.Insight.Model == "" {
		c.Insight.Model = "gpt-4o-mini"
	}
	if c.Insight.MaxTokens == 0 {
		c.Insight.MaxTokens = 400
	}
	if c.Insight.Timeout == 0 {
		c.Insight.Timeout = 20 * time.Second
	}
	if c.Insight.MaxNarrativeChars == 0 {
		c.Insight.MaxNarrativeChars = 2000
	}
	if c.Pipeline.GlobalTimeout == 0 {
		c.Pipeline.GlobalTimeout = 45 * time.Second
	}
	if c.Pipeline.ReportMaxBytes == 0 {
		c.Pipeline.ReportMaxBytes = 4096
	}
	if c.Cache.MemoryMaxEntries == 0 {
		c.Cache.MemoryMaxEntries = 1000
	}
	if c.Recorder.Backend == "" {
		c.Recorder.Backend = "none"
	}
	if c.Recorder.DeliveryTimeout == 0 {
		c.Recorder.DeliveryTimeout = 10 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("market_data.base_url is required")
	}
	if c.Insight.BaseURL == "" {
		return fmt.Errorf("insight.base_url is required")
	}
	switch c.Recorder.Backend {
	case "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("recorder.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Recorder.Backend)
	}
	if c.Recorder.Backend == "kafka" && len(c.Recorder.Kafka.Brokers) == 0 {
		return fmt.Errorf("recorder.kafka.brokers cannot be empty")
	}
	if c.Recorder.Backend == "clickhouse" && c.Recorder.ClickHouse.Host == "" {
		return fmt.Errorf("recorder.clickhouse.host is required")
	}
	return nil
}
