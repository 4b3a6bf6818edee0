package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"AgriPulse/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	OpenData struct {
		BaseURL    string        `yaml:"base_url"`
		Proxies    []string      `yaml:"proxies"` // ordered URL templates, %s replaced by escaped target URL
		Timeout    time.Duration `yaml:"timeout"`
		WindowDays int           `yaml:"window_days"`
		PageSize   int           `yaml:"page_size"`
	} `yaml:"opendata"`
	Dataset struct {
		Dir         string `yaml:"dir"`
		RefreshCron string `yaml:"refresh_cron"`
		Pairs       []Pair `yaml:"pairs"`
	} `yaml:"dataset"`
	Backend struct {
		Type         string        `yaml:"type"` // file, kafka, clickhouse
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
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
	Cache struct {
		QuoteTTL  time.Duration `yaml:"quote_ttl"`
		DetailTTL time.Duration `yaml:"detail_ttl"`
		Redis     struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Forecast struct {
		Horizon     int `yaml:"horizon"`
		MAWindow    int `yaml:"ma_window"`
		ScoreWindow int `yaml:"score_window"`
	} `yaml:"forecast"`
}

// Pair identifies one tracked crop/market combination in the prebuilt
// dataset. ID is the on-disk dataset slug; when empty a stable hash-based
// slug is derived from crop and market.
type Pair struct {
	ID     string `yaml:"id"`
	Crop   string `yaml:"crop"`
	Market string `yaml:"market"`
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

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("OPENDATA_BASE_URL"); v != "" {
		c.OpenData.BaseURL = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("DATASET_DIR"); v != "" {
		c.Dataset.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			c.Cache.Redis.Host = host
			c.Cache.Redis.Port = util.ParseIntDefault(port, c.Cache.Redis.Port)
		} else {
			c.Cache.Redis.Host = v
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.OpenData.WindowDays <= 0 {
		c.OpenData.WindowDays = 180
	}
	if c.OpenData.PageSize <= 0 {
		c.OpenData.PageSize = 1000
	}
	if c.OpenData.Timeout <= 0 {
		c.OpenData.Timeout = 10 * time.Second
	}
	if c.Forecast.Horizon <= 0 {
		c.Forecast.Horizon = 14
	}
	if c.Forecast.MAWindow <= 0 {
		c.Forecast.MAWindow = 7
	}
	if c.Forecast.ScoreWindow <= 0 {
		c.Forecast.ScoreWindow = 30
	}
	if c.Cache.QuoteTTL <= 0 {
		c.Cache.QuoteTTL = 60 * time.Second
	}
	if c.Cache.DetailTTL <= 0 {
		c.Cache.DetailTTL = 5 * time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.OpenData.BaseURL == "" {
		return fmt.Errorf("opendata.base_url is required")
	}
	switch c.Backend.Type {
	case "", "file", "kafka", "clickhouse":
	default:
		return fmt.Errorf("backend.type must be 'file', 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required for kafka backend")
	}
	if c.Backend.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host required for clickhouse backend")
	}
	if c.Dataset.Dir == "" {
		return fmt.Errorf("dataset.dir is required")
	}
	return nil
}
