package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
server:
  port: 9090
opendata:
  base_url: https://example.test/FarmTransData.aspx
dataset:
  dir: data
  pairs:
    - id: cabbage-taipei1
      crop: 甘藍
      market: 台北一
backend:
  type: file
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.OpenData.WindowDays != 180 {
		t.Errorf("window_days default = %d, want 180", cfg.OpenData.WindowDays)
	}
	if cfg.OpenData.PageSize != 1000 {
		t.Errorf("page_size default = %d, want 1000", cfg.OpenData.PageSize)
	}
	if cfg.Forecast.Horizon != 14 {
		t.Errorf("horizon default = %d, want 14", cfg.Forecast.Horizon)
	}
	if cfg.Forecast.MAWindow != 7 {
		t.Errorf("ma_window default = %d, want 7", cfg.Forecast.MAWindow)
	}
	if cfg.Forecast.ScoreWindow != 30 {
		t.Errorf("score_window default = %d, want 30", cfg.Forecast.ScoreWindow)
	}
	if cfg.Cache.QuoteTTL != 60*time.Second {
		t.Errorf("quote_ttl default = %v", cfg.Cache.QuoteTTL)
	}
	if len(cfg.Dataset.Pairs) != 1 || cfg.Dataset.Pairs[0].Crop != "甘藍" {
		t.Errorf("pairs = %+v", cfg.Dataset.Pairs)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing environment", `
opendata:
  base_url: https://example.test
dataset:
  dir: data
`},
		{"missing base url", `
environment: test
dataset:
  dir: data
`},
		{"bad backend", `
environment: test
opendata:
  base_url: https://example.test
dataset:
  dir: data
backend:
  type: postgres
`},
		{"kafka backend without brokers", `
environment: test
opendata:
  base_url: https://example.test
dataset:
  dir: data
backend:
  type: kafka
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("want validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("BACKEND", "file")
	t.Setenv("DATASET_DIR", "/tmp/ds")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Dataset.Dir != "/tmp/ds" {
		t.Errorf("dataset dir = %q", cfg.Dataset.Dir)
	}
	if cfg.Cache.Redis.Host != "redis.internal" || cfg.Cache.Redis.Port != 6380 {
		t.Errorf("redis = %s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port)
	}
}
