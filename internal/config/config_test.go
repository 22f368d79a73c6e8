package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func Test_LoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.bitfinex.com/v2/candles/trade", cfg.Bitfinex.BaseURL)
	assert.Equal(t, BackendRedis, cfg.Queue.Backend)
	assert.Equal(t, "peatio", cfg.Queue.Namespace)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(1530403200), cfg.StartResolver()(), "Should default to 2018-07-01")
}

func Test_LoadFile(t *testing.T) {
	path := writeConfig(t, `
bitfinex:
  base_url: http://127.0.0.1:9000/v2/candles/trade
  start: "2020-01-01"
queue:
  backend: kafka
  namespace: market
kafka:
  brokers: ["k1:9092", "k2:9092"]
  topic: candles
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000/v2/candles/trade", cfg.Bitfinex.BaseURL)
	assert.Equal(t, BackendKafka, cfg.Queue.Backend)
	assert.Equal(t, "market", cfg.Queue.Namespace)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "candles", cfg.Kafka.Topic)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int64(1577836800), cfg.StartResolver()())
}

func Test_LoadEnvOverrides(t *testing.T) {
	t.Setenv("BITFINEX_START", "1600000000")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(1600000000), cfg.StartResolver()())
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
}

func Test_LoadErrors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		env         map[string]string
		errorMsg    string
		description string
	}{
		{
			name:        "Unknown backend",
			content:     "queue:\n  backend: rabbit\n",
			errorMsg:    "invalid config",
			description: "Should reject unsupported queue backend",
		},
		{
			name:        "Kafka without brokers",
			content:     "queue:\n  backend: kafka\nkafka:\n  topic: candles\n",
			errorMsg:    "kafka.brokers is required",
			description: "Should require brokers for kafka",
		},
		{
			name:        "Kafka without topic",
			content:     "queue:\n  backend: kafka\nkafka:\n  brokers: [\"k:9092\"]\n",
			errorMsg:    "kafka.topic is required",
			description: "Should require topic for kafka",
		},
		{
			name:        "Bad start",
			content:     "bitfinex:\n  start: yesterday\n",
			errorMsg:    "bitfinex.start",
			description: "Should reject unparsable start",
		},
		{
			name:        "Bad level",
			content:     "log:\n  level: loud\n",
			errorMsg:    "invalid config",
			description: "Should reject unknown log level",
		},
		{
			name:        "Negative redis db from env",
			content:     "",
			env:         map[string]string{"REDIS_DB": "-1"},
			errorMsg:    "invalid config",
			description: "Should reject negative redis db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(writeConfig(t, tt.content))
			require.Error(t, err, tt.description)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errorMsg, tt.description)
		})
	}
}

func Test_LoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file failed")
}

func Test_ParseStart(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expected    int64
		expectError bool
	}{
		{name: "Empty", raw: "", expected: 1530403200},
		{name: "Whitespace", raw: "  ", expected: 1530403200},
		{name: "Unix seconds", raw: "1530403200", expected: 1530403200},
		{name: "Date", raw: "2018-07-02", expected: 1530489600},
		{name: "RFC3339", raw: "2018-07-01T01:00:00Z", expected: 1530406800},
		{name: "Garbage", raw: "soon", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStart(tt.raw)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
