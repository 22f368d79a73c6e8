// Package config loads the fetcher configuration from an optional YAML file and
// the environment.
//
// Every key can be overridden by an environment variable named after the key
// with dots replaced by underscores, e.g. bitfinex.start -> BITFINEX_START.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DefaultStartTime is the start used when neither the request nor the
// configuration supplies one.
var DefaultStartTime = time.Date(2018, time.July, 1, 0, 0, 0, 0, time.UTC)

const (
	BackendRedis = "redis"
	BackendKafka = "kafka"
)

// Config is the root configuration.
type Config struct {
	Bitfinex BitfinexConfig `mapstructure:"bitfinex"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

// BitfinexConfig configures the candles endpoint.
type BitfinexConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Start is unix seconds, a 2006-01-02 date or an RFC3339 timestamp.
	Start string `mapstructure:"start"`
}

// QueueConfig selects where fetched batches are pushed.
type QueueConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=redis kafka"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// KafkaConfig represents Kafka configuration
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Load reads configuration from path (skipped when empty) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bitfinex.base_url", "https://api.bitfinex.com/v2/candles/trade")
	v.SetDefault("bitfinex.start", "")
	v.SetDefault("queue.backend", BackendRedis)
	v.SetDefault("queue.namespace", "peatio")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "")
	v.SetDefault("log.level", "info")
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Queue.Backend == BackendKafka {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("invalid config: kafka.brokers is required for the kafka backend")
		}
		if c.Kafka.Topic == "" {
			return errors.New("invalid config: kafka.topic is required for the kafka backend")
		}
	}

	if _, err := ParseStart(c.Bitfinex.Start); err != nil {
		return fmt.Errorf("invalid config: bitfinex.start: %w", err)
	}

	return nil
}

// StartResolver returns a function yielding the configured default start in
// unix seconds. Validate guarantees the value parses.
func (c *Config) StartResolver() func() int64 {
	raw := c.Bitfinex.Start
	return func() int64 {
		start, err := ParseStart(raw)
		if err != nil {
			return DefaultStartTime.Unix()
		}
		return start
	}
}

// ParseStart converts a configured start value into unix seconds.
// An empty value resolves to DefaultStartTime.
func ParseStart(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultStartTime.Unix(), nil
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Unix(), nil
		}
	}

	return 0, fmt.Errorf("unrecognized start %q", raw)
}
