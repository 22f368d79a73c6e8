/*
Package main implements a one-shot command that fetches historical candles from
Bitfinex and pushes them onto the configured queue.

Each invocation performs exactly one fetch. Scheduling repeated runs (cron,
systemd timers, a job runner) is left to the caller.

Usage:

	go run ./cmd/fetcher -market=BTCUSD -period=60 [-start=1530403200] [-config=config.yaml]

When a candle was fetched, the earliest one is printed to stdout as a JSON array
[timestamp, open, close, high, low, volume]. Nothing is printed otherwise.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"kfetcher/internal/config"
	"kfetcher/internal/exchange"
	"kfetcher/internal/logger"
	"kfetcher/internal/model"
	"kfetcher/internal/queue"
	"kfetcher/internal/report"
	"kfetcher/internal/service"
	"kfetcher/internal/utils"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Command-line flags for configuring a single fetch
var (
	// configPath points at an optional YAML configuration file
	configPath = flag.String("config", os.Getenv("KFETCHER_CONFIG"), "Path to a YAML config file")
	// market is the exchange symbol to fetch
	market = flag.String("market", "", "Market symbol, e.g. BTCUSD")
	// period is the candle width in minutes
	period = flag.Int("period", 1, "Candle period in minutes")
	// start optionally overrides the configured start (unix seconds)
	start = flag.String("start", "", "Start timestamp in unix seconds (defaults to bitfinex.start)")
)

// publisher is a queue that can be closed on exit.
type publisher interface {
	service.CandlePublisher
	Close() error
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Log.Level, os.Stderr)

	req, err := buildRequest()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	connector, err := exchange.NewBitfinexConnector(&exchange.ExchangeConfig{
		BaseURL: cfg.Bitfinex.BaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Bitfinex connector")
	}

	q, err := newPublisher(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue")
	}
	defer q.Close()

	fetcher, err := service.NewCandleFetcher(connector, q, report.NewLogReporter(nil), service.FetcherConfig{
		Namespace:    cfg.Queue.Namespace,
		DefaultStart: cfg.StartResolver(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create candle fetcher")
	}

	head, ok := fetcher.FetchCandleData(context.Background(), req)
	if !ok {
		log.Info().
			Str("market", req.Market).
			Int("period", req.Period).
			Msg("no candles fetched")
		return
	}

	out, err := json.Marshal(head)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode candle")
	}
	fmt.Println(string(out))
}

// buildRequest validates the flags and turns them into a FetchRequest.
func buildRequest() (model.FetchRequest, error) {
	if err := utils.ValidateMarket(*market); err != nil {
		return model.FetchRequest{}, err
	}
	if err := utils.ValidatePeriod(*period); err != nil {
		return model.FetchRequest{}, err
	}

	req := model.FetchRequest{Market: *market, Period: *period}
	if *start != "" {
		s, err := strconv.ParseInt(*start, 10, 64)
		if err != nil {
			return model.FetchRequest{}, fmt.Errorf("start must be unix seconds: %w", err)
		}
		req.Start = &s
	}

	return req, nil
}

// newPublisher builds the queue selected by queue.backend.
func newPublisher(cfg *config.Config) (publisher, error) {
	switch cfg.Queue.Backend {
	case config.BackendKafka:
		return queue.NewKafkaQueue(cfg.Kafka), nil
	case config.BackendRedis:
		return queue.NewRedisQueue(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported queue backend %q", cfg.Queue.Backend)
	}
}
