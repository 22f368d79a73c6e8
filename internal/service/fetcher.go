// Package service provides the core fetch pipeline of the candle fetcher.
//
// The CandleFetcher pulls one page of historical candles for a market and
// period, publishes the batch to the output queue and hands back the earliest
// candle. It never returns errors to callers: handled failures are routed to
// an ErrorReporter and surface as an empty result.
package service

import (
	"context"
	"errors"
	"time"

	"kfetcher/internal/config"
	"kfetcher/internal/exchange"
	"kfetcher/internal/model"
	"kfetcher/internal/utils"

	"github.com/rs/zerolog/log"
)

// rateLimitPause is how long the calling goroutine is suspended after a 429.
const rateLimitPause = 60 * time.Second

// CandleSource defines the interface for components that fetch raw candles
// from an exchange and return them normalized and sorted.
type CandleSource interface {
	// FetchCandles returns candles for market in frame starting at start (unix seconds).
	FetchCandles(ctx context.Context, market string, frame model.Frame, start int64) ([]model.Candle, error)
}

// CandlePublisher defines the interface for the output queue.
type CandlePublisher interface {
	// Push appends the whole batch under key as a single entry.
	Push(ctx context.Context, key string, candles []model.Candle) error
}

// ErrorReporter receives every failure handled by the fetcher.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

// FetcherConfig holds the optional settings of a CandleFetcher.
type FetcherConfig struct {
	// Namespace prefixes every queue key. Defaults to "peatio".
	Namespace string

	// DefaultStart resolves the start used when a request has none.
	// Defaults to 2018-07-01T00:00:00Z.
	DefaultStart func() int64

	// Sleep suspends the caller after a rate-limited response. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// CandleFetcher runs the fetch, normalize and publish pipeline.
type CandleFetcher struct {
	source       CandleSource
	publisher    CandlePublisher
	reporter     ErrorReporter
	namespace    string
	defaultStart func() int64
	sleep        func(time.Duration)
}

// NewCandleFetcher creates a fetcher from its collaborators, applying defaults
// for any unset FetcherConfig fields.
func NewCandleFetcher(source CandleSource, publisher CandlePublisher, reporter ErrorReporter, cfg FetcherConfig) (*CandleFetcher, error) {
	if source == nil {
		return nil, errors.New("candle source is required")
	}
	if publisher == nil {
		return nil, errors.New("candle publisher is required")
	}
	if reporter == nil {
		return nil, errors.New("error reporter is required")
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "peatio"
	}
	if cfg.DefaultStart == nil {
		defaultStart := config.DefaultStartTime.Unix()
		cfg.DefaultStart = func() int64 { return defaultStart }
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}

	return &CandleFetcher{
		source:       source,
		publisher:    publisher,
		reporter:     reporter,
		namespace:    cfg.Namespace,
		defaultStart: cfg.DefaultStart,
		sleep:        cfg.Sleep,
	}, nil
}

// FetchCandleData fetches candles for req, pushes the sorted batch onto the
// queue key "{namespace}:{market}:k:{period}" and returns the earliest candle.
//
// The boolean is false when there is nothing to return. That covers an
// unsupported frame, an empty page, a rate-limited request and any reported
// failure alike.
func (cf *CandleFetcher) FetchCandleData(ctx context.Context, req model.FetchRequest) (model.Candle, bool) {
	start := req.StartOrDefault(cf.defaultStart())

	frame := utils.PeriodToFrame(req.Period)
	if !utils.IsAvailableFrame(frame) {
		log.Debug().
			Int("period", req.Period).
			Str("frame", string(frame)).
			Msg("unsupported frame, skipping fetch")
		return model.Candle{}, false
	}

	if err := utils.ValidateMarket(req.Market); err != nil {
		return cf.fail(ctx, err)
	}

	candles, err := cf.source.FetchCandles(ctx, req.Market, frame, start)
	if errors.Is(err, exchange.ErrRateLimited) {
		log.Info().
			Str("market", req.Market).
			Str("frame", string(frame)).
			Msg("rate limit exceeded, sleeping")
		cf.sleep(rateLimitPause)
		return model.Candle{}, false
	}
	if err != nil {
		return cf.fail(ctx, err)
	}

	if len(candles) == 0 {
		return model.Candle{}, false
	}

	key := utils.QueueKey(cf.namespace, req.Market, req.Period)
	if err := cf.publisher.Push(ctx, key, candles); err != nil {
		return cf.fail(ctx, err)
	}

	log.Debug().
		Str("key", key).
		Int("count", len(candles)).
		Msg("candles published")

	return candles[0], true
}

// fail hands err to the reporter and yields the empty result.
func (cf *CandleFetcher) fail(ctx context.Context, err error) (model.Candle, bool) {
	cf.reporter.Report(ctx, err)
	return model.Candle{}, false
}
