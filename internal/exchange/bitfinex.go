// Package exchange provides cryptocurrency exchange connectors for historical candle data.
//
// The Bitfinex connector issues a single REST request against the public
// candles endpoint and turns the returned rows into normalized, sorted candles.
//
// Key features:
//   - One GET per call, no retries
//   - 429 responses surfaced as ErrRateLimited so the caller can back off
//   - Row shape validation using validator
//   - Volume rounding using decimal.Decimal to avoid binary float artifacts
package exchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"kfetcher/internal/model"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// msPerSecond converts between the exchange's millisecond timestamps and seconds.
	msPerSecond = 1000

	// volumePrecision is the number of decimal places volume is rounded to.
	volumePrecision = 4

	// maxErrorBody caps how much of an error response is kept on HTTPStatusError.
	maxErrorBody = 512
)

var (
	// defaultBitfinexConfig provides the default configuration for Bitfinex requests.
	defaultBitfinexConfig = ExchangeConfig{
		BaseURL: "https://api.bitfinex.com/v2/candles/trade",
	}
)

// BitfinexConnector fetches historical candles from Bitfinex.
//
// Requests go to {BaseURL}:{frame}:t{MARKET}/hist?start={ms}. The response is a
// JSON array of [mts, open, close, high, low, volume] rows.
type BitfinexConnector struct {
	config   ExchangeConfig      // Configuration parameters for the connector
	validate *validator.Validate // Validator instance for row validation
}

// NewBitfinexConnector creates a new Bitfinex connector with the specified configuration.
//
// If cfg is nil the default configuration is used.
func NewBitfinexConnector(cfg *ExchangeConfig) (*BitfinexConnector, error) {
	c := defaultBitfinexConfig
	if cfg != nil {
		c = *cfg
	}

	if err := validateConfig(&c, &defaultBitfinexConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &BitfinexConnector{
		config:   c,
		validate: validator.New(),
	}, nil
}

// FetchCandles requests candles for market in the given frame starting at start
// (unix seconds) and returns them normalized and sorted ascending.
//
// A 429 response yields ErrRateLimited. Any other non-2xx response yields
// *HTTPStatusError. An empty or null body yields no candles and no error.
func (bc *BitfinexConnector) FetchCandles(ctx context.Context, market string, frame model.Frame, start int64) ([]model.Candle, error) {
	endpoint := bc.buildCandlesURL(market, frame, start)

	log.Info().
		Str("market", market).
		Str("frame", string(frame)).
		Int64("start", start).
		Msg("fetching candles from bitfinex")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := bc.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request candles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read candles body: %w", err)
	}

	return bc.decodeCandles(body)
}

// buildCandlesURL constructs the candles endpoint for market and frame.
//
// The market is upper-cased and prefixed with "t" (trading pair), and the start
// query parameter is sent in milliseconds.
func (bc *BitfinexConnector) buildCandlesURL(market string, frame model.Frame, start int64) string {
	q := url.Values{}
	q.Set("start", strconv.FormatInt(start*msPerSecond, 10))

	return fmt.Sprintf("%s:%s:t%s/hist?%s",
		bc.config.BaseURL, frame, strings.ToUpper(market), q.Encode())
}

// decodeCandles parses the raw rows, normalizes each one and sorts the result.
func (bc *BitfinexConnector) decodeCandles(body []byte) ([]model.Candle, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		if err := bc.validate.Var(row, "len=6"); err != nil {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrMalformedResponse, i, len(row))
		}
		candles = append(candles, normalizeCandle(row))
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Less(candles[j])
	})

	return candles, nil
}

// normalizeCandle converts a raw [mts, open, close, high, low, volume] row.
// The timestamp becomes whole seconds and volume is rounded; prices pass through.
func normalizeCandle(row []float64) model.Candle {
	return model.Candle{
		Timestamp: int64(row[0]) / msPerSecond,
		Open:      row[1],
		Close:     row[2],
		High:      row[3],
		Low:       row[4],
		Volume:    roundVolume(row[5]),
	}
}

// roundVolume rounds v to volumePrecision places, half away from zero, on its
// shortest decimal representation.
func roundVolume(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(volumePrecision).Float64()
	return f
}
