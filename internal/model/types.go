// Package model defines core data types for the candle fetcher.
//
// This package contains the request and record types that flow through a single
// fetch: the request describing which market and bucket width to pull, and the
// normalized candle tuples that end up on the output queue.
//
// Candle fields are float64 rather than decimal.Decimal: prices pass through
// exactly as the exchange encodes them in its JSON rows, and the queue value
// is those same numbers. Only volume is rounded, and that happens at decode time
// in the exchange package.
package model

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Frame is the exchange-specific timeframe label (e.g. "1m", "1h", "1D").
type Frame string

// Candle represents one normalized OHLCV bucket.
//
// The field order is significant: candles are encoded as the 6-element array
// [timestamp, open, close, high, low, volume] and compared field by field in
// that order when sorting.
type Candle struct {
	Timestamp int64   // Bucket start in unix seconds
	Open      float64 // Opening price
	Close     float64 // Closing price
	High      float64 // Highest price in the bucket
	Low       float64 // Lowest price in the bucket
	Volume    float64 // Traded volume, rounded to 4 decimal places
}

// FetchRequest describes a single fetch.
//
// Start is optional; a nil Start is resolved from the configured default
// epoch at call time.
type FetchRequest struct {
	Market string // Exchange symbol, e.g. "BTCUSD" (case-insensitive)
	Period int    // Bucket width in minutes
	Start  *int64 // Optional unix-seconds start
}

// Tuple returns the candle as its ordered field list.
func (c Candle) Tuple() [6]float64 {
	return [6]float64{float64(c.Timestamp), c.Open, c.Close, c.High, c.Low, c.Volume}
}

// Less reports whether c sorts before o using a lexicographic comparison of
// the tuple, timestamp first.
func (c Candle) Less(o Candle) bool {
	if c.Timestamp != o.Timestamp {
		return c.Timestamp < o.Timestamp
	}
	a, b := c.Tuple(), o.Tuple()
	for i := 1; i < len(a); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// MarshalJSON encodes the candle as a 6-element array.
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Timestamp, c.Open, c.Close, c.High, c.Low, c.Volume})
}

// UnmarshalJSON decodes a 6-element array into the candle.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 6 {
		return fmt.Errorf("candle: expected 6 fields, got %d", len(raw))
	}
	*c = Candle{
		Timestamp: int64(raw[0]),
		Open:      raw[1],
		Close:     raw[2],
		High:      raw[3],
		Low:       raw[4],
		Volume:    raw[5],
	}
	return nil
}

// StartOrDefault returns the explicit start if present, otherwise def.
func (r FetchRequest) StartOrDefault(def int64) int64 {
	if r.Start != nil {
		return *r.Start
	}
	return def
}
