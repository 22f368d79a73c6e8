// Package exchange provides cryptocurrency exchange connectors for historical candle data.
//
// This file contains shared configuration structures, errors, and validation functions
// used by the connector implementations.
package exchange

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	// ErrInvalidConfig indicates that the provided ExchangeConfig contains invalid values.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRateLimited indicates that the exchange answered with 429 Too Many Requests.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrMalformedResponse indicates that the response body could not be decoded into candles.
	ErrMalformedResponse = errors.New("malformed response")
)

// HTTPStatusError is returned for any non-success status other than 429.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ExchangeConfig provides common configuration parameters for exchange connectors.
type ExchangeConfig struct {
	// BaseURL is the REST endpoint prefix for candle requests.
	BaseURL string

	// HTTPClient performs the requests. When nil, a client without a timeout is used.
	HTTPClient *http.Client
}

// validateConfig ensures all required configuration fields are present and valid,
// applying defaults for optional fields when possible.
func validateConfig(cfg *ExchangeConfig, defaultCfg *ExchangeConfig) error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCfg.BaseURL
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = defaultCfg.HTTPClient
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("base url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url: unsupported scheme %q", u.Scheme)
	}

	return nil
}
