package exchange

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig(t *testing.T) {
	defaultCfg := &ExchangeConfig{
		BaseURL: "https://default.com/v2/candles/trade",
	}

	tests := []struct {
		name      string
		config    *ExchangeConfig
		wantError bool
	}{
		{
			name: "valid config",
			config: &ExchangeConfig{
				BaseURL:    "https://test.com/candles",
				HTTPClient: &http.Client{Timeout: time.Second},
			},
			wantError: false,
		},
		{
			name:      "empty BaseURL uses default",
			config:    &ExchangeConfig{},
			wantError: false,
		},
		{
			name: "plain http accepted",
			config: &ExchangeConfig{
				BaseURL: "http://127.0.0.1:8080/candles",
			},
			wantError: false,
		},
		{
			name: "websocket scheme rejected",
			config: &ExchangeConfig{
				BaseURL: "wss://test.com",
			},
			wantError: true,
		},
		{
			name: "unparsable url rejected",
			config: &ExchangeConfig{
				BaseURL: "http://[::1",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalURL := tt.config.BaseURL

			err := validateConfig(tt.config, defaultCfg)

			if tt.wantError {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, tt.config.HTTPClient, "HTTP client should always be set")
			if originalURL == "" {
				assert.Equal(t, defaultCfg.BaseURL, tt.config.BaseURL)
			} else {
				assert.Equal(t, originalURL, tt.config.BaseURL)
			}
		})
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := &HTTPStatusError{StatusCode: 500}
	assert.Equal(t, "unexpected status 500", err.Error())

	err = &HTTPStatusError{StatusCode: 404, Body: `["error",10020,"symbol: invalid"]`}
	assert.Equal(t, `unexpected status 404: ["error",10020,"symbol: invalid"]`, err.Error())
}
