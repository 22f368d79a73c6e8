// Package utils provides common utility functions for request validation and
// timeframe mapping.
//
// This package converts bucket widths in minutes into exchange timeframe
// labels, checks them against the set of frames the exchange serves, and builds
// the queue keys candles are published under.
package utils

import (
	"errors"
	"fmt"
	"strings"

	"kfetcher/internal/model"
)

// Error definitions for validation functions
var (
	ErrInvalidMarket = errors.New("invalid market")
	ErrInvalidPeriod = errors.New("invalid period")
)

const (
	minutesPerHour = 60
	minutesPerDay  = 1440
)

// availableFrames lists the frames served by the candles endpoint, in order.
var availableFrames = []model.Frame{"1m", "5m", "15m", "30m", "1h", "3h", "6h", "12h", "1D", "7D"}

// availableFrameSet is used for O(1) lookup when checking frames.
var availableFrameSet = func() map[model.Frame]bool {
	set := make(map[model.Frame]bool, len(availableFrames))
	for _, f := range availableFrames {
		set[f] = true
	}
	return set
}()

// PeriodToFrame maps a bucket width in minutes to a timeframe label.
//
//   - period < 60 maps to "{period}m"
//   - 60 <= period < 1440 maps to "{period/60}h"
//   - period >= 1440 maps to "{period/60/24}D"
//
// Division is integer division, so widths that are not whole hours or days are
// truncated. The result is not guaranteed to be an available frame.
func PeriodToFrame(period int) model.Frame {
	switch {
	case period < minutesPerHour:
		return model.Frame(fmt.Sprintf("%dm", period))
	case period < minutesPerDay:
		return model.Frame(fmt.Sprintf("%dh", period/minutesPerHour))
	default:
		return model.Frame(fmt.Sprintf("%dD", period/minutesPerHour/24))
	}
}

// IsAvailableFrame reports whether the exchange serves the given frame.
func IsAvailableFrame(frame model.Frame) bool {
	return availableFrameSet[frame]
}

// AvailableFrames returns a copy of the supported frames in ascending width.
func AvailableFrames() []model.Frame {
	out := make([]model.Frame, len(availableFrames))
	copy(out, availableFrames)
	return out
}

// ValidateMarket checks that a market symbol is non-empty and made of letters,
// digits and the ':' separator Bitfinex uses for longer pairs (e.g. "AVAX:USD").
// The check is case-insensitive.
func ValidateMarket(market string) error {
	if market == "" {
		return fmt.Errorf("%w: market cannot be empty", ErrInvalidMarket)
	}

	for _, r := range strings.ToUpper(market) {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != ':' {
			return fmt.Errorf("%w: unexpected character %q in %q", ErrInvalidMarket, r, market)
		}
	}

	return nil
}

// ValidatePeriod checks that a period is a positive number of minutes.
func ValidatePeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %d", ErrInvalidPeriod, period)
	}
	return nil
}

// QueueKey builds the key a batch for market and period is pushed under:
// "{namespace}:{market}:k:{period}".
func QueueKey(namespace, market string, period int) string {
	return fmt.Sprintf("%s:%s:k:%d", namespace, market, period)
}
