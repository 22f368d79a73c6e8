// Package report provides error reporting collaborators for the fetcher.
//
// Failed fetches are not returned to callers; they are handed to a Reporter
// instead, which decides how they are surfaced.
package report

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogReporter writes each reported error to a zerolog logger and counts them.
type LogReporter struct {
	logger *zerolog.Logger
	count  atomic.Int64
}

// NewLogReporter returns a reporter writing to logger, or to the global logger when nil.
func NewLogReporter(logger *zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs err at error level.
func (r *LogReporter) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	r.count.Add(1)

	l := r.logger
	if l == nil {
		l = &log.Logger
	}
	l.Error().Err(err).Msg("candle fetch failed")
}

// Count returns how many errors have been reported.
func (r *LogReporter) Count() int64 {
	return r.count.Load()
}
