// Package mapcore holds what the concrete map adapters share: construction
// options, the event table and debouncer (events), the overlay tables
// (overlay), clustering (cluster) and provider selection (provider).
package mapcore

import (
	"log/slog"

	"github.com/facebookgo/clock"
)

// Options configures an adapter.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithClock sets the clock driving the debounce and marker timers.
func WithClock(c clock.Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Apply resolves opts over the defaults: wall clock and slog.Default().
func Apply(opts []Option) Options {
	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
