package client

import (
	"time"

	"github.com/AndurilCode/mcp-apps-kit/logx"
)

// Options holds shared configuration for adapters and the unified client.
type Options struct {
	Logger logx.Logger

	// ConnectTimeout bounds the connect handshake only; individual tool
	// calls are bounded by their caller's context.
	ConnectTimeout time.Duration

	// PollInterval is how often the injected-global adapter probes for the
	// host global while connecting.
	PollInterval time.Duration

	// SettleDelay is how long the injected-global adapter waits after a
	// refresh broadcast before re-reading host properties.
	SettleDelay time.Duration

	// KnownTools seeds the client's typed tool-call lookup table.
	KnownTools []string

	// DebugLog configures the batching debug log transport. Nil leaves the
	// transport disabled.
	DebugLog *DebugLoggerOptions
}

// Option is a function that configures Options.
type Option func(*Options)

// WithLogger sets the local console logger.
func WithLogger(logger logx.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithConnectTimeout bounds the connect handshake.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = timeout
	}
}

// WithPollInterval sets the injected-global probe period.
func WithPollInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = interval
	}
}

// WithSettleDelay sets the post-broadcast settle delay before re-reading
// host properties.
func WithSettleDelay(delay time.Duration) Option {
	return func(o *Options) {
		o.SettleDelay = delay
	}
}

// WithKnownTools seeds the typed tool-call surface of the client.
func WithKnownTools(names ...string) Option {
	return func(o *Options) {
		o.KnownTools = append(o.KnownTools, names...)
	}
}

// WithDebugLog enables the batching debug log transport.
func WithDebugLog(opts DebugLoggerOptions) Option {
	return func(o *Options) {
		o.DebugLog = &opts
	}
}

func defaultOptions() *Options {
	return &Options{
		Logger:         logx.NewDefaultLogger(),
		ConnectTimeout: 3 * time.Second,
		PollInterval:   50 * time.Millisecond,
		SettleDelay:    25 * time.Millisecond,
	}
}

func applyOptions(options []Option) *Options {
	opts := defaultOptions()
	for _, option := range options {
		option(opts)
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewDefaultLogger()
	}
	return opts
}
