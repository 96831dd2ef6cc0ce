package logjam

import (
	"github.com/zerodha/logf"
)

const (
	// DefaultDeviceBase is where device-specific codes conventionally start,
	// leaving the low range free for a shared generic set.
	DefaultDeviceBase = 0x80
)

// Options represents configuration options for building catalogs.
type Options struct {
	debug    bool         // Enable debug logging.
	logger   *logf.Logger // Externally supplied logger. Takes precedence over debug.
	enumBase int          // Lowest enum code accepted for events.
}

// Config is a function on the Options for a catalog.
// These are used to configure particular options.
type Config func(*Options) error

func DefaultOptions() *Options {
	return &Options{
		debug:    false,
		enumBase: 0,
	}
}

func WithDebug() Config {
	return func(o *Options) error {
		o.debug = true
		return nil
	}
}

func WithLogger(lo logf.Logger) Config {
	return func(o *Options) error {
		o.logger = &lo
		return nil
	}
}

// WithEnumBase sets the lowest enum code an event catalog accepts.
func WithEnumBase(base int) Config {
	return func(o *Options) error {
		if base < 0 || base > 0xFF {
			return ErrInvalidCode
		}
		o.enumBase = base
		return nil
	}
}

func applyConfig(cfgs []Config) (*Options, error) {
	opts := DefaultOptions()
	for _, cfg := range cfgs {
		if err := cfg(opts); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// initLogger initializes logger instance.
func initLogger(opts *Options) logf.Logger {
	if opts.logger != nil {
		return *opts.logger
	}
	lo := logf.Opts{EnableCaller: true}
	if opts.debug {
		lo.Level = logf.DebugLevel
	}
	return logf.New(lo)
}
