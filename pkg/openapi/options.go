package openapi

import "go.uber.org/zap"

// Options tunes document parsing.
type Options struct {
	// Validate runs the kin-openapi document validator before conversion.
	Validate bool

	// TypeMap overrides the tag chosen for a primitive OpenAPI type, e.g.
	// {"string": "async-text-search"}.
	TypeMap map[string]string

	Logger *zap.Logger
}

// Option mutates Options during construction.
type Option func(*Options)

// WithValidation toggles document validation.
func WithValidation(enabled bool) Option {
	return func(opts *Options) {
		opts.Validate = enabled
	}
}

// WithTypeMap overrides primitive type tags.
func WithTypeMap(mapping map[string]string) Option {
	return func(opts *Options) {
		if opts.TypeMap == nil {
			opts.TypeMap = make(map[string]string, len(mapping))
		}
		for from, to := range mapping {
			opts.TypeMap[from] = to
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func newOptions(options ...Option) Options {
	cfg := Options{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}
