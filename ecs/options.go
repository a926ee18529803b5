package ecs

import "go.uber.org/zap"

// Option configures a Dispatcher, Storage or SystemManager.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger routes diagnostics to the given logger. The default discards them.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
