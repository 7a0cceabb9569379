package store

import (
	"log/slog"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Option configures an object store.
type Option func(*options)

type options struct {
	algorithm   objects.Algorithm
	compression Compression
	logger      *slog.Logger
}

func defaultOptions() options {
	return options{
		algorithm:   objects.DefaultAlgorithm,
		compression: DefaultCompression,
	}
}

// WithAlgorithm sets the digest algorithm.
func WithAlgorithm(alg objects.Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// WithCompression sets the codec used for new loose objects.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
