package refs

import (
	"log/slog"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Option configures a Store.
type Option func(*Store)

// WithAlgorithm sets the digest algorithm refs are validated against.
func WithAlgorithm(alg objects.Algorithm) Option {
	return func(s *Store) { s.alg = alg }
}

// WithIdentity sets the actor recorded in movement logs.
func WithIdentity(name, email string) Option {
	return func(s *Store) {
		s.actorName = name
		s.actorEmail = email
	}
}

// WithClock replaces time.Now for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLockTimeout bounds the wait for a ref or log lockfile.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithLogAllRefUpdates controls log creation. When false, entries are only
// appended to logs that already exist.
func WithLogAllRefUpdates(enabled bool) Option {
	return func(s *Store) { s.logAll = enabled }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = logger.Component(l, "refs") }
}
