package config

import (
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

// TypedConfig provides type-safe access to common configuration values
// It wraps a Manager and provides convenient getter methods
type TypedConfig struct {
	manager *Manager
}

// NewTypedConfig creates a new TypedConfig wrapper around a Manager
func NewTypedConfig(manager *Manager) *TypedConfig {
	return &TypedConfig{manager: manager}
}

// Digest returns the object hash algorithm.
func (tc *TypedConfig) Digest() (objects.Algorithm, error) {
	algo, err := objects.ParseAlgorithm(tc.GetString(KeyDigest))
	if err != nil {
		return objects.Algorithm{}, NewInvalidValueError(KeyDigest, err)
	}
	return algo, nil
}

// Compression returns the loose object codec.
func (tc *TypedConfig) Compression() (store.Compression, error) {
	c, err := store.ParseCompression(tc.GetString(KeyCompression))
	if err != nil {
		return c, NewInvalidValueError(KeyCompression, err)
	}
	return c, nil
}

// ObjectBackend returns the object storage backend.
func (tc *TypedConfig) ObjectBackend() (store.Backend, error) {
	b, err := store.ParseBackend(tc.GetString(KeyObjectBackend))
	if err != nil {
		return b, NewInvalidValueError(KeyObjectBackend, err)
	}
	return b, nil
}

// LogAllRefUpdates returns whether to log all ref updates
func (tc *TypedConfig) LogAllRefUpdates() bool {
	entry := tc.manager.Get(KeyLogAllRefUpdates)
	if entry == nil {
		return true
	}
	val, err := entry.AsBoolean()
	if err != nil {
		return true
	}
	return val
}

// LogLevel returns the configured log level name.
func (tc *TypedConfig) LogLevel() string {
	return tc.GetString(KeyLogLevel)
}

// User configuration

// UserName returns the configured user name
func (tc *TypedConfig) UserName() string {
	return tc.GetString(KeyUserName)
}

// UserEmail returns the configured user email
func (tc *TypedConfig) UserEmail() string {
	return tc.GetString(KeyUserEmail)
}

// DefaultBranch returns the default branch name for new repositories
func (tc *TypedConfig) DefaultBranch() string {
	entry := tc.manager.Get(KeyDefaultBranch)
	if entry == nil || entry.Value == "" {
		return "main"
	}
	return entry.AsString()
}

// GC configuration

// ReflogExpire returns how old a log entry must be before gc drops it.
// Zero means entries never expire.
func (tc *TypedConfig) ReflogExpire() (time.Duration, error) {
	return tc.GetDuration(KeyReflogExpire)
}

// PruneGrace returns how recently written an unreachable object may be
// and still survive a collection.
func (tc *TypedConfig) PruneGrace() (time.Duration, error) {
	return tc.GetDuration(KeyPruneGrace)
}

// GetString returns a configuration value as a string
func (tc *TypedConfig) GetString(key string) string {
	entry := tc.manager.Get(key)
	if entry == nil {
		return ""
	}
	return entry.AsString()
}

// GetInt returns a configuration value as an integer
func (tc *TypedConfig) GetInt(key string) (int, error) {
	entry := tc.manager.Get(key)
	if entry == nil {
		return 0, NewNotFoundError(key, "")
	}
	return entry.AsInt()
}

// GetBool returns a configuration value as a boolean
func (tc *TypedConfig) GetBool(key string) (bool, error) {
	entry := tc.manager.Get(key)
	if entry == nil {
		return false, NewNotFoundError(key, "")
	}
	return entry.AsBoolean()
}

// GetDuration returns a configuration value as a duration.
func (tc *TypedConfig) GetDuration(key string) (time.Duration, error) {
	entry := tc.manager.Get(key)
	if entry == nil {
		return 0, NewNotFoundError(key, "")
	}
	return entry.AsDuration()
}

// GetList returns a configuration value as a list of strings
func (tc *TypedConfig) GetList(key string) []string {
	entry := tc.manager.Get(key)
	if entry == nil {
		return []string{}
	}
	return entry.AsList()
}

// GetAll returns all values for a multi-value configuration key
func (tc *TypedConfig) GetAll(key string) []string {
	entries := tc.manager.GetAll(key)
	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.AsString())
	}
	return result
}
