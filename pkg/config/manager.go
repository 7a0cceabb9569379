// Package config implements layered configuration. A key resolves from
// the command line first, then the repository file, the user file, the
// system file and finally the builtin defaults.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"golang.org/x/sync/errgroup"
)

// Default configuration paths
const (
	WindowsProgramFilesPath = `C:\ProgramData\SourceVault`
	UnixProgramFilesPath    = "/etc/sourcevault"
	ConfigFileName          = "config.json"
	YAMLConfigFileName      = "config.yaml"
)

// Engine keys and their builtin values.
const (
	KeyDigest           = "core.digest"
	KeyCompression      = "core.compression"
	KeyObjectBackend    = "core.objectbackend"
	KeyLogAllRefUpdates = "core.logallrefupdates"
	KeyLogLevel         = "core.loglevel"
	KeyDefaultBranch    = "init.defaultbranch"
	KeyUserName         = "user.name"
	KeyUserEmail        = "user.email"
	KeyReflogExpire     = "gc.reflogexpire"
	KeyPruneGrace       = "gc.prunegrace"
)

var builtinDefaults = map[string]string{
	KeyDigest:           "sha1",
	KeyCompression:      "zlib",
	KeyObjectBackend:    "file",
	KeyLogAllRefUpdates: "true",
	KeyLogLevel:         "info",
	KeyDefaultBranch:    "main",
	KeyUserName:         "unknown",
	KeyUserEmail:        "unknown@localhost",
	KeyReflogExpire:     "90d",
	KeyPruneGrace:       "2h",
}

// Manager is the central configuration manager that handles the hierarchy of config files
// It is thread-safe and can be used concurrently
type Manager struct {
	mu          sync.RWMutex
	stores      map[ConfigLevel]*Store
	commandLine map[string]string
	builtins    map[string]string
	validator   *Validator
	userDir     string
	systemDir   string
	log         *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = logger.Component(l, "config") }
}

// WithUserDir overrides the directory holding the user config file.
// An empty dir disables the user level.
func WithUserDir(dir string) Option {
	return func(m *Manager) { m.userDir = dir }
}

// WithSystemDir overrides the directory holding the system config file.
// An empty dir disables the system level.
func WithSystemDir(dir string) Option {
	return func(m *Manager) { m.systemDir = dir }
}

// NewManager creates a new configuration manager.
// An empty repositoryPath leaves out the repository level, which is what
// commands running outside a repository want.
//
// Example:
//
//	cfg := config.NewManager(repoPath)
//	if err := cfg.Load(ctx); err != nil { ... }
//	digest := config.NewTypedConfig(cfg).GetString(config.KeyDigest)
func NewManager(repositoryPath scpath.RepositoryPath, opts ...Option) *Manager {
	m := &Manager{
		stores:      make(map[ConfigLevel]*Store),
		commandLine: make(map[string]string),
		builtins:    make(map[string]string, len(builtinDefaults)),
		validator:   &Validator{},
		userDir:     defaultUserDir(),
		systemDir:   defaultSystemDir(),
		log:         logger.Component(nil, "config"),
	}
	for _, opt := range opts {
		opt(m)
	}
	for k, v := range builtinDefaults {
		m.builtins[k] = v
	}

	if m.systemDir != "" {
		m.stores[SystemLevel] = NewStore(pickFile(m.systemDir), SystemLevel, m.log)
	}
	if m.userDir != "" {
		m.stores[UserLevel] = NewStore(pickFile(m.userDir), UserLevel, m.log)
	}
	if repositoryPath != "" {
		path := repositoryPath.SourcePath().ConfigPath().ToAbsolutePath()
		m.stores[RepositoryLevel] = NewStore(path, RepositoryLevel, m.log)
	}
	return m
}

// Load loads all configuration files from disk
// This is typically called once during initialization
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, store := range m.stores {
		s := store
		g.Go(s.Load)
	}
	return g.Wait()
}

// Get retrieves a configuration value, respecting the hierarchy
// Returns the highest precedence value, or nil if not found
func (m *Manager) Get(key string) *ConfigEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getUnsafe(normalizeKey(key))
}

// GetAll retrieves all values for a configuration key across all levels
func (m *Manager) GetAll(key string) []*ConfigEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key = normalizeKey(key)
	var all []*ConfigEntry
	if value, ok := m.commandLine[key]; ok {
		all = append(all, NewCommandLineEntry(key, value))
	}
	for _, level := range []ConfigLevel{RepositoryLevel, UserLevel, SystemLevel} {
		if store, ok := m.stores[level]; ok {
			all = append(all, store.GetEntries(key)...)
		}
	}
	if value, ok := m.builtins[key]; ok {
		all = append(all, NewBuiltinEntry(key, value))
	}
	return all
}

// Set sets a configuration value at a specific level
// Returns an error if the level is not writable, the store doesn't exist
// or the value fails validation
func (m *Manager) Set(key, value string, level ConfigLevel) error {
	return m.mutate("set", key, value, level, func(s *Store, k string) { s.Set(k, value) })
}

// Add adds a value to a multi-value configuration key
func (m *Manager) Add(key, value string, level ConfigLevel) error {
	return m.mutate("add", key, value, level, func(s *Store, k string) { s.Add(k, value) })
}

// Unset removes a configuration key at a specific level
func (m *Manager) Unset(key string, level ConfigLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key = normalizeKey(key)
	store, err := m.validateStore("unset", key, level)
	if err != nil {
		return err
	}
	store.Unset(key)
	return store.Save()
}

func (m *Manager) mutate(op, key, value string, level ConfigLevel, apply func(*Store, string)) error {
	key = normalizeKey(key)
	if err := m.validator.ValidateKeyValue(key, value); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	store, err := m.validateStore(op, key, level)
	if err != nil {
		return err
	}
	apply(store, key)
	if err := store.Save(); err != nil {
		return err
	}
	m.log.Debug("config updated", "op", op, "key", key, "level", level.String())
	return nil
}

func (m *Manager) validateStore(operation string, key string, level ConfigLevel) (*Store, error) {
	if !level.CanWrite() {
		return nil, NewConfigError(operation, CodeReadOnlyErr, key, "", level.String(), ErrReadOnly)
	}

	store, exists := m.stores[level]
	if !exists {
		return nil, NewConfigError(operation, CodeNotFoundErr, key, "", level.String(), fmt.Errorf("store does not exist for level"))
	}
	return store, nil
}

// SetCommandLine sets a command-line configuration value
func (m *Manager) SetCommandLine(key, value string) error {
	key = normalizeKey(key)
	if err := m.validator.ValidateKeyValue(key, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandLine[key] = value
	return nil
}

// List returns all effective configuration entries (respecting hierarchy)
func (m *Manager) List() []*ConfigEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listUnsafe()
}

// Export encodes configuration in the given format. With a level only that
// level's file content is exported, otherwise the effective configuration.
func (m *Manager) Export(level *ConfigLevel, format FileFormat) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if level != nil {
		store, exists := m.stores[*level]
		if !exists {
			return encodeDocument(nil, format)
		}
		return store.Export(format)
	}

	values := make(map[string][]string)
	for _, entry := range m.listUnsafe() {
		values[entry.Key] = append(values[entry.Key], entry.Value)
	}
	return encodeDocument(values, format)
}

// GetStore returns the store for a specific level
// Returns nil if the store doesn't exist
func (m *Manager) GetStore(level ConfigLevel) *Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stores[level]
}

func defaultSystemDir() string {
	if runtime.GOOS == "windows" {
		return WindowsProgramFilesPath
	}
	return UnixProgramFilesPath
}

func defaultUserDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "sourcevault")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "sourcevault")
}

// pickFile prefers config.yaml when it exists and falls back to config.json.
func pickFile(dir string) scpath.AbsolutePath {
	yamlPath := filepath.Join(dir, YAMLConfigFileName)
	if ok, _ := fileops.Exists(yamlPath); ok {
		return scpath.AbsolutePath(yamlPath)
	}
	return scpath.AbsolutePath(filepath.Join(dir, ConfigFileName))
}

// getUnsafe is the internal implementation of Get without locking
// Caller must hold at least read lock
func (m *Manager) getUnsafe(key string) *ConfigEntry {
	if value, exists := m.commandLine[key]; exists {
		return NewCommandLineEntry(key, value)
	}

	for _, level := range []ConfigLevel{RepositoryLevel, UserLevel, SystemLevel} {
		store, ok := m.stores[level]
		if !ok {
			continue
		}
		if entries := store.GetEntries(key); len(entries) > 0 {
			return entries[len(entries)-1]
		}
	}

	if value, exists := m.builtins[key]; exists {
		return NewBuiltinEntry(key, value)
	}
	return nil
}

// listUnsafe is the internal implementation of List without locking
// Caller must hold at least read lock
func (m *Manager) listUnsafe() []*ConfigEntry {
	keys := make(map[string]struct{})
	for key := range m.commandLine {
		keys[key] = struct{}{}
	}
	for _, store := range m.stores {
		for _, key := range store.Keys() {
			keys[key] = struct{}{}
		}
	}
	for key := range m.builtins {
		keys[key] = struct{}{}
	}

	entries := make([]*ConfigEntry, 0, len(keys))
	for key := range keys {
		if entry := m.getUnsafe(key); entry != nil {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}
