package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

// Store holds the entries of one config file. The file format follows the
// extension: .yaml and .yml are YAML, everything else JSON.
// Writes go through fileops.AtomicWrite so a crash never leaves a torn file.
type Store struct {
	path    scpath.AbsolutePath
	level   ConfigLevel
	format  FileFormat
	entries map[string][]*ConfigEntry
	log     *slog.Logger
}

// NewStore creates a new configuration store for a specific file and level
func NewStore(path scpath.AbsolutePath, level ConfigLevel, log *slog.Logger) *Store {
	return &Store{
		path:    path,
		level:   level,
		format:  FormatFor(path.String()),
		entries: make(map[string][]*ConfigEntry),
		log:     log,
	}
}

// Load reads and parses the configuration file.
// A missing file is an empty config. A file that does not parse is logged
// and ignored so one bad user file cannot lock a repository out.
func (s *Store) Load() error {
	content, err := os.ReadFile(s.path.String())
	if errors.Is(err, fs.ErrNotExist) {
		s.entries = make(map[string][]*ConfigEntry)
		return nil
	}
	if err != nil {
		return NewConfigError("load", CodeNotFoundErr, "", s.path.String(), s.level.String(), err)
	}

	values, err := decodeDocument(content, s.format)
	if err != nil {
		s.log.Warn("ignoring invalid configuration file",
			"path", s.path.String(), "format", s.format.String(), "error", err)
		s.entries = make(map[string][]*ConfigEntry)
		return nil
	}

	s.entries = s.toEntries(values)
	return nil
}

// Save writes the configuration to disk atomically
func (s *Store) Save() error {
	content, err := encodeDocument(s.values(), s.format)
	if err != nil {
		return NewInvalidFormatError("save", s.path.String(), err)
	}
	if err := fileops.AtomicWrite(s.path, content, 0644); err != nil {
		return NewConfigError("save", CodeInvalidFormatErr, "", s.path.String(), s.level.String(), err)
	}
	return nil
}

// GetEntries returns all entries for a specific key
func (s *Store) GetEntries(key string) []*ConfigEntry {
	entries := s.entries[key]
	result := make([]*ConfigEntry, len(entries))
	for i, entry := range entries {
		result[i] = entry.Clone()
	}
	return result
}

// Keys returns every key with at least one value.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k, v := range s.entries {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

// Set replaces all values for a key with a single value
func (s *Store) Set(key, value string) {
	s.entries[key] = []*ConfigEntry{NewEntry(key, value, s.level, NewFileSource(s.path))}
}

// Add appends a value to a multi-value key
func (s *Store) Add(key, value string) {
	s.entries[key] = append(s.entries[key], NewEntry(key, value, s.level, NewFileSource(s.path)))
}

// Unset removes all values for a key
func (s *Store) Unset(key string) {
	delete(s.entries, key)
}

// Export encodes the store's entries in the given format.
func (s *Store) Export(format FileFormat) ([]byte, error) {
	return encodeDocument(s.values(), format)
}

// Path returns the file path for this store
func (s *Store) Path() scpath.AbsolutePath {
	return s.path
}

// Level returns the configuration level for this store
func (s *Store) Level() ConfigLevel {
	return s.level
}

// HasKey returns true if the store has any entries for the given key
func (s *Store) HasKey(key string) bool {
	return len(s.entries[key]) > 0
}

func (s *Store) values() map[string][]string {
	out := make(map[string][]string, len(s.entries))
	for k, entries := range s.entries {
		for _, e := range entries {
			out[k] = append(out[k], e.Value)
		}
	}
	return out
}

func (s *Store) toEntries(values map[string][]string) map[string][]*ConfigEntry {
	source := NewFileSource(s.path)
	out := make(map[string][]*ConfigEntry, len(values))
	for k, vs := range values {
		for _, v := range vs {
			out[k] = append(out[k], NewEntry(k, v, s.level, source))
		}
	}
	return out
}
