package config

import "github.com/utkarsh5026/sourcevault/pkg/repository/scpath"

// ConfigLevel represents the hierarchy level of a configuration entry
// Ordered by precedence (highest to lowest)
type ConfigLevel int

const (
	// CommandLineLevel holds values given with -c key=value (highest precedence)
	CommandLineLevel ConfigLevel = iota

	// RepositoryLevel is .source/config.json
	RepositoryLevel

	// UserLevel is ~/.config/sourcevault/config.{json,yaml}
	UserLevel

	// SystemLevel is /etc/sourcevault/config.{json,yaml}
	SystemLevel

	// BuiltinLevel represents hardcoded default values (lowest precedence)
	BuiltinLevel
)

// String returns the string representation of the configuration level
func (l ConfigLevel) String() string {
	switch l {
	case CommandLineLevel:
		return "command-line"
	case RepositoryLevel:
		return "repository"
	case UserLevel:
		return "user"
	case SystemLevel:
		return "system"
	case BuiltinLevel:
		return "builtin"
	default:
		return "unknown"
	}
}

// CanWrite returns true if the configuration level is backed by a file
func (l ConfigLevel) CanWrite() bool {
	return l == RepositoryLevel || l == UserLevel || l == SystemLevel
}

// ParseLevel converts a string to a ConfigLevel
func ParseLevel(s string) (ConfigLevel, error) {
	for l := CommandLineLevel; l <= BuiltinLevel; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, NewConfigError("parse", CodeInvalidLevelErr, "", "", s, ErrInvalidLevel)
}

// ConfigSource names where an entry came from: "command-line", "builtin"
// or a file path.
type ConfigSource string

const (
	CommandLineSource ConfigSource = "command-line"
	BuiltinSource     ConfigSource = "builtin"
)

// NewFileSource creates a ConfigSource from a file path
func NewFileSource(path scpath.AbsolutePath) ConfigSource {
	return ConfigSource(path.String())
}

func (s ConfigSource) String() string {
	return string(s)
}

// IsFile returns true if this is a file-based source
func (s ConfigSource) IsFile() bool {
	return s != CommandLineSource && s != BuiltinSource && s != ""
}
