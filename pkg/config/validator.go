package config

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

// Validator provides semantic validation for configuration values
type Validator struct{}

// ValidateKeyValue validates a configuration key-value pair
// Returns nil if valid, or an error describing the validation failure
func (v *Validator) ValidateKeyValue(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) < 2 || slices.Contains(parts, "") {
		return NewInvalidValueError(key, fmt.Errorf("configuration key must have at least section.name format"))
	}

	section := strings.ToLower(parts[0])
	name := strings.ToLower(parts[len(parts)-1])
	return v.validateBySection(section, name, value)
}

// validateBySection performs section-specific validation
func (v *Validator) validateBySection(section, name, value string) error {
	switch section {
	case "core":
		return v.validateCore(name, value)
	case "user":
		return v.validateUser(name, value)
	case "init":
		return v.validateInit(name, value)
	case "gc":
		return v.validateGC(name, value)
	default:
		// Unknown sections are allowed (extensibility)
		return nil
	}
}

// validateCore validates core.* configuration values
func (v *Validator) validateCore(name, value string) error {
	key := "core." + name
	switch name {
	case "digest":
		if _, err := objects.ParseAlgorithm(value); err != nil {
			return NewInvalidValueError(key, err)
		}
	case "compression":
		if _, err := store.ParseCompression(value); err != nil {
			return NewInvalidValueError(key, err)
		}
	case "objectbackend":
		if _, err := store.ParseBackend(value); err != nil {
			return NewInvalidValueError(key, err)
		}
	case "loglevel":
		if _, err := logger.ParseLevel(value); err != nil {
			return NewInvalidValueError(key, err)
		}
	case "logallrefupdates":
		return v.validateBoolean(value, key)
	}
	return nil
}

// validateUser validates user.* configuration values
func (v *Validator) validateUser(name, value string) error {
	switch name {
	case "email":
		return v.validateEmail(value)
	case "name":
		if strings.TrimSpace(value) == "" {
			return NewInvalidValueError("user.name", fmt.Errorf("user name cannot be empty"))
		}
		if strings.ContainsAny(value, "<>\n") {
			return NewInvalidValueError("user.name", fmt.Errorf("user name cannot contain '<', '>' or newlines"))
		}
	}
	return nil
}

// validateInit validates init.* configuration values
func (v *Validator) validateInit(name, value string) error {
	if name == "defaultbranch" {
		if _, err := refs.BranchRef(value); err != nil {
			return NewInvalidValueError("init.defaultbranch", err)
		}
	}
	return nil
}

// validateGC validates gc.* configuration values
func (v *Validator) validateGC(name, value string) error {
	switch name {
	case "reflogexpire", "prunegrace":
		entry := &ConfigEntry{Key: "gc." + name, Value: value}
		if _, err := entry.AsDuration(); err != nil {
			return NewInvalidValueError(entry.Key, fmt.Errorf("must be a duration such as 2h, 90d or never"))
		}
	}
	return nil
}

func (v *Validator) validateBoolean(value, key string) error {
	lower := strings.ToLower(strings.TrimSpace(value))
	validValues := []string{"true", "false", "yes", "no", "1", "0", "on", "off"}
	if slices.Contains(validValues, lower) {
		return nil
	}
	return NewInvalidValueError(key, fmt.Errorf("must be a boolean (true/false/yes/no/1/0/on/off)"))
}

func (v *Validator) validateEmail(value string) error {
	if strings.TrimSpace(value) == "" {
		return NewInvalidValueError("user.email", fmt.Errorf("email cannot be empty"))
	}
	if strings.ContainsAny(value, "<>\n") {
		return NewInvalidValueError("user.email", fmt.Errorf("email cannot contain '<', '>' or newlines"))
	}
	// local-only addresses such as unknown@localhost are accepted.
	if _, err := mail.ParseAddress(value); err != nil {
		return NewInvalidValueError("user.email", fmt.Errorf("invalid email format: %v", err))
	}
	return nil
}
