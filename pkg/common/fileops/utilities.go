package fileops

import (
	"fmt"
	"os"
	"strings"
)

// Exists reports whether path exists. Errors other than non-existence are
// returned.
func Exists(path string) (bool, error) {
	_, e := os.Stat(path)
	if e == nil {
		return true, nil
	}
	if os.IsNotExist(e) {
		return false, nil
	}
	return false, fmt.Errorf("check existence: %w", e)
}

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	if e := os.MkdirAll(path, 0755); e != nil {
		return fmt.Errorf("ensure directory %s: %w", path, e)
	}
	return nil
}

// ReadString reads a file and trims surrounding whitespace.
// A missing file yields "" and a nil error.
func ReadString(path string) (string, error) {
	data, e := os.ReadFile(path)
	if e != nil {
		if os.IsNotExist(e) {
			return "", nil
		}
		return "", fmt.Errorf("read file: %w", e)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadBytes reads a file. A missing file yields nil and a nil error.
func ReadBytes(path string) ([]byte, error) {
	data, e := os.ReadFile(path)
	if e != nil {
		if os.IsNotExist(e) {
			return nil, nil
		}
		return nil, fmt.Errorf("read file: %w", e)
	}
	return data, nil
}

// SafeRemove removes a file, treating a missing file as success.
func SafeRemove(path string) error {
	if e := os.Remove(path); e != nil && !os.IsNotExist(e) {
		return fmt.Errorf("remove file: %w", e)
	}
	return nil
}
