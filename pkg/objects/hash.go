package objects

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ObjectHash is a lowercase hex digest identifying an object.
// Its length depends on the repository's Algorithm (40 for SHA-1, 64 for
// SHA-256 and BLAKE3).
type ObjectHash string

// ShortHash represents an abbreviated hash (typically 7 characters)
type ShortHash string

const (
	// ShortHashLength is the default length for abbreviated hashes
	ShortHashLength = 7

	// MinPrefixLength is the shortest prefix accepted when resolving
	// abbreviated hashes.
	MinPrefixLength = 4
)

// NewObjectHashFromRaw hex-encodes raw digest bytes.
func NewObjectHashFromRaw(raw []byte) ObjectHash {
	return ObjectHash(hex.EncodeToString(raw))
}

// ParseObjectHash validates s as a full-length digest of any supported
// algorithm and returns it lowercased.
func ParseObjectHash(s string) (ObjectHash, error) {
	hash := ObjectHash(strings.ToLower(strings.TrimSpace(s)))
	if err := hash.Validate(); err != nil {
		return "", err
	}
	return hash, nil
}

// String returns the hash as a string
func (h ObjectHash) String() string {
	return string(h)
}

// Validate checks that h is hex and has a supported digest length.
func (h ObjectHash) Validate() error {
	if !isSupportedHexLength(len(h)) {
		return fmt.Errorf("hash must be 40 or 64 characters long, got %d", len(h))
	}
	if !IsHex(string(h)) {
		return fmt.Errorf("hash must contain only hex characters: %q", string(h))
	}
	return nil
}

// IsValid returns true if h is a full-length hex digest.
func (h ObjectHash) IsValid() bool {
	return h.Validate() == nil
}

// IsZero reports whether h is empty or all zeros. Movement logs use the
// all-zero digest for "did not exist".
func (h ObjectHash) IsZero() bool {
	return strings.Trim(string(h), "0") == ""
}

// Short returns the abbreviated version of the hash
func (h ObjectHash) Short() ShortHash {
	return h.ShortN(ShortHashLength)
}

// ShortN returns the first n characters of the hash
func (h ObjectHash) ShortN(n int) ShortHash {
	if n <= 0 {
		n = ShortHashLength
	}
	if n > len(h) {
		n = len(h)
	}
	return ShortHash(h[:n])
}

// Bytes decodes the hex digest.
func (h ObjectHash) Bytes() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return hex.DecodeString(string(h))
}

// HasPrefix returns true if the hash starts with the given prefix
func (h ObjectHash) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(h), strings.ToLower(prefix))
}

// MarshalText implements encoding.TextMarshaler
func (h ObjectHash) MarshalText() ([]byte, error) {
	return []byte(h), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *ObjectHash) UnmarshalText(text []byte) error {
	hash, err := ParseObjectHash(string(text))
	if err != nil {
		return err
	}
	*h = hash
	return nil
}

// String returns the short hash as a string
func (sh ShortHash) String() string {
	return string(sh)
}

// Matches returns true if the full hash starts with this short hash
func (sh ShortHash) Matches(hash ObjectHash) bool {
	return hash.HasPrefix(string(sh))
}

// IsHex reports whether s is non-empty and consists only of hex digits.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isHexChar(c) {
			return false
		}
	}
	return true
}

// LooksLikePrefix reports whether s could be an abbreviated digest.
func LooksLikePrefix(s string) bool {
	return len(s) >= MinPrefixLength && len(s) <= 64 && IsHex(s)
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isSupportedHexLength(n int) bool {
	return n == 2*SHA1.Size() || n == 2*SHA256.Size()
}
