package objects

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm is the digest function of a repository. It is fixed at init
// time (config key core.digest) because it determines every object id.
type Algorithm struct {
	name string
	size int
	new  func() hash.Hash
}

var (
	// SHA1 produces Git-compatible 40 character digests. Default.
	SHA1 = Algorithm{name: "sha1", size: sha1.Size, new: sha1.New}

	// SHA256 produces 64 character digests.
	SHA256 = Algorithm{name: "sha256", size: sha256.Size, new: sha256.New}

	// BLAKE3 produces 64 character digests and is the fastest option.
	BLAKE3 = Algorithm{name: "blake3", size: 32, new: func() hash.Hash { return blake3.New() }}
)

// DefaultAlgorithm is used when a repository does not configure one.
var DefaultAlgorithm = SHA1

// ParseAlgorithm looks up an algorithm by its config name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sha1", "sha-1":
		return SHA1, nil
	case "sha256", "sha-256":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return Algorithm{}, fmt.Errorf("unsupported digest algorithm %q", name)
	}
}

// Name returns the config name ("sha1", "sha256", "blake3").
func (a Algorithm) Name() string {
	return a.name
}

// Size returns the raw digest length in bytes.
func (a Algorithm) Size() int {
	return a.size
}

// HexSize returns the digest length in hex characters.
func (a Algorithm) HexSize() int {
	return 2 * a.size
}

// New returns a fresh hash.Hash.
func (a Algorithm) New() hash.Hash {
	return a.new()
}

// Sum hashes data and returns the hex digest.
func (a Algorithm) Sum(data []byte) ObjectHash {
	h := a.new()
	h.Write(data)
	return ObjectHash(hex.EncodeToString(h.Sum(nil)))
}

// HashObject returns the digest of the canonical encoding of (kind, content)
// without materializing the header and content in one buffer.
func (a Algorithm) HashObject(kind ObjectType, content []byte) ObjectHash {
	h := a.new()
	h.Write(Header(kind, len(content)))
	h.Write(content)
	return ObjectHash(hex.EncodeToString(h.Sum(nil)))
}

// ZeroHash returns the all-zero digest of this algorithm's length.
func (a Algorithm) ZeroHash() ObjectHash {
	return ObjectHash(strings.Repeat("0", a.HexSize()))
}

// ValidateHash checks that h is a hex digest of this algorithm's length.
func (a Algorithm) ValidateHash(h ObjectHash) error {
	if len(h) != a.HexSize() {
		return fmt.Errorf("%s digest must be %d characters, got %d", a.name, a.HexSize(), len(h))
	}
	if !IsHex(string(h)) {
		return fmt.Errorf("digest must contain only hex characters: %q", string(h))
	}
	return nil
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	return a.name
}
