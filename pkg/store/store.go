// Package store implements the content-addressed object database.
//
// Objects are identified by the digest of their canonical encoding
// ("<kind> <len>\0<payload>"). Two backends are provided: loose files under
// .source/objects (the default) and a single bbolt database file.
package store

import (
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// ObjectStore is the object database used by every other component.
type ObjectStore interface {
	// Put stores payload under kind and returns its digest. Storing an
	// object that already exists is a no-op that returns the same digest.
	Put(kind objects.ObjectType, data []byte) (objects.ObjectHash, error)

	// Get returns the kind and payload of hash. It fails with
	// ErrObjectNotFound when absent and ErrIntegrityFault when the stored
	// bytes no longer hash to hash.
	Get(hash objects.ObjectHash) (objects.ObjectType, []byte, error)

	// Exists reports whether hash is stored. Errors read as false.
	Exists(hash objects.ObjectHash) bool

	// TypeOf returns the kind of hash without decoding the payload.
	TypeOf(hash objects.ObjectHash) (objects.ObjectType, error)

	// FindByPrefix returns every stored digest starting with the hex prefix,
	// sorted.
	FindByPrefix(prefix string) ([]objects.ObjectHash, error)

	// Walk calls fn for every stored object. Returning an error from fn
	// stops the walk and is returned as-is.
	Walk(fn func(ObjectInfo) error) error

	// Delete removes hash and reports how many bytes it occupied.
	Delete(hash objects.ObjectHash) (int64, error)

	// Algorithm returns the digest algorithm objects are named with.
	Algorithm() objects.Algorithm

	// Close releases backend resources.
	Close() error
}

// ObjectInfo describes one stored object as seen by Walk.
type ObjectInfo struct {
	Hash objects.ObjectHash

	// Size is the number of bytes the object occupies in the backend.
	Size int64

	// ModTime is when the object was last written or re-put.
	ModTime time.Time
}

// PutObject hashes and stores a typed object.
func PutObject(s ObjectStore, obj objects.BaseObject) (objects.ObjectHash, error) {
	content, err := obj.Content()
	if err != nil {
		return "", newStorageFault("put", "encode object", err)
	}
	return s.Put(obj.Type(), content)
}
