package blob

import (
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Blob holds raw file content. It has no name and no mode; those live in
// the tree entry or index entry that points at it.
type Blob struct {
	content []byte
}

// NewBlob creates a new Blob object from raw data
func NewBlob(data []byte) *Blob {
	return &Blob{content: data}
}

// Type returns the object type
func (b *Blob) Type() objects.ObjectType {
	return objects.BlobType
}

// Content returns the raw content of the blob
func (b *Blob) Content() ([]byte, error) {
	return b.content, nil
}

// Data returns the blob bytes.
func (b *Blob) Data() []byte {
	return b.content
}

// Size returns the size of the content in bytes
func (b *Blob) Size() int64 {
	return int64(len(b.content))
}

// String returns a human-readable representation
func (b *Blob) String() string {
	return fmt.Sprintf("Blob{size: %d}", len(b.content))
}
