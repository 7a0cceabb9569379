package objects

import (
	"fmt"
)

// ObjectType represents the kind of a stored object
type ObjectType string

const (
	BlobType   ObjectType = "blob"
	TreeType   ObjectType = "tree"
	CommitType ObjectType = "commit"
	TagType    ObjectType = "tag"
)

const (
	NullByte  = byte(0)
	SpaceByte = byte(' ')
)

// String implements the Stringer interface
func (o ObjectType) String() string {
	return string(o)
}

// IsValid reports whether o is one of the four object kinds.
func (o ObjectType) IsValid() bool {
	switch o {
	case BlobType, TreeType, CommitType, TagType:
		return true
	}
	return false
}

// ParseObjectType converts a string to ObjectType
func ParseObjectType(s string) (ObjectType, error) {
	if t := ObjectType(s); t.IsValid() {
		return t, nil
	}
	return "", fmt.Errorf("unknown object type: %q", s)
}

// BaseObject is implemented by every typed object (blob, tree, commit, tag).
// Content is the canonical payload that is hashed and stored; two objects
// with equal Type and Content are the same object.
type BaseObject interface {
	Type() ObjectType
	Content() ([]byte, error)
}

// Hash computes obj's digest under alg without storing it.
func Hash(alg Algorithm, obj BaseObject) (ObjectHash, error) {
	content, err := obj.Content()
	if err != nil {
		return "", err
	}
	return alg.HashObject(obj.Type(), content), nil
}
