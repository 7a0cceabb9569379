// Package tag encodes and decodes annotated tag objects.
package tag

import (
	"fmt"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
)

// Tag is an annotated tag: a named, signed-off pointer to another object.
//
// Payload layout:
//
//	object <hex>
//	type <kind>
//	tag <name>
//	tagger <person>         (optional)
//
//	<message>
type Tag struct {
	Object     objects.ObjectHash
	ObjectType objects.ObjectType
	Name       string
	Tagger     *commit.Person
	Message    string
}

// New creates a validated tag.
func New(target objects.ObjectHash, kind objects.ObjectType, name string, tagger *commit.Person, message string) (*Tag, error) {
	t := &Tag{
		Object:     objects.ObjectHash(strings.ToLower(target.String())),
		ObjectType: kind,
		Name:       name,
		Tagger:     tagger,
		Message:    message,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that all required fields are present
func (t *Tag) Validate() error {
	if err := t.Object.Validate(); err != nil {
		return fmt.Errorf("object: %w", err)
	}
	if !t.ObjectType.IsValid() {
		return fmt.Errorf("invalid target type %q", t.ObjectType)
	}
	if t.Name == "" || strings.ContainsAny(t.Name, " \n") {
		return fmt.Errorf("invalid tag name %q", t.Name)
	}
	return nil
}

// Type returns the object type
func (t *Tag) Type() objects.ObjectType {
	return objects.TagType
}

// Content returns the canonical payload (without header).
func (t *Tag) Content() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tag: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("object " + t.Object.String() + "\n")
	buf.WriteString("type " + t.ObjectType.String() + "\n")
	buf.WriteString("tag " + t.Name + "\n")
	if t.Tagger != nil {
		buf.WriteString("tagger " + t.Tagger.FormatForGit() + "\n")
	}
	buf.WriteString("\n")
	buf.WriteString(t.Message)
	return []byte(buf.String()), nil
}

// Parse decodes a tag payload (without header).
func Parse(content []byte) (*Tag, error) {
	headers, message, _ := strings.Cut(string(content), "\n\n")
	t := &Tag{Message: message}

	for _, line := range strings.Split(headers, "\n") {
		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "object":
			h, err := objects.ParseObjectHash(value)
			if err != nil {
				return nil, fmt.Errorf("invalid object hash: %w", err)
			}
			t.Object = h
		case "type":
			kind, err := objects.ParseObjectType(value)
			if err != nil {
				return nil, err
			}
			t.ObjectType = kind
		case "tag":
			t.Name = value
		case "tagger":
			p, err := commit.ParsePerson(value)
			if err != nil {
				return nil, fmt.Errorf("invalid tagger: %w", err)
			}
			t.Tagger = p
		default:
			return nil, fmt.Errorf("unknown tag header %q", line)
		}
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tag: %w", err)
	}
	return t, nil
}

// String returns a human-readable representation
func (t *Tag) String() string {
	return fmt.Sprintf("Tag{name: %s, object: %s %s}", t.Name, t.ObjectType, t.Object.Short())
}
