package commit

import (
	"fmt"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Commit is a snapshot in history: a root tree, zero or more parents,
// who wrote and who recorded it, and a free-form message.
//
// Payload layout:
//
//	tree <hex>
//	parent <hex>            (zero or more, in order)
//	author <person>
//	committer <person>
//	<extra headers>         (preserved verbatim, e.g. gpgsig)
//
//	<message>
type Commit struct {
	Tree      objects.ObjectHash
	Parents   []objects.ObjectHash
	Author    *Person
	Committer *Person
	Message   string

	// ExtraHeaders holds header lines this package does not interpret,
	// including continuation lines, so parsed commits re-encode exactly.
	ExtraHeaders []string
}

// Validate checks that all required fields are present
func (c *Commit) Validate() error {
	if err := c.Tree.Validate(); err != nil {
		return fmt.Errorf("tree: %w", err)
	}
	for i, p := range c.Parents {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("parent %d: %w", i, err)
		}
	}
	if c.Author == nil {
		return fmt.Errorf("author is required")
	}
	if c.Committer == nil {
		return fmt.Errorf("committer is required")
	}
	return nil
}

// Type returns the object type
func (c *Commit) Type() objects.ObjectType {
	return objects.CommitType
}

// Content returns the canonical payload (without header).
func (c *Commit) Content() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("tree " + c.Tree.String() + "\n")
	for _, parent := range c.Parents {
		buf.WriteString("parent " + parent.String() + "\n")
	}
	buf.WriteString("author " + c.Author.FormatForGit() + "\n")
	buf.WriteString("committer " + c.Committer.FormatForGit() + "\n")
	for _, h := range c.ExtraHeaders {
		buf.WriteString(h + "\n")
	}
	buf.WriteString("\n")
	buf.WriteString(c.Message)

	return []byte(buf.String()), nil
}

// Parse decodes a commit payload (without header).
func Parse(content []byte) (*Commit, error) {
	text := string(content)
	headers, message, found := strings.Cut(text, "\n\n")
	if !found {
		// A commit with an empty message may end right after the headers.
		headers = strings.TrimSuffix(text, "\n")
	}

	c := &Commit{Message: message}
	for _, line := range strings.Split(headers, "\n") {
		if err := c.parseHeader(line); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}
	return c, nil
}

func (c *Commit) parseHeader(line string) error {
	key, value, _ := strings.Cut(line, " ")

	switch {
	case key == "tree" && len(c.ExtraHeaders) == 0:
		if c.Tree != "" {
			return fmt.Errorf("multiple tree entries found")
		}
		h, err := objects.ParseObjectHash(value)
		if err != nil {
			return fmt.Errorf("invalid tree hash: %w", err)
		}
		c.Tree = h

	case key == "parent" && len(c.ExtraHeaders) == 0:
		h, err := objects.ParseObjectHash(value)
		if err != nil {
			return fmt.Errorf("invalid parent hash: %w", err)
		}
		c.Parents = append(c.Parents, h)

	case key == "author" && len(c.ExtraHeaders) == 0:
		if c.Author != nil {
			return fmt.Errorf("multiple author entries found")
		}
		p, err := ParsePerson(value)
		if err != nil {
			return fmt.Errorf("invalid author: %w", err)
		}
		c.Author = p

	case key == "committer" && len(c.ExtraHeaders) == 0:
		if c.Committer != nil {
			return fmt.Errorf("multiple committer entries found")
		}
		p, err := ParsePerson(value)
		if err != nil {
			return fmt.Errorf("invalid committer: %w", err)
		}
		c.Committer = p

	case line == "":
		return fmt.Errorf("empty header line")

	default:
		c.ExtraHeaders = append(c.ExtraHeaders, line)
	}
	return nil
}

// IsInitialCommit returns true if this commit has no parents
func (c *Commit) IsInitialCommit() bool {
	return len(c.Parents) == 0
}

// IsMergeCommit returns true if this commit has multiple parents
func (c *Commit) IsMergeCommit() bool {
	return len(c.Parents) > 1
}

// Subject returns the first line of the message.
func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimLeft(c.Message, "\n"), "\n")
	return subject
}

// String returns a human-readable representation
func (c *Commit) String() string {
	return fmt.Sprintf("Commit{tree: %s, parents: %d, message: %.50s}",
		c.Tree.Short(), len(c.Parents), c.Subject())
}
