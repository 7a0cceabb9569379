package commit

import (
	"errors"
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Builder provides a fluent interface for assembling commits.
// Errors are collected and reported together by Build.
type Builder struct {
	commit *Commit
	errs   []error
}

// NewBuilder creates a new Builder
func NewBuilder() *Builder {
	return &Builder{commit: &Commit{}}
}

// Tree sets the root tree
func (b *Builder) Tree(hash objects.ObjectHash) *Builder {
	h, err := objects.ParseObjectHash(hash.String())
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("invalid tree hash: %w", err))
		return b
	}
	b.commit.Tree = h
	return b
}

// Parents appends parents in order
func (b *Builder) Parents(hashes ...objects.ObjectHash) *Builder {
	for _, hash := range hashes {
		h, err := objects.ParseObjectHash(hash.String())
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("invalid parent hash: %w", err))
			continue
		}
		b.commit.Parents = append(b.commit.Parents, h)
	}
	return b
}

// Author sets the author of the commit
func (b *Builder) Author(author *Person) *Builder {
	if author == nil {
		b.errs = append(b.errs, fmt.Errorf("author cannot be nil"))
	}
	b.commit.Author = author
	return b
}

// Committer sets the committer of the commit
func (b *Builder) Committer(committer *Person) *Builder {
	if committer == nil {
		b.errs = append(b.errs, fmt.Errorf("committer cannot be nil"))
	}
	b.commit.Committer = committer
	return b
}

// Message sets the commit message
func (b *Builder) Message(message string) *Builder {
	b.commit.Message = message
	return b
}

// Build creates the Commit, returning an error if validation fails
func (b *Builder) Build() (*Commit, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("commit builder: %w", errors.Join(b.errs...))
	}
	if err := b.commit.Validate(); err != nil {
		return nil, err
	}
	return b.commit, nil
}
