package branch

import (
	"context"
	"fmt"
)

// Delete handles branch deletion operations
type Delete struct {
	refService *RefService
}

// NewDelete creates a new branch delete service
func NewDelete(refSvc *RefService) *Delete {
	return &Delete{
		refService: refSvc,
	}
}

// Delete deletes a branch with the given configuration. The branch's
// movement log stays behind, so its commits survive collection until the
// log expires.
func (d *Delete) Delete(ctx context.Context, name string, config *DeleteConfig) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	full, err := branchRef(name)
	if err != nil {
		return err
	}

	tip, err := d.refService.Tip(name)
	if err != nil {
		return err
	}

	current, err := d.refService.Current()
	if err != nil {
		return err
	}
	if current == name {
		return NewIsCurrentError(name)
	}

	if !config.Force {
		merged, err := d.IsMerged(ctx, name)
		if err != nil {
			return err
		}
		if !merged {
			return NewNotMergedError(name)
		}
	}

	if err := d.refService.refs.Delete(full, fmt.Sprintf("branch: deleted %s (was %s)", name, tip.Short())); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}

// DeleteMultiple deletes several branches and returns the first error.
// A failure does not stop the remaining deletions.
func (d *Delete) DeleteMultiple(ctx context.Context, names []string, config *DeleteConfig) error {
	var firstError error

	for _, name := range names {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := d.Delete(ctx, name, config); err != nil && firstError == nil {
			firstError = err
		}
	}

	return firstError
}

// IsMerged reports whether the branch tip is reachable from HEAD. Nothing
// is merged into an unborn HEAD.
func (d *Delete) IsMerged(ctx context.Context, name string) (bool, error) {
	tip, err := d.refService.Tip(name)
	if err != nil {
		return false, err
	}

	head, err := d.refService.refs.Head()
	if err != nil {
		return false, err
	}
	if head.IsUnborn() {
		return false, nil
	}

	return d.refService.walker.IsAncestor(ctx, tip, head.Commit)
}
