package branch

import (
	"context"
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/refs"
)

// Rename handles branch renaming operations
type Rename struct {
	refService *RefService
}

// NewRename creates a new branch rename service
func NewRename(refSvc *RefService) *Rename {
	return &Rename{
		refService: refSvc,
	}
}

// Rename moves the branch oldName to newName. When HEAD is attached to
// oldName it follows the branch.
//
// The new ref is written before the old one is removed, so an interruption
// leaves both names rather than neither.
func (r *Rename) Rename(ctx context.Context, oldName, newName string, config *RenameConfig) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	oldFull, newFull, err := r.validateNames(oldName, newName)
	if err != nil {
		return err
	}

	tip, err := r.refService.Tip(oldName)
	if err != nil {
		return err
	}

	store := r.refService.refs
	reason := fmt.Sprintf("branch: renamed %s to %s", oldFull, newFull)

	existing, err := store.Read(newFull)
	switch {
	case err == nil && !config.Force:
		return NewAlreadyExistsError(newName)
	case err == nil:
		err = store.Update(newFull, tip, existing.Target, reason)
	case refs.IsNoSuchRef(err):
		err = store.Create(newFull, tip, reason)
	}
	if err != nil {
		return fmt.Errorf("rename branch: %w", err)
	}

	current, err := r.refService.Current()
	if err != nil {
		return err
	}
	if current == oldName {
		if err := store.MoveSymbolic(newFull, reason); err != nil {
			return fmt.Errorf("move HEAD: %w", err)
		}
	}

	if err := store.Delete(oldFull, reason); err != nil {
		return fmt.Errorf("remove old branch: %w", err)
	}
	return nil
}

func (r *Rename) validateNames(oldName, newName string) (string, string, error) {
	oldFull, err := branchRef(oldName)
	if err != nil {
		return "", "", err
	}
	newFull, err := branchRef(newName)
	if err != nil {
		return "", "", err
	}
	if oldName == newName {
		return "", "", NewInvalidNameError(newName, "old and new branch names are the same")
	}
	return oldFull, newFull, nil
}

// RenameCurrent renames the branch HEAD is attached to
func (r *Rename) RenameCurrent(ctx context.Context, newName string, config *RenameConfig) error {
	current, err := r.refService.Current()
	if err != nil {
		return err
	}
	if current == "" {
		return NewDetachedHeadError("")
	}

	return r.Rename(ctx, current, newName, config)
}
