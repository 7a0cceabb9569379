package branch

import (
	"context"
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Checkout moves HEAD between branches and commits. It never touches
// files: there is no working tree to update.
type Checkout struct {
	refService *RefService
}

// NewCheckout creates a new checkout service
func NewCheckout(refSvc *RefService) *Checkout {
	return &Checkout{refService: refSvc}
}

// Switch attaches HEAD to an existing branch.
func (c *Checkout) Switch(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	full, err := branchRef(name)
	if err != nil {
		return err
	}
	exists, err := c.refService.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return NewNotFoundError(name)
	}

	if err := c.refService.refs.MoveSymbolic(full, ""); err != nil {
		return fmt.Errorf("switch to %s: %w", name, err)
	}
	return nil
}

// Detach points HEAD at the commit rev names.
func (c *Checkout) Detach(ctx context.Context, rev string) (objects.ObjectHash, error) {
	hash, err := c.refService.ResolveStartPoint(ctx, rev)
	if err != nil {
		return "", err
	}
	if err := c.refService.refs.Detach(hash, ""); err != nil {
		return "", fmt.Errorf("detach HEAD at %s: %w", hash.Short(), err)
	}
	return hash, nil
}
