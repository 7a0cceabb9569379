package branch

import (
	"context"
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/refs"
)

// Creator handles branch creation operations
type Creator struct {
	refService  *RefService
	infoService *InfoService
}

// NewCreator creates a new branch creator service
func NewCreator(refSvc *RefService, infoSvc *InfoService) *Creator {
	return &Creator{
		refService:  refSvc,
		infoService: infoSvc,
	}
}

// Create creates a new branch with the given configuration
func (c *Creator) Create(ctx context.Context, name string, config *CreateConfig) (*BranchInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	full, err := branchRef(name)
	if err != nil {
		return nil, err
	}

	startHash, err := c.refService.ResolveStartPoint(ctx, config.StartPoint)
	if err != nil {
		return nil, err
	}

	startLabel := config.StartPoint
	if startLabel == "" {
		startLabel = refs.Head
	}
	reason := fmt.Sprintf("branch: Created from %s", startLabel)

	store := c.refService.refs
	if !config.Force {
		if err := store.Create(full, startHash, reason); err != nil {
			if refs.IsRefAlreadyExists(err) {
				return nil, NewAlreadyExistsError(name)
			}
			return nil, fmt.Errorf("create branch: %w", err)
		}
	} else {
		current, err := store.Read(full)
		switch {
		case err == nil:
			err = store.Update(full, startHash, current.Target, "branch: Reset to "+startLabel)
		case refs.IsNoSuchRef(err):
			err = store.Create(full, startHash, reason)
		}
		if err != nil {
			return nil, fmt.Errorf("update branch: %w", err)
		}
	}

	info, err := c.infoService.GetInfo(ctx, name)
	if err != nil {
		return &BranchInfo{Name: name, Hash: startHash}, nil
	}
	return info, nil
}
