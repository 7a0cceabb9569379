package refs

import (
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Ref is a stored reference: either Direct (Target set) or Symbolic
// (Symbolic set to another reference's full name). Only HEAD is ever
// symbolic.
type Ref struct {
	Name     string
	Target   objects.ObjectHash
	Symbolic string
}

// IsSymbolic reports whether the ref points at another ref by name.
func (r Ref) IsSymbolic() bool {
	return r.Symbolic != ""
}

func (r Ref) String() string {
	if r.IsSymbolic() {
		return fmt.Sprintf("%s -> %s", r.Name, r.Symbolic)
	}
	return fmt.Sprintf("%s -> %s", r.Name, r.Target.Short())
}

// HeadState is the current-position pointer:
// Attached(Branch) or Detached(Commit).
//
// When attached, Commit is the branch tip, or empty if the branch is
// unborn.
type HeadState struct {
	Branch string
	Commit objects.ObjectHash
}

// IsDetached reports whether HEAD holds a digest rather than a branch.
func (h HeadState) IsDetached() bool {
	return h.Branch == ""
}

// IsUnborn reports whether HEAD is attached to a branch with no commits.
func (h HeadState) IsUnborn() bool {
	return h.Branch != "" && h.Commit == ""
}

func (h HeadState) String() string {
	switch {
	case h.IsDetached():
		return fmt.Sprintf("Detached(%s)", h.Commit.Short())
	case h.IsUnborn():
		return fmt.Sprintf("Attached(%s, unborn)", h.Branch)
	default:
		return fmt.Sprintf("Attached(%s)", h.Branch)
	}
}
