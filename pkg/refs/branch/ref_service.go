package branch

import (
	"context"
	"fmt"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/graph"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/revision"
)

// RefService maps short branch and tag names onto the reference store and
// answers the questions every branch operation asks first.
type RefService struct {
	refs     *refs.Store
	resolver *revision.Resolver
	walker   *graph.Walker
}

// NewRefService creates a branch reference service
func NewRefService(refStore *refs.Store, resolver *revision.Resolver, walker *graph.Walker) *RefService {
	return &RefService{refs: refStore, resolver: resolver, walker: walker}
}

// ValidateBranchName checks that name forms a valid refs/heads/ reference.
func ValidateBranchName(name string) error {
	_, err := branchRef(name)
	return err
}

func branchRef(name string) (string, error) {
	if strings.HasPrefix(name, "-") {
		return "", NewInvalidNameError(name, "cannot start with '-'")
	}
	if name == refs.Head {
		return "", NewInvalidNameError(name, "HEAD is reserved")
	}
	full, err := refs.BranchRef(name)
	if err != nil {
		return "", NewInvalidNameError(name, err.Error())
	}
	return full, nil
}

func tagRef(name string) (string, error) {
	if strings.HasPrefix(name, "-") {
		return "", NewInvalidNameError(name, "cannot start with '-'")
	}
	full, err := refs.TagRef(name)
	if err != nil {
		return "", NewInvalidNameError(name, err.Error())
	}
	return full, nil
}

// Current returns the short name of the branch HEAD is attached to, or ""
// when HEAD is detached.
func (rs *RefService) Current() (string, error) {
	head, err := rs.refs.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	if head.IsDetached() {
		return "", nil
	}
	return refs.ShortName(head.Branch), nil
}

// Exists reports whether the branch has a ref file.
func (rs *RefService) Exists(name string) (bool, error) {
	full, err := branchRef(name)
	if err != nil {
		return false, err
	}
	return rs.refs.Exists(full), nil
}

// Tip returns the commit the branch points to.
func (rs *RefService) Tip(name string) (objects.ObjectHash, error) {
	full, err := branchRef(name)
	if err != nil {
		return "", err
	}
	ref, err := rs.refs.Read(full)
	if err != nil {
		if refs.IsNoSuchRef(err) {
			return "", NewNotFoundError(name)
		}
		return "", err
	}
	return ref.Target, nil
}

// ResolveStartPoint turns a revision into a commit. An empty revision
// means HEAD.
func (rs *RefService) ResolveStartPoint(ctx context.Context, rev string) (objects.ObjectHash, error) {
	if rev == "" {
		rev = refs.Head
	}
	hash, err := rs.resolver.ResolveCommit(ctx, rev)
	if err != nil {
		return "", fmt.Errorf("resolve '%s': %w", rev, err)
	}
	return hash, nil
}
