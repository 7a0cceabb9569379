// Package branch implements branch and tag operations on top of the
// reference store: create from a start point, delete with a merge check,
// rename, list, switch HEAD and manage lightweight or annotated tags.
package branch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/graph"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/revision"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

const (
	// DefaultBranch is the default branch name for new repositories
	DefaultBranch = "main"
)

// Manager handles branch operations including creation, deletion,
// renaming, switching and tagging.
//
// It coordinates between:
//   - the reference store for every ref and HEAD move
//   - the revision resolver for start points and tag targets
//   - the commit graph walker for merge checks and counts
//
// Thread Safety:
// Manager holds no mutable state of its own; concurrent calls are
// serialized by the reference store's per-ref locks.
type Manager struct {
	objects       store.ObjectStore
	branchRefSvc  *RefService
	branchInfoSvc *InfoService
	userName      string
	userEmail     string
	now           func() time.Time
	log           *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithIdentity sets the tagger used for annotated tags.
func WithIdentity(name, email string) Option {
	return func(m *Manager) {
		m.userName = name
		m.userEmail = email
	}
}

// WithClock replaces time.Now for tag timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = logger.Component(l, "branch") }
}

// NewManager creates a new branch manager.
//
// Example:
//
//	mgr := branch.NewManager(refStore, objectStore, resolver)
//	info, err := mgr.CreateBranch(ctx, "feature", branch.WithStartPoint("main~1"))
func NewManager(refStore *refs.Store, objectStore store.ObjectStore, resolver *revision.Resolver, opts ...Option) *Manager {
	refSvc := NewRefService(refStore, resolver, graph.NewWalker(objectStore))
	m := &Manager{
		objects:       objectStore,
		branchRefSvc:  refSvc,
		branchInfoSvc: NewInfoService(refSvc),
		userName:      "unknown",
		userEmail:     "unknown@localhost",
		now:           time.Now,
		log:           logger.Component(nil, "branch"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateBranch creates a new branch with the given options.
//
// Example:
//
//	info, err := mgr.CreateBranch(ctx, "hotfix", branch.WithStartPoint("v1.0"), branch.WithSwitch())
func (m *Manager) CreateBranch(ctx context.Context, name string, opts ...CreateOption) (BranchInfo, error) {
	config := &CreateConfig{}
	for _, opt := range opts {
		opt(config)
	}

	creator := NewCreator(m.branchRefSvc, m.branchInfoSvc)
	info, err := creator.Create(ctx, name, config)
	if err != nil {
		return BranchInfo{}, fmt.Errorf("create branch: %w", err)
	}
	m.log.Debug("created branch", "branch", name, "commit", info.Hash.Short())

	if config.Switch {
		if err := m.Switch(ctx, name); err != nil {
			return *info, err
		}
		info.IsCurrentBranch = true
	}
	return *info, nil
}

// Switch attaches HEAD to an existing branch.
func (m *Manager) Switch(ctx context.Context, name string) error {
	if err := NewCheckout(m.branchRefSvc).Switch(ctx, name); err != nil {
		return err
	}
	m.log.Debug("switched branch", "branch", name)
	return nil
}

// Detach points HEAD directly at the commit rev names.
func (m *Manager) Detach(ctx context.Context, rev string) (objects.ObjectHash, error) {
	hash, err := NewCheckout(m.branchRefSvc).Detach(ctx, rev)
	if err != nil {
		return "", err
	}
	m.log.Debug("detached HEAD", "commit", hash.Short())
	return hash, nil
}

// DeleteBranch removes a branch reference. Branches not reachable from
// HEAD need WithForceDelete.
//
// Example:
//
//	err := mgr.DeleteBranch(ctx, "old-feature")
//	err := mgr.DeleteBranch(ctx, "experimental", branch.WithForceDelete())
func (m *Manager) DeleteBranch(ctx context.Context, name string, opts ...DeleteOption) error {
	config := &DeleteConfig{}
	for _, opt := range opts {
		opt(config)
	}

	if err := NewDelete(m.branchRefSvc).Delete(ctx, name, config); err != nil {
		return fmt.Errorf("delete branch %s: %w", name, err)
	}
	m.log.Debug("deleted branch", "branch", name)
	return nil
}

// RenameBranch renames a branch from oldName to newName.
func (m *Manager) RenameBranch(ctx context.Context, oldName, newName string, opts ...RenameOption) error {
	config := &RenameConfig{}
	for _, opt := range opts {
		opt(config)
	}

	if err := NewRename(m.branchRefSvc).Rename(ctx, oldName, newName, config); err != nil {
		return fmt.Errorf("rename branch %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// GetBranch retrieves detailed information about a specific branch.
func (m *Manager) GetBranch(ctx context.Context, name string) (BranchInfo, error) {
	info, err := m.branchInfoSvc.GetInfo(ctx, name)
	if err != nil {
		return BranchInfo{}, fmt.Errorf("get branch %s: %w", name, err)
	}
	return *info, nil
}

// ListBranches returns every branch sorted by name.
func (m *Manager) ListBranches(ctx context.Context) ([]BranchInfo, error) {
	return m.branchInfoSvc.ListAll(ctx)
}

// CompareBranches reports how many commits branch has that base lacks and
// how many base has that branch lacks.
func (m *Manager) CompareBranches(ctx context.Context, branch, base string) (ahead, behind int, err error) {
	return m.branchInfoSvc.CompareWithBase(ctx, branch, base)
}

// CurrentBranch returns the name of the current branch, or "" if detached.
func (m *Manager) CurrentBranch() (string, error) {
	return m.branchRefSvc.Current()
}

// BranchExists checks if a branch exists.
func (m *Manager) BranchExists(name string) (bool, error) {
	return m.branchRefSvc.Exists(name)
}

// CreateTag tags a revision. WithMessage makes the tag annotated.
//
// Example:
//
//	info, err := mgr.CreateTag(ctx, "v1.0", branch.WithTarget("main"), branch.WithMessage("release"))
func (m *Manager) CreateTag(ctx context.Context, name string, opts ...TagOption) (TagInfo, error) {
	config := &TagConfig{}
	for _, opt := range opts {
		opt(config)
	}

	info, err := m.tagger().Create(ctx, name, config)
	if err != nil {
		return TagInfo{}, fmt.Errorf("create tag %s: %w", name, err)
	}
	m.log.Debug("created tag", "tag", name, "annotated", info.Annotated, "target", info.Target.Short())
	return *info, nil
}

// DeleteTag removes a tag reference. An annotated tag object stays in the
// store until collected.
func (m *Manager) DeleteTag(name string) error {
	return m.tagger().Delete(name)
}

// ListTags returns every tag sorted by name.
func (m *Manager) ListTags() ([]TagInfo, error) {
	return m.tagger().List()
}

func (m *Manager) tagger() *Tagger {
	return NewTagger(m.branchRefSvc, m.objects, defaultIdentity(m.userName, m.userEmail, m.now))
}
