package commitmanager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/graph"
	"github.com/utkarsh5026/sourcevault/pkg/index"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

const (
	defaultUserName  = "unknown"
	defaultUserEmail = "unknown@localhost"
)

// Manager turns the index into commits.
//
// The commit creation process follows these steps:
//  1. Take a stage-0 snapshot of the index (fails on unresolved conflicts)
//  2. Build tree objects from the snapshot
//  3. Read HEAD to find the parent commit
//  4. Write the commit object
//  5. Compare-and-swap the branch HEAD points to, or HEAD itself when detached
//
// The ref update in step 5 only succeeds if HEAD has not moved since step 3.
type Manager struct {
	objects     store.ObjectStore
	index       *index.Manager
	refs        *refs.Store
	walker      *graph.Walker
	treeBuilder *TreeBuilder
	userName    string
	userEmail   string
	now         func() time.Time
	log         *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithIdentity sets the default author and committer.
func WithIdentity(name, email string) Option {
	return func(m *Manager) {
		m.userName = name
		m.userEmail = email
	}
}

// WithClock replaces time.Now for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = logger.Component(l, "commitmanager") }
}

// NewManager creates a new commit manager
func NewManager(objectStore store.ObjectStore, idx *index.Manager, refStore *refs.Store, opts ...Option) *Manager {
	m := &Manager{
		objects:     objectStore,
		index:       idx,
		refs:        refStore,
		walker:      graph.NewWalker(objectStore),
		treeBuilder: NewTreeBuilder(objectStore),
		userName:    defaultUserName,
		userEmail:   defaultUserEmail,
		now:         time.Now,
		log:         logger.Component(nil, "commitmanager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WriteTree builds and stores the tree for the current index without
// committing it.
func (m *Manager) WriteTree(ctx context.Context) (objects.ObjectHash, error) {
	snapshot, err := m.index.Snapshot()
	if err != nil {
		return "", err
	}
	return m.treeBuilder.Build(ctx, snapshot)
}

// CreateCommit records the index as a new commit on top of HEAD.
//
// A commit without parents is only made while HEAD's branch is unborn.
// On a detached HEAD the commit moves HEAD alone and a warning is logged,
// because nothing but HEAD and its log will reach it.
func (m *Manager) CreateCommit(ctx context.Context, options CommitOptions) (*Result, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	treeHash, err := m.WriteTree(ctx)
	if err != nil {
		return nil, NewCommitError("build tree", err, "")
	}

	head, err := m.refs.Head()
	if err != nil {
		return nil, NewCommitError("read HEAD", err, "")
	}

	parents, err := m.parentsFor(head, options)
	if err != nil {
		return nil, err
	}

	if !options.AllowEmpty && len(parents) == 1 {
		parent, err := m.walker.Commit(parents[0])
		if err == nil && parent.Tree == treeHash {
			return nil, NewCommitError("validate", ErrNoTreeChanges, "")
		}
	}

	commitObj, err := m.buildCommit(options, treeHash, parents)
	if err != nil {
		return nil, NewCommitError("build commit", err, "")
	}

	hash, err := store.PutObject(m.objects, commitObj)
	if err != nil {
		return nil, NewCommitError("write commit", err, "")
	}

	if err := m.refs.Update(refs.Head, hash, head.Commit, reflogReason(commitObj, options.Amend)); err != nil {
		return nil, NewCommitError("update ref", err, hash.Short().String())
	}

	if head.IsDetached() {
		m.log.Warn("commit on detached HEAD is reachable only from HEAD", "commit", hash.Short())
	} else {
		m.log.Debug("created commit", "commit", hash.Short(), "branch", head.Branch)
	}

	return &Result{Hash: hash, Commit: commitObj, Branch: head.Branch}, nil
}

// parentsFor computes and verifies the parent list. Every parent must
// already be a stored commit.
func (m *Manager) parentsFor(head refs.HeadState, options CommitOptions) ([]objects.ObjectHash, error) {
	var parents []objects.ObjectHash

	switch {
	case options.Amend:
		if head.Commit == "" {
			return nil, NewCommitError("amend", refs.ErrUnbornRef, head.Branch)
		}
		current, err := m.walker.Commit(head.Commit)
		if err != nil {
			return nil, NewCommitError("amend", err, head.Commit.Short().String())
		}
		parents = append(parents, current.Parents...)
	case head.Commit != "":
		parents = append(parents, head.Commit)
	}
	parents = append(parents, options.MergeParents...)

	for _, p := range parents {
		kind, err := m.objects.TypeOf(p)
		if err != nil || kind != objects.CommitType {
			return nil, NewCommitError("verify parents", newMissingParent(p.String()), "")
		}
	}
	return parents, nil
}

func (m *Manager) buildCommit(options CommitOptions, treeHash objects.ObjectHash, parents []objects.ObjectHash) (*commit.Commit, error) {
	author := options.Author
	if author == nil {
		var err error
		author, err = commit.NewPerson(m.userName, m.userEmail, m.now())
		if err != nil {
			return nil, fmt.Errorf("default identity: %w", err)
		}
	}

	committer := options.Committer
	if committer == nil {
		committer = author
	}

	return commit.NewBuilder().
		Tree(treeHash).
		Parents(parents...).
		Author(author).
		Committer(committer).
		Message(options.Message).
		Build()
}

// GetCommit retrieves information about a specific commit
func (m *Manager) GetCommit(hash objects.ObjectHash) (*commit.Commit, error) {
	c, err := m.walker.Commit(hash)
	if err != nil {
		return nil, NewCommitError("read commit", err, hash.Short().String())
	}
	return c, nil
}

// GetHistory lists commits reachable from start, newest first. An empty
// start means HEAD; an unborn HEAD has no history.
func (m *Manager) GetHistory(ctx context.Context, start objects.ObjectHash, limit int) ([]graph.LogEntry, error) {
	if start == "" {
		head, err := m.refs.Head()
		if err != nil {
			return nil, err
		}
		if head.Commit == "" {
			return nil, nil
		}
		start = head.Commit
	}
	return m.walker.History(ctx, start, limit)
}

func reflogReason(c *commit.Commit, amend bool) string {
	switch {
	case amend:
		return "commit (amend): " + c.Subject()
	case c.IsInitialCommit():
		return "commit (initial): " + c.Subject()
	case c.IsMergeCommit():
		return "commit (merge): " + c.Subject()
	default:
		return "commit: " + c.Subject()
	}
}
