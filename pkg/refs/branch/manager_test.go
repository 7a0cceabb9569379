package branch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/revision"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

type testRepo struct {
	objects store.ObjectStore
	refs    *refs.Store
	mgr     *Manager
	tree    objects.ObjectHash
	clock   int64
}

func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()
	repoPath, err := scpath.NewRepositoryPath(t.TempDir())
	require.NoError(t, err)

	s, err := store.NewFileObjectStore(repoPath, store.WithLogger(logger.Discard()))
	require.NoError(t, err)

	refStore := refs.NewStore(repoPath.SourcePath(), refs.WithLogger(logger.Discard()))
	require.NoError(t, refStore.Init(DefaultBranch))

	emptyTree, err := tree.NewTree(nil)
	require.NoError(t, err)
	treeHash, err := store.PutObject(s, emptyTree)
	require.NoError(t, err)

	resolver := revision.NewResolver(s, refStore, logger.Discard())
	return &testRepo{
		objects: s,
		refs:    refStore,
		mgr: NewManager(refStore, s, resolver,
			WithIdentity("Tagger", "tagger@example.com"),
			WithClock(func() time.Time { return time.Unix(1800000000, 0).UTC() }),
			WithLogger(logger.Discard())),
		tree:  treeHash,
		clock: 1700000000,
	}
}

func (r *testRepo) commit(t *testing.T, msg string, parents ...objects.ObjectHash) objects.ObjectHash {
	t.Helper()
	r.clock += 60
	who, err := commit.NewPerson("Dev", "dev@example.com", time.Unix(r.clock, 0).UTC())
	require.NoError(t, err)

	c, err := commit.NewBuilder().
		Tree(r.tree).
		Parents(parents...).
		Author(who).
		Committer(who).
		Message(msg).
		Build()
	require.NoError(t, err)

	hash, err := store.PutObject(r.objects, c)
	require.NoError(t, err)
	return hash
}

// advance commits on top of HEAD and moves it.
func (r *testRepo) advance(t *testing.T, msg string) objects.ObjectHash {
	t.Helper()
	head, err := r.refs.Head()
	require.NoError(t, err)

	var parents []objects.ObjectHash
	if head.Commit != "" {
		parents = append(parents, head.Commit)
	}
	hash := r.commit(t, msg, parents...)
	require.NoError(t, r.refs.Update(refs.Head, hash, head.Commit, "commit: "+msg))
	return hash
}

func TestCreateBranch(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	c1 := r.advance(t, "one")
	c2 := r.advance(t, "two")

	info, err := r.mgr.CreateBranch(ctx, "feature/test")
	require.NoError(t, err)
	assert.Equal(t, "feature/test", info.Name)
	assert.Equal(t, c2, info.Hash)
	assert.False(t, info.IsCurrentBranch)
	assert.Equal(t, 2, info.CommitCount)
	assert.Equal(t, "two", info.LastCommitSubject)

	info, err = r.mgr.CreateBranch(ctx, "old", WithStartPoint("main~1"))
	require.NoError(t, err)
	assert.Equal(t, c1, info.Hash)

	log, err := r.refs.LogOf("refs/heads/old")
	require.NoError(t, err)
	entry, ok := log.At(0)
	require.True(t, ok)
	assert.Equal(t, "branch: Created from main~1", entry.Reason)

	exists, err := r.mgr.BranchExists("feature/test")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateBranchAlreadyExists(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	c1 := r.advance(t, "one")
	c2 := r.advance(t, "two")

	_, err := r.mgr.CreateBranch(ctx, "existing", WithStartPoint(c1.String()))
	require.NoError(t, err)

	_, err = r.mgr.CreateBranch(ctx, "existing")
	require.Error(t, err)
	var exists *AlreadyExistsError
	require.True(t, errors.As(err, &exists))
	assert.Equal(t, "existing", exists.Name)

	info, err := r.mgr.CreateBranch(ctx, "existing", WithForceCreate())
	require.NoError(t, err)
	assert.Equal(t, c2, info.Hash)
}

func TestCreateBranchRejectsBadInput(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	_, err := r.mgr.CreateBranch(ctx, "on-unborn")
	require.Error(t, err)
	assert.True(t, revision.IsNoSuchRevision(err))

	r.advance(t, "one")
	for _, name := range []string{"", "-dash", "HEAD", "a..b", "bad name", "x.lock", "trailing/"} {
		_, err := r.mgr.CreateBranch(ctx, name)
		var invalid *InvalidNameError
		assert.True(t, errors.As(err, &invalid), "%q", name)
	}

	_, err = r.mgr.CreateBranch(ctx, "from-nowhere", WithStartPoint("nope"))
	assert.True(t, revision.IsNoSuchRevision(err))
}

func TestCreateBranchWithSwitch(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	r.advance(t, "one")

	info, err := r.mgr.CreateBranch(ctx, "topic", WithSwitch())
	require.NoError(t, err)
	assert.True(t, info.IsCurrentBranch)

	current, err := r.mgr.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "topic", current)
}

func TestListBranches(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	r.advance(t, "one")

	for _, name := range []string{"feature/a", "bugfix/c", "feature/b"} {
		_, err := r.mgr.CreateBranch(ctx, name)
		require.NoError(t, err)
	}

	branches, err := r.mgr.ListBranches(ctx)
	require.NoError(t, err)

	var names []string
	var current []string
	for _, b := range branches {
		names = append(names, b.Name)
		if b.IsCurrentBranch {
			current = append(current, b.Name)
		}
		assert.Equal(t, "one", b.LastCommitSubject)
	}
	assert.Equal(t, []string{"bugfix/c", "feature/a", "feature/b", "main"}, names)
	assert.Equal(t, []string{"main"}, current)
}

func TestDeleteBranch(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	base := r.advance(t, "one")

	_, err := r.mgr.CreateBranch(ctx, "merged")
	require.NoError(t, err)
	require.NoError(t, r.mgr.DeleteBranch(ctx, "merged"))

	exists, err := r.mgr.BranchExists("merged")
	require.NoError(t, err)
	assert.False(t, exists)

	// The movement log outlives the branch.
	log, err := r.refs.LogOf("refs/heads/merged")
	require.NoError(t, err)
	assert.Equal(t, 2, log.Len())

	side := r.commit(t, "side", base)
	_, err = r.mgr.CreateBranch(ctx, "unmerged", WithStartPoint(side.String()))
	require.NoError(t, err)

	err = r.mgr.DeleteBranch(ctx, "unmerged")
	assert.True(t, IsNotMerged(err))
	require.NoError(t, r.mgr.DeleteBranch(ctx, "unmerged", WithForceDelete()))

	err = r.mgr.DeleteBranch(ctx, "main", WithForceDelete())
	var current *IsCurrentError
	assert.True(t, errors.As(err, &current))

	err = r.mgr.DeleteBranch(ctx, "ghost")
	assert.True(t, IsNotFound(err))
}

func TestDeleteMultipleContinuesPastFailures(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	r.advance(t, "one")

	for _, name := range []string{"a", "b"} {
		_, err := r.mgr.CreateBranch(ctx, name)
		require.NoError(t, err)
	}

	err := NewDelete(r.mgr.branchRefSvc).DeleteMultiple(ctx, []string{"a", "ghost", "b"}, &DeleteConfig{})
	assert.True(t, IsNotFound(err))

	for _, name := range []string{"a", "b"} {
		exists, err := r.mgr.BranchExists(name)
		require.NoError(t, err)
		assert.False(t, exists, name)
	}
}

func TestRenameBranch(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	tip := r.advance(t, "one")

	require.NoError(t, r.mgr.RenameBranch(ctx, "main", "trunk"))

	current, err := r.mgr.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "trunk", current)

	head, err := r.refs.Head()
	require.NoError(t, err)
	assert.Equal(t, tip, head.Commit)

	exists, err := r.mgr.BranchExists("main")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = r.mgr.CreateBranch(ctx, "other")
	require.NoError(t, err)
	err = r.mgr.RenameBranch(ctx, "other", "trunk")
	assert.True(t, IsAlreadyExists(err))
	require.NoError(t, r.mgr.RenameBranch(ctx, "other", "trunk", WithForceRename()))

	err = r.mgr.RenameBranch(ctx, "trunk", "trunk")
	var invalid *InvalidNameError
	assert.True(t, errors.As(err, &invalid))
}

func TestSwitchAndDetach(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	c1 := r.advance(t, "one")
	r.advance(t, "two")

	_, err := r.mgr.CreateBranch(ctx, "feature", WithStartPoint("main~1"))
	require.NoError(t, err)

	require.NoError(t, r.mgr.Switch(ctx, "feature"))
	head, err := r.refs.Head()
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/feature", head.Branch)
	assert.Equal(t, c1, head.Commit)

	assert.True(t, IsNotFound(r.mgr.Switch(ctx, "ghost")))

	hash, err := r.mgr.Detach(ctx, "main")
	require.NoError(t, err)
	head, err = r.refs.Head()
	require.NoError(t, err)
	assert.True(t, head.IsDetached())
	assert.Equal(t, hash, head.Commit)

	current, err := r.mgr.CurrentBranch()
	require.NoError(t, err)
	assert.Empty(t, current)

	err = NewRename(r.mgr.branchRefSvc).RenameCurrent(ctx, "x", &RenameConfig{})
	var detached *DetachedHeadError
	assert.True(t, errors.As(err, &detached))
}

func TestCompareBranches(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	base := r.advance(t, "base")
	r.advance(t, "main one")
	r.advance(t, "main two")

	side := r.commit(t, "side", base)
	_, err := r.mgr.CreateBranch(ctx, "side", WithStartPoint(side.String()))
	require.NoError(t, err)

	ahead, behind, err := r.mgr.CompareBranches(ctx, "side", "main")
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 2, behind)

	ahead, behind, err = r.mgr.CompareBranches(ctx, "main", "main")
	require.NoError(t, err)
	assert.Zero(t, ahead)
	assert.Zero(t, behind)
}

func TestTags(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()
	c1 := r.advance(t, "one")
	c2 := r.advance(t, "two")

	light, err := r.mgr.CreateTag(ctx, "v1", WithTarget("main~1"))
	require.NoError(t, err)
	assert.False(t, light.Annotated)
	assert.Equal(t, c1, light.Hash)

	annotated, err := r.mgr.CreateTag(ctx, "v2", WithMessage("second release"))
	require.NoError(t, err)
	assert.True(t, annotated.Annotated)
	assert.Equal(t, c2, annotated.Target)
	assert.NotEqual(t, c2, annotated.Hash)

	kind, err := r.objects.TypeOf(annotated.Hash)
	require.NoError(t, err)
	assert.Equal(t, objects.TagType, kind)

	_, err = r.mgr.CreateTag(ctx, "v1")
	assert.True(t, IsAlreadyExists(err))
	moved, err := r.mgr.CreateTag(ctx, "v1", WithForceTag())
	require.NoError(t, err)
	assert.Equal(t, c2, moved.Hash)

	tags, err := r.mgr.ListTags()
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "v1", tags[0].Name)
	assert.Equal(t, "v2", tags[1].Name)
	assert.True(t, tags[1].Annotated)
	assert.Equal(t, c2, tags[1].Target)
	assert.Equal(t, "second release\n", tags[1].Message)

	require.NoError(t, r.mgr.DeleteTag("v1"))
	assert.True(t, IsNotFound(r.mgr.DeleteTag("v1")))
}
