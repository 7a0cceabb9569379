package commitmanager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scerr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/index"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

type testRepo struct {
	objects store.ObjectStore
	index   *index.Manager
	refs    *refs.Store
	commits *Manager
}

type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()
	repoPath, err := scpath.NewRepositoryPath(t.TempDir())
	require.NoError(t, err)

	s, err := store.NewFileObjectStore(repoPath, store.WithLogger(logger.Discard()))
	require.NoError(t, err)

	clock := &tickingClock{now: time.Unix(1700000000, 0).UTC()}
	refStore := refs.NewStore(repoPath.SourcePath(), refs.WithClock(clock.Now), refs.WithLogger(logger.Discard()))
	require.NoError(t, refStore.Init("main"))

	idx := index.NewManager(repoPath, s, index.WithLogger(logger.Discard()))
	return &testRepo{
		objects: s,
		index:   idx,
		refs:    refStore,
		commits: NewManager(s, idx, refStore,
			WithIdentity("Test User", "test@example.com"),
			WithClock(clock.Now),
			WithLogger(logger.Discard())),
	}
}

func (r *testRepo) stage(t *testing.T, path, content string) {
	t.Helper()
	_, err := r.index.Stage(path, objects.FileModeRegular, []byte(content))
	require.NoError(t, err)
}

func TestBuildEmptyTree(t *testing.T) {
	r := setupTestRepo(t)

	hash, err := r.commits.WriteTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, objects.ObjectHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"), hash)
	assert.True(t, r.objects.Exists(hash))
}

func TestBuildNestedTree(t *testing.T) {
	r := setupTestRepo(t)
	r.stage(t, "README.md", "readme")
	r.stage(t, "src/main.go", "package main")
	r.stage(t, "src/utils/helper.go", "package utils")

	rootHash, err := r.commits.WriteTree(context.Background())
	require.NoError(t, err)

	root := readTree(t, r.objects, rootHash)
	require.Len(t, root.Entries(), 2)

	src, ok := root.Lookup("src")
	require.True(t, ok)
	assert.True(t, src.IsDirectory())

	srcTree := readTree(t, r.objects, src.Hash)
	utils, ok := srcTree.Lookup("utils")
	require.True(t, ok)

	utilsTree := readTree(t, r.objects, utils.Hash)
	helper, ok := utilsTree.Lookup("helper.go")
	require.True(t, ok)
	assert.Equal(t, objects.SHA1.HashObject(objects.BlobType, []byte("package utils")), helper.Hash)
}

func TestTreeIsIndependentOfInsertionOrder(t *testing.T) {
	paths := []string{"a.txt", "dir/b.txt", "dir/sub/c.txt", "e/f/g.txt", "h/i.txt", "j/k.txt", "l.txt"}

	build := func(order []int) objects.ObjectHash {
		r := setupTestRepo(t)
		var entries []*index.Entry
		for _, i := range order {
			hash, err := r.objects.Put(objects.BlobType, []byte(paths[i]))
			require.NoError(t, err)
			entries = append(entries, index.NewEntry(paths[i], objects.FileModeRegular, hash))
		}
		hash, err := NewTreeBuilder(r.objects).Build(context.Background(), entries)
		require.NoError(t, err)
		return hash
	}

	forward := build([]int{0, 1, 2, 3, 4, 5, 6})
	reverse := build([]int{6, 5, 4, 3, 2, 1, 0})
	shuffled := build([]int{3, 0, 6, 2, 5, 1, 4})

	assert.Equal(t, forward, reverse)
	assert.Equal(t, forward, shuffled)
}

func TestBuildRejectsFileDirectoryCollision(t *testing.T) {
	r := setupTestRepo(t)
	hash, err := r.objects.Put(objects.BlobType, []byte("x"))
	require.NoError(t, err)

	entries := []*index.Entry{
		index.NewEntry("a", objects.FileModeRegular, hash),
		index.NewEntry("a/b", objects.FileModeRegular, hash),
	}
	_, err = NewTreeBuilder(r.objects).Build(context.Background(), entries)
	require.Error(t, err)
	assert.True(t, scerr.IsCode(err, scerr.CodeInvalidInput))
}

func TestCreateInitialCommit(t *testing.T) {
	r := setupTestRepo(t)
	r.stage(t, "a.txt", "hello")

	res, err := r.commits.CreateCommit(context.Background(), CommitOptions{Message: "first"})
	require.NoError(t, err)
	assert.Empty(t, res.Commit.Parents)
	assert.Equal(t, "refs/heads/main", res.Branch)

	head, err := r.refs.Head()
	require.NoError(t, err)
	assert.Equal(t, res.Hash, head.Commit)
	assert.Equal(t, "refs/heads/main", head.Branch)

	log, err := r.refs.LogOf("refs/heads/main")
	require.NoError(t, err)
	entry, ok := log.At(0)
	require.True(t, ok)
	assert.Equal(t, "commit (initial): first", entry.Reason)

	// The index is not cleared by committing.
	entries, err := r.index.Snapshot()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreateCommitChainsParents(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	r.stage(t, "a.txt", "one")
	first, err := r.commits.CreateCommit(ctx, CommitOptions{Message: "one"})
	require.NoError(t, err)

	r.stage(t, "a.txt", "two")
	second, err := r.commits.CreateCommit(ctx, CommitOptions{Message: "two"})
	require.NoError(t, err)
	assert.Equal(t, []objects.ObjectHash{first.Hash}, second.Commit.Parents)

	history, err := r.commits.GetHistory(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.Hash, history[0].Hash)
	assert.Equal(t, first.Hash, history[1].Hash)

	_, err = r.commits.CreateCommit(ctx, CommitOptions{Message: "same tree"})
	assert.ErrorIs(t, err, ErrNoTreeChanges)

	_, err = r.commits.CreateCommit(ctx, CommitOptions{Message: "same tree", AllowEmpty: true})
	assert.NoError(t, err)
}

func TestCreateCommitValidation(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	_, err := r.commits.CreateCommit(ctx, CommitOptions{})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	r.stage(t, "a.txt", "x")
	_, err = r.commits.CreateCommit(ctx, CommitOptions{
		Message:      "merge ghost",
		MergeParents: []objects.ObjectHash{objects.SHA1.Sum([]byte("missing"))},
	})
	require.Error(t, err)
	assert.True(t, store.IsObjectNotFound(err))

	_, err = r.commits.CreateCommit(ctx, CommitOptions{Message: "amend nothing", Amend: true})
	assert.True(t, refs.IsUnbornRef(err))
}

func TestCreateCommitFailsOnConflicts(t *testing.T) {
	r := setupTestRepo(t)
	hash, err := r.objects.Put(objects.BlobType, []byte("base"))
	require.NoError(t, err)
	require.NoError(t, r.index.WriteConflict("c.txt", index.StageOurs, objects.FileModeRegular, hash))

	_, err = r.commits.CreateCommit(context.Background(), CommitOptions{Message: "nope"})
	require.Error(t, err)
	assert.True(t, index.IsUnresolvedConflicts(err))
}

func TestCommitOnDetachedHeadMovesHeadOnly(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	r.stage(t, "a.txt", "one")
	first, err := r.commits.CreateCommit(ctx, CommitOptions{Message: "one"})
	require.NoError(t, err)
	require.NoError(t, r.refs.Detach(first.Hash, ""))

	r.stage(t, "a.txt", "detached")
	res, err := r.commits.CreateCommit(ctx, CommitOptions{Message: "detached work"})
	require.NoError(t, err)
	assert.Empty(t, res.Branch)

	head, err := r.refs.Head()
	require.NoError(t, err)
	assert.True(t, head.IsDetached())
	assert.Equal(t, res.Hash, head.Commit)

	main, err := r.refs.Read("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, first.Hash, main.Target)
}

func TestAmendReusesParents(t *testing.T) {
	r := setupTestRepo(t)
	ctx := context.Background()

	r.stage(t, "a.txt", "one")
	first, err := r.commits.CreateCommit(ctx, CommitOptions{Message: "one"})
	require.NoError(t, err)
	r.stage(t, "a.txt", "two")
	_, err = r.commits.CreateCommit(ctx, CommitOptions{Message: "two"})
	require.NoError(t, err)

	r.stage(t, "b.txt", "extra")
	amended, err := r.commits.CreateCommit(ctx, CommitOptions{Message: "two, amended", Amend: true})
	require.NoError(t, err)
	assert.Equal(t, []objects.ObjectHash{first.Hash}, amended.Commit.Parents)

	main, err := r.refs.Resolve("main")
	require.NoError(t, err)
	assert.Equal(t, amended.Hash, main)
}

func readTree(t *testing.T, s store.ObjectStore, hash objects.ObjectHash) *tree.Tree {
	t.Helper()
	kind, data, err := s.Get(hash)
	require.NoError(t, err)
	require.Equal(t, objects.TreeType, kind)
	tr, err := tree.Parse(data, s.Algorithm())
	require.NoError(t, err)
	return tr
}
