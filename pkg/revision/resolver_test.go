package revision

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tag"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/refs"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

type fixture struct {
	objects  store.ObjectStore
	refs     *refs.Store
	resolver *Resolver
	emptyDir objects.ObjectHash
	clock    int64
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	repoPath, err := scpath.NewRepositoryPath(t.TempDir())
	require.NoError(t, err)

	s, err := store.NewFileObjectStore(repoPath, store.WithLogger(logger.Discard()))
	require.NoError(t, err)

	refStore := refs.NewStore(repoPath.SourcePath(), refs.WithLogger(logger.Discard()))
	require.NoError(t, refStore.Init("main"))

	emptyTree, err := tree.NewTree(nil)
	require.NoError(t, err)
	treeHash, err := store.PutObject(s, emptyTree)
	require.NoError(t, err)

	return &fixture{
		objects:  s,
		refs:     refStore,
		resolver: NewResolver(s, refStore, logger.Discard()),
		emptyDir: treeHash,
		clock:    1700000000,
	}
}

func (f *fixture) commit(t *testing.T, msg string, parents ...objects.ObjectHash) objects.ObjectHash {
	t.Helper()
	f.clock += 60
	who, err := commit.NewPerson("Dev", "dev@example.com", time.Unix(f.clock, 0).UTC())
	require.NoError(t, err)

	c, err := commit.NewBuilder().
		Tree(f.emptyDir).
		Parents(parents...).
		Author(who).
		Committer(who).
		Message(msg).
		Build()
	require.NoError(t, err)

	hash, err := store.PutObject(f.objects, c)
	require.NoError(t, err)
	return hash
}

func (f *fixture) single(t *testing.T, text string) objects.ObjectHash {
	t.Helper()
	res, err := f.resolver.Resolve(context.Background(), text)
	require.NoError(t, err, text)
	hash, ok := res.Hash()
	require.True(t, ok, "%s should resolve to a single object", text)
	return hash
}

func (f *fixture) set(t *testing.T, text string) []objects.ObjectHash {
	t.Helper()
	res, err := f.resolver.Resolve(context.Background(), text)
	require.NoError(t, err, text)
	require.True(t, res.IsSet(), "%s should resolve to a set", text)
	return res.Hashes()
}

// history builds:
//
//	C1 -- C2 (main) ---- M (merge)
//	  \                /
//	   C3 (feature) --
func history(t *testing.T) (*fixture, map[string]objects.ObjectHash) {
	f := setupFixture(t)
	c1 := f.commit(t, "C1")
	c2 := f.commit(t, "C2", c1)
	c3 := f.commit(t, "C3", c1)
	m := f.commit(t, "M", c2, c3)

	require.NoError(t, f.refs.Update(refs.Head, c1, "", "commit (initial): C1"))
	require.NoError(t, f.refs.Update(refs.Head, c2, c1, "commit: C2"))
	require.NoError(t, f.refs.Create("refs/heads/feature", c3, "branch: created"))
	require.NoError(t, f.refs.Create("refs/tags/merged", m, "tag"))

	return f, map[string]objects.ObjectHash{"C1": c1, "C2": c2, "C3": c3, "M": m}
}

func TestResolveNamesAndAncestry(t *testing.T) {
	f, c := history(t)

	assert.Equal(t, c["C2"], f.single(t, "HEAD"))
	assert.Equal(t, c["C2"], f.single(t, "@"))
	assert.Equal(t, c["C2"], f.single(t, "main"))
	assert.Equal(t, c["C2"], f.single(t, "refs/heads/main"))
	assert.Equal(t, c["C1"], f.single(t, "HEAD~1"))
	assert.Equal(t, c["C1"], f.single(t, "HEAD~"))
	assert.Equal(t, c["C1"], f.single(t, "HEAD^"))
	assert.Equal(t, c["C2"], f.single(t, "HEAD~0"))
	assert.Equal(t, c["C3"], f.single(t, "feature"))
}

func TestResolveMergeParents(t *testing.T) {
	f, c := history(t)

	assert.Equal(t, c["C2"], f.single(t, "merged^1"))
	assert.Equal(t, c["C3"], f.single(t, "merged^2"))
	assert.Equal(t, c["C2"], f.single(t, "merged~1"))
	assert.Equal(t, c["C1"], f.single(t, "merged^2~1"))
	assert.Equal(t, c["C1"], f.single(t, "merged~1^1"))
	assert.Equal(t, c["M"], f.single(t, "merged^0"))

	_, err := f.resolver.Resolve(context.Background(), "merged^3")
	assert.True(t, IsNoSuchParent(err))
	assert.ErrorIs(t, err, ErrNoSuchParent)

	_, err = f.resolver.Resolve(context.Background(), "merged~3")
	assert.True(t, IsNoSuchParent(err))
}

func TestResolveRanges(t *testing.T) {
	f, c := history(t)

	assert.Equal(t, []objects.ObjectHash{c["C3"]}, f.set(t, "main..feature"))
	assert.Equal(t, []objects.ObjectHash{c["C3"], c["C2"]}, f.set(t, "main...feature"))
	assert.Equal(t, []objects.ObjectHash{c["C3"]}, f.set(t, "HEAD..feature"))
	assert.Equal(t, []objects.ObjectHash{c["C3"]}, f.set(t, "..feature"))
	assert.Empty(t, f.set(t, "feature..feature"))

	// Newest committer time first.
	assert.Equal(t,
		[]objects.ObjectHash{c["M"], c["C3"], c["C2"], c["C1"]},
		f.set(t, "merged main"))
}

func TestResolveExclusionList(t *testing.T) {
	f, c := history(t)

	assert.Equal(t, []objects.ObjectHash{c["M"], c["C3"]}, f.set(t, "merged ^main"))
	assert.Equal(t, []objects.ObjectHash{c["M"]}, f.set(t, "^main ^feature merged"))
	assert.Equal(t, []objects.ObjectHash{c["C3"], c["C2"], c["C1"]}, f.set(t, "main feature"))
	assert.Empty(t, f.set(t, "^main"))
}

func TestResolveShortDigests(t *testing.T) {
	f, c := history(t)

	assert.Equal(t, c["C3"], f.single(t, c["C3"].String()[:8]))
	assert.Equal(t, c["C3"], f.single(t, c["C3"].String()))

	_, err := f.resolver.Resolve(context.Background(), "0000000000000000000000000000000000000000")
	assert.True(t, IsNoSuchRevision(err))

	_, err = f.resolver.Resolve(context.Background(), "nope")
	assert.True(t, IsNoSuchRevision(err))
	assert.ErrorIs(t, err, ErrNoSuchRevision)

	// Longer than the repository digest, still within the widest one.
	tooLong := c["C3"].String() + "0000"
	_, err = f.resolver.Resolve(context.Background(), tooLong)
	require.Error(t, err)
	assert.True(t, IsNoSuchRevision(err))
}

func TestResolveAmbiguousPrefix(t *testing.T) {
	f := setupFixture(t)

	byPrefix := map[string][]objects.ObjectHash{
		f.emptyDir.String()[:4]: {f.emptyDir},
	}
	var prefix string
	for i := 0; prefix == ""; i++ {
		h, err := f.objects.Put(objects.BlobType, []byte(fmt.Sprintf("blob-%d", i)))
		require.NoError(t, err)
		p := h.String()[:4]
		byPrefix[p] = append(byPrefix[p], h)
		if len(byPrefix[p]) == 2 {
			prefix = p
		}
	}

	_, err := f.resolver.Resolve(context.Background(), prefix)
	require.Error(t, err)
	assert.True(t, IsAmbiguousRevision(err))

	var amb *AmbiguousRevisionError
	require.True(t, errors.As(err, &amb))
	assert.ElementsMatch(t, byPrefix[prefix], amb.Candidates)
}

func TestResolveMovementLog(t *testing.T) {
	f, c := history(t)

	assert.Equal(t, c["C2"], f.single(t, "main@{0}"))
	assert.Equal(t, c["C1"], f.single(t, "main@{1}"))
	assert.Equal(t, c["C1"], f.single(t, "@{1}"))
	assert.Equal(t, c["C2"], f.single(t, "HEAD@{0}"))
	assert.Equal(t, c["C1"], f.single(t, "main@{0}~1"))

	_, err := f.resolver.Resolve(context.Background(), "main@{5}")
	assert.True(t, IsNoSuchRevision(err))

	// Logs outlive their ref.
	require.NoError(t, f.refs.Delete("refs/heads/feature", "branch: deleted"))
	assert.Equal(t, c["C3"], f.single(t, "feature@{1}"))
	_, err = f.resolver.Resolve(context.Background(), "feature@{0}")
	assert.True(t, IsNoSuchRevision(err))
}

func TestResolvePeel(t *testing.T) {
	f, c := history(t)

	who, err := commit.NewPerson("Dev", "dev@example.com", time.Unix(1800000000, 0).UTC())
	require.NoError(t, err)
	annotated, err := tag.New(c["C3"], objects.CommitType, "v1", who, "release")
	require.NoError(t, err)
	tagHash, err := store.PutObject(f.objects, annotated)
	require.NoError(t, err)
	require.NoError(t, f.refs.Create("refs/tags/v1", tagHash, "tag"))

	assert.Equal(t, tagHash, f.single(t, "v1"))
	assert.Equal(t, c["C3"], f.single(t, "v1^{}"))
	assert.Equal(t, c["C3"], f.single(t, "v1^{commit}"))
	assert.Equal(t, tagHash, f.single(t, "v1^{tag}"))
	assert.Equal(t, f.emptyDir, f.single(t, "v1^{tree}"))
	assert.Equal(t, c["C1"], f.single(t, "v1~1"))

	got, err := f.resolver.ResolveCommit(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, c["C3"], got)

	assert.Equal(t, []objects.ObjectHash{c["C3"]}, f.set(t, "main..v1"))
}

func TestResolveUnbornHead(t *testing.T) {
	f := setupFixture(t)

	_, err := f.resolver.Resolve(context.Background(), "HEAD")
	require.Error(t, err)
	assert.True(t, IsNoSuchRevision(err))
	assert.True(t, refs.IsUnbornRef(err))
}

func TestParseErrors(t *testing.T) {
	f, _ := history(t)

	for _, text := range []string{"", "main@{x}", "main@{1", "main^{", "main~2x", "a..b..c", "main ^a..b"} {
		_, err := f.resolver.Resolve(context.Background(), text)
		assert.True(t, IsNoSuchRevision(err), "%q", text)
	}

	_, err := f.resolver.Resolve(context.Background(), "main^{bogus}")
	assert.Error(t, err)
}
