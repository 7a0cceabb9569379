package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const (
	blobA = objects.ObjectHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	blobB = objects.ObjectHash("95d09f2b10159347eece71399a7e2e907ea3df4f")
)

func mustEntry(t *testing.T, mode objects.FileMode, name string, hash objects.ObjectHash) *TreeEntry {
	t.Helper()
	e, err := NewTreeEntry(mode, name, hash)
	require.NoError(t, err)
	return e
}

func TestEmptyTreeMatchesGit(t *testing.T) {
	tr, err := NewTree(nil)
	require.NoError(t, err)

	h, err := objects.Hash(objects.SHA1, tr)
	require.NoError(t, err)
	assert.Equal(t, objects.ObjectHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"), h)
	assert.True(t, tr.IsEmpty())
}

func TestTreeOrderIndependent(t *testing.T) {
	a := mustEntry(t, objects.FileModeRegular, "a.txt", blobA)
	b := mustEntry(t, objects.FileModeRegular, "b.txt", blobB)
	dir := mustEntry(t, objects.FileModeDirectory, "src", blobA)

	t1, err := NewTree([]*TreeEntry{a, b, dir})
	require.NoError(t, err)
	t2, err := NewTree([]*TreeEntry{dir, b, a})
	require.NoError(t, err)

	h1, err := objects.Hash(objects.SHA1, t1)
	require.NoError(t, err)
	h2, err := objects.Hash(objects.SHA1, t2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestTreeDirectorySortRule(t *testing.T) {
	// "foo.txt" < "foo/" because '.' (0x2e) < '/' (0x2f), while a file
	// named "foo-bar" sorts before both.
	dir := mustEntry(t, objects.FileModeDirectory, "foo", blobA)
	file := mustEntry(t, objects.FileModeRegular, "foo.txt", blobB)
	dash := mustEntry(t, objects.FileModeRegular, "foo-bar", blobB)

	tr, err := NewTree([]*TreeEntry{dir, file, dash})
	require.NoError(t, err)

	var names []string
	for _, e := range tr.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"foo-bar", "foo.txt", "foo"}, names)
}

func TestTreeRejectsDuplicateNames(t *testing.T) {
	_, err := NewTree([]*TreeEntry{
		mustEntry(t, objects.FileModeRegular, "x", blobA),
		mustEntry(t, objects.FileModeExecutable, "x", blobB),
	})
	assert.Error(t, err)
}

func TestTreeEntryValidation(t *testing.T) {
	_, err := NewTreeEntry(objects.FileModeRegular, "a/b", blobA)
	assert.Error(t, err)
	_, err = NewTreeEntry(objects.FileModeRegular, "", blobA)
	assert.Error(t, err)
	_, err = NewTreeEntry(objects.FileMode(0o100600), "a", blobA)
	assert.Error(t, err)
	_, err = NewTreeEntry(objects.FileModeRegular, "a", "1234")
	assert.Error(t, err)
}

func TestTreeParseRoundTrip(t *testing.T) {
	for _, alg := range []objects.Algorithm{objects.SHA1, objects.SHA256} {
		h1 := alg.Sum([]byte("one"))
		h2 := alg.Sum([]byte("two"))

		orig, err := NewTree([]*TreeEntry{
			mustEntry(t, objects.FileModeRegular, "README.md", h1),
			mustEntry(t, objects.FileModeDirectory, "pkg", h2),
			mustEntry(t, objects.FileModeExecutable, "build.sh", h1),
		})
		require.NoError(t, err)

		content, err := orig.Content()
		require.NoError(t, err)

		parsed, err := Parse(content, alg)
		require.NoError(t, err)
		assert.Equal(t, orig.Entries(), parsed.Entries())

		e, ok := parsed.Lookup("pkg")
		require.True(t, ok)
		assert.True(t, e.IsDirectory())
		_, ok = parsed.Lookup("missing")
		assert.False(t, ok)
	}
}

func TestTreeParseRejectsTruncated(t *testing.T) {
	_, err := Parse([]byte("100644 a.txt\x00\x01\x02"), objects.SHA1)
	assert.Error(t, err)
}
