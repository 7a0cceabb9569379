package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	scerr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

func setupTestRepo(t *testing.T, opts ...store.Option) (*Manager, store.ObjectStore, scpath.RepositoryPath) {
	t.Helper()
	repoPath, err := scpath.NewRepositoryPath(t.TempDir())
	require.NoError(t, err)

	opts = append([]store.Option{store.WithLogger(logger.Discard())}, opts...)
	s, err := store.NewFileObjectStore(repoPath, opts...)
	require.NoError(t, err)

	return NewManager(repoPath, s, WithLogger(logger.Discard())), s, repoPath
}

func paths(entries []*Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestStageAndSnapshot(t *testing.T) {
	m, s, _ := setupTestRepo(t)

	e2, err := m.Stage("file2.txt", objects.FileModeRegular, []byte("two"))
	require.NoError(t, err)
	e1, err := m.Stage("file1.txt", objects.FileModeRegular, []byte("one"))
	require.NoError(t, err)

	assert.True(t, s.Exists(e1.Hash))
	assert.True(t, s.Exists(e2.Hash))

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"file1.txt", "file2.txt"}, paths(snap))
	assert.Equal(t, e1.Hash, snap[0].Hash)
	assert.Equal(t, uint32(3), snap[0].SizeInBytes)
}

func TestStageReplacesPriorEntry(t *testing.T) {
	m, _, _ := setupTestRepo(t)

	_, err := m.Stage("a.txt", objects.FileModeRegular, []byte("v1"))
	require.NoError(t, err)
	e, err := m.Stage("a.txt", objects.FileModeExecutable, []byte("v2"))
	require.NoError(t, err)

	entries, err := m.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.Hash, entries[0].Hash)
	assert.Equal(t, objects.FileModeExecutable, entries[0].Mode)
}

func TestStageRejectsBadInput(t *testing.T) {
	m, _, _ := setupTestRepo(t)

	for _, p := range []string{"", "/abs", "../up", "a/../../b", ".source/HEAD"} {
		_, err := m.Stage(p, objects.FileModeRegular, []byte("x"))
		assert.Error(t, err, p)
	}
	_, err := m.Stage("dir", objects.FileModeDirectory, nil)
	assert.Error(t, err)
}

func TestStageRemovesFileDirectoryCollisions(t *testing.T) {
	m, _, _ := setupTestRepo(t)

	_, err := m.Stage("a/b/c.txt", objects.FileModeRegular, []byte("deep"))
	require.NoError(t, err)
	_, err = m.Stage("a/x.txt", objects.FileModeRegular, []byte("x"))
	require.NoError(t, err)

	// "a/b" as a file replaces the "a/b/" directory.
	_, err = m.Stage("a/b", objects.FileModeRegular, []byte("file"))
	require.NoError(t, err)

	entries, err := m.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b", "a/x.txt"}, paths(entries))

	// And "a/b/d" as a file replaces the "a/b" file.
	_, err = m.Stage("a/b/d", objects.FileModeRegular, []byte("d"))
	require.NoError(t, err)
	entries, err = m.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/d", "a/x.txt"}, paths(entries))
}

func TestUnstage(t *testing.T) {
	m, s, _ := setupTestRepo(t)

	e, err := m.Stage("a.txt", objects.FileModeRegular, []byte("a"))
	require.NoError(t, err)

	require.NoError(t, m.Unstage("a.txt"))
	entries, err := m.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.True(t, s.Exists(e.Hash), "unstage must not touch the object store")

	// Absent path is a no-op.
	require.NoError(t, m.Unstage("a.txt"))
}

func TestConflictStagingExclusivity(t *testing.T) {
	m, s, _ := setupTestRepo(t)

	_, err := m.Stage("clean.txt", objects.FileModeRegular, []byte("clean"))
	require.NoError(t, err)
	_, err = m.Stage("p.txt", objects.FileModeRegular, []byte("orig"))
	require.NoError(t, err)

	for stage, content := range map[Stage]string{StageBase: "base", StageOurs: "ours", StageTheirs: "theirs"} {
		h, err := s.Put(objects.BlobType, []byte(content))
		require.NoError(t, err)
		require.NoError(t, m.WriteConflict("p.txt", stage, objects.FileModeRegular, h))
	}

	entries, err := m.Entries()
	require.NoError(t, err)
	var stages []Stage
	for _, e := range entries {
		if e.Path == "p.txt" {
			stages = append(stages, e.Stage)
		}
	}
	assert.Equal(t, []Stage{StageBase, StageOurs, StageTheirs}, stages, "stage 0 must be gone")

	has, err := m.HasConflicts()
	require.NoError(t, err)
	assert.True(t, has)

	_, err = m.Snapshot()
	require.Error(t, err)
	assert.True(t, IsUnresolvedConflicts(err))
	var uce *UnresolvedConflictsError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, []string{"p.txt"}, uce.Paths)

	// Resolving by staging collapses to a single stage-0 entry.
	resolved, err := m.Stage("p.txt", objects.FileModeRegular, []byte("merged"))
	require.NoError(t, err)

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"clean.txt", "p.txt"}, paths(snap))
	assert.Equal(t, resolved.Hash, snap[1].Hash)
	assert.Equal(t, StageNormal, snap[1].Stage)
}

func TestWriteConflictValidation(t *testing.T) {
	m, _, _ := setupTestRepo(t)
	h := objects.SHA1.Sum([]byte("x"))

	assert.Error(t, m.WriteConflict("p", StageNormal, objects.FileModeRegular, h))
	assert.Error(t, m.WriteConflict("p", Stage(4), objects.FileModeRegular, h))
	assert.Error(t, m.WriteConflict("p", StageOurs, objects.FileModeDirectory, h))
	assert.Error(t, m.WriteConflict("p", StageOurs, objects.FileModeRegular, "abc"))
}

func TestRemoveClearsAllStages(t *testing.T) {
	m, _, _ := setupTestRepo(t)
	h := objects.SHA1.Sum([]byte("x"))

	require.NoError(t, m.WriteConflict("p", StageOurs, objects.FileModeRegular, h))
	require.NoError(t, m.WriteConflict("p", StageTheirs, objects.FileModeRegular, h))

	removed, err := m.Remove("p")
	require.NoError(t, err)
	assert.True(t, removed)

	has, err := m.HasConflicts()
	require.NoError(t, err)
	assert.False(t, has)

	removed, err = m.Remove("p")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestIndexPersistsAcrossManagers(t *testing.T) {
	m, s, repo := setupTestRepo(t)

	_, err := m.Stage("dir/a.txt", objects.FileModeRegular, []byte("a"))
	require.NoError(t, err)

	other := NewManager(repo, s, WithLogger(logger.Discard()))
	entries, err := other.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/a.txt"}, paths(entries))

	_, err = os.Stat(repo.SourcePath().IndexPath().String() + ".lock")
	assert.True(t, os.IsNotExist(err), "lock must be released")
}

func TestIndexLockedFails(t *testing.T) {
	m, _, repo := setupTestRepo(t)
	m.lockTimeout = 0

	lockPath := repo.SourcePath().IndexPath().String() + ".lock"
	require.NoError(t, os.WriteFile(lockPath, nil, 0644))

	_, err := m.Stage("a", objects.FileModeRegular, []byte("a"))
	require.Error(t, err)
	assert.True(t, scerr.IsCode(err, scerr.CodeLockFailed))

	entries, err := m.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageFile(t *testing.T) {
	m, _, repo := setupTestRepo(t)

	dir := filepath.Join(repo.String(), "src")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0755))

	e, err := m.StageFile("src/run.sh")
	require.NoError(t, err)
	assert.Equal(t, "src/run.sh", e.Path)
	assert.Equal(t, objects.FileModeExecutable, e.Mode)
	assert.Equal(t, objects.SHA1.HashObject(objects.BlobType, []byte("#!/bin/sh\n")), e.Hash)

	info, err := os.Stat(filepath.Join(dir, "run.sh"))
	require.NoError(t, err)
	assert.False(t, e.IsModified(info))

	_, err = m.StageFile("src")
	assert.Error(t, err)
	_, err = m.StageFile("missing.txt")
	assert.Error(t, err)
}

func TestSerializeRoundTrip(t *testing.T) {
	for _, alg := range []objects.Algorithm{objects.SHA1, objects.SHA256} {
		t.Run(alg.Name(), func(t *testing.T) {
			idx := NewIndex()
			long := "very/long/path/name-that-pads-differently.txt"
			for i, p := range []string{"b.txt", "a.txt", long, "a"} {
				e := NewEntry(p, objects.FileModeRegular, alg.Sum([]byte(p)))
				e.SizeInBytes = uint32(i)
				e.Inode = uint32(100 + i)
				idx.Set(e)
			}
			conflict := NewEntry("c.txt", objects.FileModeRegular, alg.Sum([]byte("c")))
			conflict.Stage = StageTheirs
			idx.Set(conflict)

			data, err := idx.Serialize(alg)
			require.NoError(t, err)
			assert.Equal(t, "DIRC", string(data[:4]))

			parsed, err := Parse(data, alg)
			require.NoError(t, err)
			assert.Equal(t, idx.Entries(), parsed.Entries())
			assert.Equal(t, []string{"a", "a.txt", "b.txt", "c.txt", long}, paths(parsed.Entries()))

			// Flip one byte: the checksum must catch it.
			data[20] ^= 0xff
			_, err = Parse(data, alg)
			assert.Error(t, err)
		})
	}
}

func TestEntryPaddingIsEightByteAligned(t *testing.T) {
	for n := 1; n <= 16; n++ {
		e := NewEntry(padName(n), objects.FileModeRegular, objects.SHA1.Sum(nil))
		buf, err := e.appendTo(nil, objects.SHA1)
		require.NoError(t, err)
		assert.Zero(t, len(buf)%8, "path length %d", len(e.Path))
		assert.Zero(t, buf[len(buf)-1], "must end with NUL")

		parsed, size, err := parseEntry(buf, objects.SHA1.Size())
		require.NoError(t, err)
		assert.Equal(t, len(buf), size)
		assert.Equal(t, e.Path, parsed.Path)
	}
}

func padName(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

func TestEntryFlags(t *testing.T) {
	f := NewEntryFlags(true, StageOurs, 10)
	assert.True(t, f.AssumeValid())
	assert.False(t, f.Extended())
	assert.Equal(t, StageOurs, f.Stage())
	assert.Equal(t, 10, f.FilenameLength())
	assert.Equal(t, EntryFlags(0x8000|0x2000|10), f)

	assert.Equal(t, MaxFilenameLength, NewEntryFlags(false, StageNormal, 10000).FilenameLength())
}
