package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/blob"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

// setupTestRepo creates a temporary repository root
func setupTestRepo(t *testing.T) scpath.RepositoryPath {
	t.Helper()
	repoPath, err := scpath.NewRepositoryPath(t.TempDir())
	require.NoError(t, err)
	return repoPath
}

// looseObjectPath is where the file backend keeps hash:
// .source/objects/<first two hex>/<rest>.
func looseObjectPath(repo scpath.RepositoryPath, hash objects.ObjectHash) string {
	h := hash.String()
	return filepath.Join(repo.String(), ".source", "objects", h[:2], h[2:])
}

type backendCase struct {
	name string
	open func(t *testing.T, opts ...Option) ObjectStore
}

func backends() []backendCase {
	open := func(b Backend) func(t *testing.T, opts ...Option) ObjectStore {
		return func(t *testing.T, opts ...Option) ObjectStore {
			t.Helper()
			opts = append([]Option{WithLogger(logger.Discard())}, opts...)
			s, err := Open(setupTestRepo(t), b, opts...)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}
	}
	return []backendCase{
		{"file", open(BackendFile)},
		{"bolt", open(BackendBolt)},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	payloads := map[objects.ObjectType][]byte{
		objects.BlobType:   []byte("hello world"),
		objects.TreeType:   {},
		objects.CommitType: []byte("tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n"),
		objects.TagType:    []byte("object x\n"),
	}

	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t)
			for kind, data := range payloads {
				hash, err := s.Put(kind, data)
				require.NoError(t, err)
				assert.Equal(t, s.Algorithm().HashObject(kind, data), hash)

				gotKind, gotData, err := s.Get(hash)
				require.NoError(t, err)
				assert.Equal(t, kind, gotKind)
				assert.Equal(t, len(data), len(gotData))
				assert.Equal(t, string(data), string(gotData))

				typ, err := s.TypeOf(hash)
				require.NoError(t, err)
				assert.Equal(t, kind, typ)
				assert.True(t, s.Exists(hash))
			}
		})
	}
}

func TestPutMatchesGitDigests(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t)

			hash, err := PutObject(s, blob.NewBlob([]byte("hello world")))
			require.NoError(t, err)
			assert.Equal(t, objects.ObjectHash("95d09f2b10159347eece71399a7e2e907ea3df4f"), hash)

			empty, err := s.Put(objects.BlobType, nil)
			require.NoError(t, err)
			assert.Equal(t, objects.ObjectHash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"), empty)
		})
	}
}

func TestPutIsIdempotent(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t)
			h1, err := s.Put(objects.BlobType, []byte("same"))
			require.NoError(t, err)
			h2, err := s.Put(objects.BlobType, []byte("same"))
			require.NoError(t, err)
			assert.Equal(t, h1, h2)

			count := 0
			require.NoError(t, s.Walk(func(ObjectInfo) error { count++; return nil }))
			assert.Equal(t, 1, count)
		})
	}
}

func TestGetMissing(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t)
			missing := objects.SHA1.Sum([]byte("nope"))

			_, _, err := s.Get(missing)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrObjectNotFound))
			assert.True(t, IsObjectNotFound(err))
			assert.False(t, s.Exists(missing))

			_, err = s.TypeOf(missing)
			assert.True(t, IsObjectNotFound(err))

			_, err = s.Delete(missing)
			assert.True(t, IsObjectNotFound(err))
		})
	}
}

func TestExistsNeverFailsOnGarbage(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t)
			assert.False(t, s.Exists("not-a-hash"))
			assert.False(t, s.Exists(""))
		})
	}
}

func TestFileStoreDetectsCorruption(t *testing.T) {
	repo := setupTestRepo(t)
	s, err := NewFileObjectStore(repo, WithLogger(logger.Discard()))
	require.NoError(t, err)

	hash, err := s.Put(objects.BlobType, []byte("precious"))
	require.NoError(t, err)

	// Replace the object with a valid encoding of different content.
	other, err := CompressionZlib.compress(objects.Encode(objects.BlobType, []byte("tampered")))
	require.NoError(t, err)
	path := looseObjectPath(repo, hash)
	require.NoError(t, os.Chmod(path, 0644))
	require.NoError(t, os.WriteFile(path, other, 0644))

	_, _, err = s.Get(hash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIntegrityFault))

	// Truncated garbage is an integrity fault as well.
	require.NoError(t, os.WriteFile(path, []byte{0x78, 0x9c, 0x01}, 0644))
	_, _, err = s.Get(hash)
	assert.True(t, IsIntegrityFault(err))
}

func TestFileStoreLayout(t *testing.T) {
	repo := setupTestRepo(t)
	s, err := NewFileObjectStore(repo, WithLogger(logger.Discard()))
	require.NoError(t, err)

	hash, err := s.Put(objects.BlobType, []byte("orphan"))
	require.NoError(t, err)

	info, err := os.Stat(looseObjectPath(repo, hash))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.NoDirExists(t, filepath.Join(repo.String(), ".source", "objects", "objects"))

	var walked []objects.ObjectHash
	require.NoError(t, s.Walk(func(oi ObjectInfo) error {
		walked = append(walked, oi.Hash)
		return nil
	}))
	assert.Equal(t, []objects.ObjectHash{hash}, walked)

	matches, err := s.FindByPrefix(hash.String()[:7])
	require.NoError(t, err)
	assert.Equal(t, []objects.ObjectHash{hash}, matches)

	n, err := s.Delete(hash)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), n)
	assert.NoFileExists(t, looseObjectPath(repo, hash))
	assert.False(t, s.Exists(hash))
}

func TestCompressionCodecs(t *testing.T) {
	for _, c := range []Compression{CompressionZlib, CompressionZstd, CompressionLZ4, CompressionNone} {
		t.Run(string(c), func(t *testing.T) {
			repo := setupTestRepo(t)
			s, err := NewFileObjectStore(repo, WithCompression(c), WithLogger(logger.Discard()))
			require.NoError(t, err)

			data := []byte("compressible compressible compressible compressible")
			hash, err := s.Put(objects.BlobType, data)
			require.NoError(t, err)

			raw, err := os.ReadFile(looseObjectPath(repo, hash))
			require.NoError(t, err)
			assert.Equal(t, c, detectCompression(raw))

			_, got, err := s.Get(hash)
			require.NoError(t, err)
			assert.Equal(t, data, got)

			kind, err := s.TypeOf(hash)
			require.NoError(t, err)
			assert.Equal(t, objects.BlobType, kind)

			// A store configured with a different codec still reads it.
			zs, err := NewFileObjectStore(repo, WithCompression(CompressionZstd), WithLogger(logger.Discard()))
			require.NoError(t, err)
			_, got, err = zs.Get(hash)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestParseCompressionAndBackend(t *testing.T) {
	c, err := ParseCompression("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, c)
	_, err = ParseCompression("brotli")
	assert.Error(t, err)

	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendFile, b)
	_, err = ParseBackend("s3")
	assert.Error(t, err)
}

func TestFindByPrefix(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t)

			var hashes []objects.ObjectHash
			for i := 0; i < 50; i++ {
				h, err := s.Put(objects.BlobType, []byte(fmt.Sprintf("blob %d", i)))
				require.NoError(t, err)
				hashes = append(hashes, h)
			}

			target := hashes[7]
			got, err := s.FindByPrefix(target.String()[:10])
			require.NoError(t, err)
			assert.Equal(t, []objects.ObjectHash{target}, got)

			got, err = s.FindByPrefix(target.String())
			require.NoError(t, err)
			assert.Equal(t, []objects.ObjectHash{target}, got)

			_, err = s.FindByPrefix("ab")
			assert.Error(t, err)
			_, err = s.FindByPrefix("zzzz")
			assert.Error(t, err)
		})
	}
}

func TestWalkAndDelete(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t)
			before := time.Now().Add(-time.Minute)

			keep, err := s.Put(objects.BlobType, []byte("keep"))
			require.NoError(t, err)
			drop, err := s.Put(objects.BlobType, []byte("drop"))
			require.NoError(t, err)

			seen := map[objects.ObjectHash]ObjectInfo{}
			require.NoError(t, s.Walk(func(info ObjectInfo) error {
				seen[info.Hash] = info
				return nil
			}))
			require.Len(t, seen, 2)
			assert.True(t, seen[keep].ModTime.After(before))
			assert.Positive(t, seen[drop].Size)

			n, err := s.Delete(drop)
			require.NoError(t, err)
			assert.Equal(t, seen[drop].Size, n)
			assert.False(t, s.Exists(drop))
			assert.True(t, s.Exists(keep))

			stop := errors.New("stop")
			err = s.Walk(func(ObjectInfo) error { return stop })
			assert.ErrorIs(t, err, stop)
		})
	}
}

func TestConcurrentPutSameObject(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			s := bc.open(t)
			data := []byte("raced")
			want := s.Algorithm().HashObject(objects.BlobType, data)

			var wg sync.WaitGroup
			errs := make(chan error, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					h, err := s.Put(objects.BlobType, data)
					if err == nil && h != want {
						err = fmt.Errorf("got %s", h)
					}
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				assert.NoError(t, err)
			}

			_, got, err := s.Get(want)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestAlternativeAlgorithms(t *testing.T) {
	for _, alg := range []objects.Algorithm{objects.SHA256, objects.BLAKE3} {
		t.Run(alg.Name(), func(t *testing.T) {
			s, err := NewFileObjectStore(setupTestRepo(t), WithAlgorithm(alg), WithLogger(logger.Discard()))
			require.NoError(t, err)

			hash, err := s.Put(objects.BlobType, []byte("x"))
			require.NoError(t, err)
			assert.Len(t, hash.String(), 64)

			_, data, err := s.Get(hash)
			require.NoError(t, err)
			assert.Equal(t, []byte("x"), data)

			// SHA-1 sized digests are rejected by a 64-char store.
			assert.False(t, s.Exists(objects.SHA1.Sum([]byte("x"))))
		})
	}
}
