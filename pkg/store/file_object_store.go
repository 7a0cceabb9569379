package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

// FileObjectStore keeps every object as its own compressed file, fanned out
// by the first two hex characters of the digest:
//
//	.source/objects/
//	├─ ab/
//	│  └─ cdef1234...   (remaining hex characters)
//	└─ cd/
//	   └─ ef567890...
//
// Files are written to a temp file in the fan-out directory and renamed
// into place, so a reader never observes a partially written object.
type FileObjectStore struct {
	source      scpath.SourcePath
	objectsPath scpath.SourcePath
	alg         objects.Algorithm
	compression Compression
	log         *slog.Logger
}

var _ ObjectStore = (*FileObjectStore)(nil)

// NewFileObjectStore creates a store rooted at the repository's objects
// directory, creating it if needed.
func NewFileObjectStore(repoPath scpath.RepositoryPath, opts ...Option) (*FileObjectStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	source := repoPath.SourcePath()
	fos := &FileObjectStore{
		source:      source,
		objectsPath: source.ObjectsPath(),
		alg:         o.algorithm,
		compression: o.compression,
		log:         logger.Component(o.logger, "store"),
	}

	if err := os.MkdirAll(fos.objectsPath.String(), 0755); err != nil {
		return nil, newStorageFault("init", "failed to create objects directory", err)
	}
	return fos, nil
}

// Algorithm returns the digest algorithm
func (fos *FileObjectStore) Algorithm() objects.Algorithm {
	return fos.alg
}

// ObjectsPath returns the path to the objects directory
func (fos *FileObjectStore) ObjectsPath() scpath.SourcePath {
	return fos.objectsPath
}

// Put implements ObjectStore.
func (fos *FileObjectStore) Put(kind objects.ObjectType, data []byte) (objects.ObjectHash, error) {
	if !kind.IsValid() {
		return "", newInvalidInput("put", fmt.Sprintf("unknown object type %q", kind))
	}

	encoded := objects.Encode(kind, data)
	hash := fos.alg.Sum(encoded)
	path := fos.source.ObjectFilePath(hash.String())

	// Re-putting an existing object refreshes its mtime so a concurrent
	// collection treats it as new.
	now := time.Now()
	if err := os.Chtimes(path.String(), now, now); err == nil {
		fos.log.Debug("object already present", "hash", hash, "type", kind)
		return hash, nil
	}

	compressed, err := fos.compression.compress(encoded)
	if err != nil {
		return "", newStorageFault("put", "failed to compress object", err)
	}

	written, err := fileops.AtomicWriteIfAbsent(path.ToAbsolutePath(), compressed, 0444)
	if err != nil {
		return "", newStorageFault("put", fmt.Sprintf("failed to write object %s", hash), err)
	}

	if written {
		fos.log.Debug("object written", "hash", hash, "type", kind, "size", len(data))
	}
	return hash, nil
}

// Get implements ObjectStore.
func (fos *FileObjectStore) Get(hash objects.ObjectHash) (objects.ObjectType, []byte, error) {
	hash, path, err := fos.pathFor("get", hash)
	if err != nil {
		return "", nil, err
	}

	raw, err := os.ReadFile(path.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, newNotFound("get", hash)
		}
		return "", nil, newStorageFault("get", fmt.Sprintf("failed to read object %s", hash), err)
	}

	return verify(fos.alg, "get", hash, raw)
}

// verify decompresses raw, decodes it and checks it hashes to want.
func verify(alg objects.Algorithm, op string, want objects.ObjectHash, raw []byte) (objects.ObjectType, []byte, error) {
	encoded, err := decompress(raw)
	if err != nil {
		return "", nil, newIntegrityFault(op, want, err)
	}

	kind, content, err := objects.Decode(encoded)
	if err != nil {
		return "", nil, newIntegrityFault(op, want, err)
	}

	if got := alg.Sum(encoded); got != want {
		return "", nil, newIntegrityFault(op, want,
			fmt.Errorf("content hashes to %s", got))
	}
	return kind, content, nil
}

// Exists implements ObjectStore.
func (fos *FileObjectStore) Exists(hash objects.ObjectHash) bool {
	_, path, err := fos.pathFor("exists", hash)
	if err != nil {
		return false
	}
	_, err = os.Stat(path.String())
	return err == nil
}

// TypeOf implements ObjectStore. Only the header is decompressed.
func (fos *FileObjectStore) TypeOf(hash objects.ObjectHash) (objects.ObjectType, error) {
	hash, path, err := fos.pathFor("type", hash)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", newNotFound("type", hash)
		}
		return "", newStorageFault("type", fmt.Sprintf("failed to open object %s", hash), err)
	}
	defer f.Close()

	head, err := readHeader(f)
	if err != nil {
		return "", newIntegrityFault("type", hash, err)
	}

	kind, _, _, err := objects.ParseHeader(head)
	if err != nil {
		return "", newIntegrityFault("type", hash, err)
	}
	return kind, nil
}

// FindByPrefix implements ObjectStore.
func (fos *FileObjectStore) FindByPrefix(prefix string) ([]objects.ObjectHash, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < objects.MinPrefixLength || len(prefix) > fos.alg.HexSize() || !objects.IsHex(prefix) {
		return nil, newInvalidInput("find", fmt.Sprintf("invalid object prefix %q", prefix))
	}

	dir := fos.objectsPath.Join(prefix[:2])
	entries, err := os.ReadDir(dir.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, newStorageFault("find", "failed to list objects", err)
	}

	var matches []objects.ObjectHash
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !fos.isObjectName(name) || !strings.HasPrefix(name, prefix[2:]) {
			continue
		}
		matches = append(matches, objects.ObjectHash(prefix[:2]+name))
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })
	return matches, nil
}

// Walk implements ObjectStore. Temp files left by interrupted writes are
// skipped.
func (fos *FileObjectStore) Walk(fn func(ObjectInfo) error) error {
	fanout, err := os.ReadDir(fos.objectsPath.String())
	if err != nil {
		return newStorageFault("walk", "failed to list objects directory", err)
	}

	for _, d := range fanout {
		if !d.IsDir() || len(d.Name()) != 2 || !objects.IsHex(d.Name()) {
			continue
		}

		entries, err := os.ReadDir(fos.objectsPath.Join(d.Name()).String())
		if err != nil {
			return newStorageFault("walk", "failed to list fan-out directory", err)
		}

		for _, e := range entries {
			if e.IsDir() || !fos.isObjectName(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return newStorageFault("walk", "failed to stat object", err)
			}

			if err := fn(ObjectInfo{
				Hash:    objects.ObjectHash(d.Name() + e.Name()),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete implements ObjectStore.
func (fos *FileObjectStore) Delete(hash objects.ObjectHash) (int64, error) {
	hash, path, err := fos.pathFor("delete", hash)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, newNotFound("delete", hash)
		}
		return 0, newStorageFault("delete", "failed to stat object", err)
	}

	if err := os.Remove(path.String()); err != nil {
		return 0, newStorageFault("delete", fmt.Sprintf("failed to remove object %s", hash), err)
	}

	fos.log.Debug("object deleted", "hash", hash, "bytes", info.Size())
	return info.Size(), nil
}

// Close implements ObjectStore.
func (fos *FileObjectStore) Close() error {
	return nil
}

// Count returns the number of stored objects.
func (fos *FileObjectStore) Count() (int, error) {
	count := 0
	err := fos.Walk(func(ObjectInfo) error {
		count++
		return nil
	})
	return count, err
}

// pathFor validates hash and returns its lowercased form and file path.
func (fos *FileObjectStore) pathFor(op string, hash objects.ObjectHash) (objects.ObjectHash, scpath.SourcePath, error) {
	hash = objects.ObjectHash(strings.ToLower(hash.String()))
	if err := fos.alg.ValidateHash(hash); err != nil {
		return "", "", newInvalidInput(op, err.Error())
	}
	return hash, fos.source.ObjectFilePath(hash.String()), nil
}

func (fos *FileObjectStore) isObjectName(name string) bool {
	return len(name) == fos.alg.HexSize()-2 && objects.IsHex(name)
}
