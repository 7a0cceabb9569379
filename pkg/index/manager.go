package index

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common"
	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

// Manager owns the on-disk index of one repository.
//
// Every mutation takes .source/index.lock, re-reads the index, applies the
// change and renames the new file into place, so readers only ever see a
// complete index. Reads go straight to disk.
type Manager struct {
	repoRoot    scpath.RepositoryPath
	indexPath   scpath.SourcePath
	objects     store.ObjectStore
	alg         objects.Algorithm
	lockTimeout time.Duration
	log         *slog.Logger
	mu          sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = logger.Component(l, "index") }
}

// WithLockTimeout bounds the wait for index.lock.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) { m.lockTimeout = d }
}

// NewManager creates a new index manager. Blobs are written to objects and
// the index checksum uses the same digest algorithm.
func NewManager(repoRoot scpath.RepositoryPath, objectStore store.ObjectStore, opts ...Option) *Manager {
	m := &Manager{
		repoRoot:    repoRoot,
		indexPath:   repoRoot.SourcePath().IndexPath(),
		objects:     objectStore,
		alg:         objectStore.Algorithm(),
		lockTimeout: fileops.DefaultLockTimeout,
		log:         logger.Component(nil, "index"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads the index from disk. A missing file is an empty index.
func (m *Manager) Load() (*Index, error) {
	data, err := os.ReadFile(m.indexPath.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewIndex(), nil
		}
		return nil, newStorageFault("load", "failed to read index", err)
	}

	idx, err := Parse(data, m.alg)
	if err != nil {
		return nil, newStorageFault("load", "failed to parse index", err)
	}
	return idx, nil
}

// update applies fn to a freshly loaded index under the index lock and
// writes the result atomically. Nothing is written if fn fails.
func (m *Manager) update(op string, fn func(*Index) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, err := fileops.AcquireLock(m.indexPath.String(), m.lockTimeout)
	if err != nil {
		return newStorageFault(op, "failed to lock index", err)
	}
	defer lock.Release()

	idx, err := m.Load()
	if err != nil {
		return err
	}

	if err := fn(idx); err != nil {
		return err
	}

	data, err := idx.Serialize(m.alg)
	if err != nil {
		return newStorageFault(op, "failed to serialize index", err)
	}
	if err := lock.Write(data); err != nil {
		return newStorageFault(op, "failed to write index", err)
	}
	if err := lock.Commit(); err != nil {
		return newStorageFault(op, "failed to replace index", err)
	}
	return nil
}

// Stage stores data as a blob and records it as the stage-0 entry for path.
// Any conflict stages at path are cleared, as are entries that would
// collide with path as a directory or file.
func (m *Manager) Stage(path string, mode objects.FileMode, data []byte) (*Entry, error) {
	return m.stage("stage", path, mode, data, nil)
}

// StageFile stages a file from the working directory, recording its stat
// information. Symlinks store their target as content.
func (m *Manager) StageFile(path string) (*Entry, error) {
	rel, err := scpath.NewRelativePath(path)
	if err != nil {
		return nil, newInvalidInput("stage", err.Error())
	}

	abs := filepath.Join(m.repoRoot.String(), filepath.FromSlash(rel.String()))
	info, err := os.Lstat(abs)
	if err != nil {
		return nil, newStorageFault("stage", fmt.Sprintf("failed to stat %s", rel), err)
	}
	if info.IsDir() {
		return nil, newInvalidInput("stage", fmt.Sprintf("%s is a directory", rel))
	}

	var data []byte
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(abs)
		if err != nil {
			return nil, newStorageFault("stage", fmt.Sprintf("failed to read link %s", rel), err)
		}
		data = []byte(filepath.ToSlash(target))
	} else if data, err = os.ReadFile(abs); err != nil {
		return nil, newStorageFault("stage", fmt.Sprintf("failed to read %s", rel), err)
	}

	return m.stage("stage", rel.String(), objects.FromOSFileMode(info.Mode()), data, info)
}

func (m *Manager) stage(op, path string, mode objects.FileMode, data []byte, info os.FileInfo) (*Entry, error) {
	rel, err := scpath.NewRelativePath(path)
	if err != nil {
		return nil, newInvalidInput(op, err.Error())
	}
	if !mode.IsRegular() && !mode.IsSymlink() {
		return nil, newInvalidInput(op, fmt.Sprintf("mode %s cannot be staged from content", mode))
	}

	hash, err := m.objects.Put(objects.BlobType, data)
	if err != nil {
		return nil, err
	}

	entry := NewEntry(rel.String(), mode, hash)
	if info != nil {
		entry.SetFileInfo(info)
	} else {
		entry.SizeInBytes = uint32(len(data))
		entry.ModificationTime = common.NewTimestamp(time.Now())
		entry.CreationTime = entry.ModificationTime
	}

	err = m.update(op, func(idx *Index) error {
		removeCollisions(idx, entry.Path)
		idx.Set(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Debug("staged", "path", entry.Path, "hash", hash, "mode", mode)
	return entry, nil
}

// removeCollisions drops every entry of path (all stages) plus entries
// that are its parents ("a" for "a/b") or children ("a/b" for "a").
func removeCollisions(idx *Index, path string) {
	idx.DeletePath(path)

	for dir := filepath.ToSlash(filepath.Dir(path)); dir != "." && dir != "/"; dir = filepath.ToSlash(filepath.Dir(dir)) {
		idx.DeletePath(dir)
	}

	prefix := path + "/"
	for _, e := range idx.Entries() {
		if strings.HasPrefix(e.Path, prefix) {
			idx.Delete(e.Path, e.Stage)
		}
	}
}

// Unstage removes the stage-0 entry for path. Missing entries are not an
// error and the object store is not touched.
func (m *Manager) Unstage(path string) error {
	rel, err := scpath.NewRelativePath(path)
	if err != nil {
		return newInvalidInput("unstage", err.Error())
	}

	return m.update("unstage", func(idx *Index) error {
		if idx.Delete(rel.String(), StageNormal) {
			m.log.Debug("unstaged", "path", rel)
		}
		return nil
	})
}

// Remove drops every entry for path, stage 0 and conflict stages alike,
// so the path is absent from the next tree. It reports whether anything
// was removed.
func (m *Manager) Remove(path string) (bool, error) {
	rel, err := scpath.NewRelativePath(path)
	if err != nil {
		return false, newInvalidInput("remove", err.Error())
	}

	removed := 0
	err = m.update("remove", func(idx *Index) error {
		removed = idx.DeletePath(rel.String())
		return nil
	})
	if err != nil {
		return false, err
	}

	if removed > 0 {
		m.log.Debug("removed", "path", rel, "entries", removed)
	}
	return removed > 0, nil
}

// WriteConflict records one side of a conflicted path at stage 1, 2 or 3
// and drops the stage-0 entry. A later Stage of the path collapses the
// conflict.
func (m *Manager) WriteConflict(path string, stage Stage, mode objects.FileMode, hash objects.ObjectHash) error {
	rel, err := scpath.NewRelativePath(path)
	if err != nil {
		return newInvalidInput("write_conflict", err.Error())
	}
	if !stage.IsConflict() {
		return newInvalidInput("write_conflict", fmt.Sprintf("stage must be 1, 2 or 3, got %d", stage))
	}
	if !mode.IsValid() || mode.IsDirectory() {
		return newInvalidInput("write_conflict", fmt.Sprintf("invalid mode %s", mode))
	}
	if err := m.alg.ValidateHash(hash); err != nil {
		return newInvalidInput("write_conflict", err.Error())
	}

	err = m.update("write_conflict", func(idx *Index) error {
		idx.Delete(rel.String(), StageNormal)
		e := NewEntry(rel.String(), mode, hash)
		e.Stage = stage
		idx.Set(e)
		return nil
	})
	if err != nil {
		return err
	}

	m.log.Debug("conflict recorded", "path", rel, "stage", uint8(stage), "hash", hash)
	return nil
}

// Snapshot returns the stage-0 entries sorted by path, the input to tree
// construction. It fails with UnresolvedConflictsError while any path has
// conflict stages.
func (m *Manager) Snapshot() ([]*Entry, error) {
	idx, err := m.Load()
	if err != nil {
		return nil, err
	}

	if paths := idx.ConflictPaths(); len(paths) > 0 {
		return nil, NewUnresolvedConflictsError("snapshot", paths)
	}
	return idx.Entries(), nil
}

// HasConflicts reports whether any path has stage 1-3 entries.
func (m *Manager) HasConflicts() (bool, error) {
	paths, err := m.Conflicts()
	return len(paths) > 0, err
}

// Conflicts returns the conflicted paths in order.
func (m *Manager) Conflicts() ([]string, error) {
	idx, err := m.Load()
	if err != nil {
		return nil, err
	}
	return idx.ConflictPaths(), nil
}

// Entries returns every entry, all stages, in (path, stage) order.
func (m *Manager) Entries() ([]*Entry, error) {
	idx, err := m.Load()
	if err != nil {
		return nil, err
	}
	return idx.Entries(), nil
}

// Replace overwrites the whole index with entries. Used to reset the index
// to a commit's tree.
func (m *Manager) Replace(entries []*Entry) error {
	return m.update("replace", func(idx *Index) error {
		for _, e := range idx.Entries() {
			idx.Delete(e.Path, e.Stage)
		}
		for _, e := range entries {
			if err := m.alg.ValidateHash(e.Hash); err != nil {
				return newInvalidInput("replace", fmt.Sprintf("%s: %v", e.Path, err))
			}
			idx.Set(e)
		}
		return nil
	})
}
