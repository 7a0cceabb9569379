package refs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/common/logger"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

const (
	defaultActorName  = "unknown"
	defaultActorEmail = "unknown@localhost"

	// maxHeadRetries bounds how often an update addressed to HEAD is
	// re-targeted when HEAD moves underneath it.
	maxHeadRetries = 3
)

var errHeadMoved = errors.New("HEAD moved to another ref")

// Store keeps named references as files under .source/ and a movement log
// for each one under .source/logs/.
//
// Every write holds "<ref>.lock" while it reads the current value, compares
// it with the caller's expectation and renames the new value into place.
// Log appends and rewrites hold "<log>.lock". A ref lock is always taken
// before a log lock.
type Store struct {
	source      scpath.SourcePath
	alg         objects.Algorithm
	actorName   string
	actorEmail  string
	now         func() time.Time
	lockTimeout time.Duration
	logAll      bool
	log         *slog.Logger
}

// NewStore creates a reference store rooted at the .source directory.
func NewStore(source scpath.SourcePath, opts ...Option) *Store {
	s := &Store{
		source:      source,
		alg:         objects.DefaultAlgorithm,
		actorName:   defaultActorName,
		actorEmail:  defaultActorEmail,
		now:         time.Now,
		lockTimeout: fileops.DefaultLockTimeout,
		logAll:      true,
		log:         logger.Component(nil, "refs"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init lays out refs/heads, refs/tags and logs/ and attaches HEAD to the
// unborn branch defaultBranch.
func (s *Store) Init(defaultBranch string) error {
	branch, err := BranchRef(defaultBranch)
	if err != nil {
		return newInvalidInput("init", err.Error())
	}

	headPath := s.source.HeadPath().String()
	exists, err := fileops.Exists(headPath)
	if err != nil {
		return newStorageFault("init", "failed to check HEAD", err)
	}
	if exists {
		return newAlreadyExists(Head)
	}

	for _, dir := range []scpath.SourcePath{
		s.source.RefsPath().Join(scpath.HeadsDir),
		s.source.RefsPath().Join(scpath.TagsDir),
		s.source.LogsPath(),
	} {
		if err := fileops.EnsureDir(dir.String()); err != nil {
			return newStorageFault("init", "failed to create ref directories", err)
		}
	}

	content := []byte(symbolicLead + branch + "\n")
	if err := fileops.AtomicWrite(scpath.AbsolutePath(headPath), content, 0644); err != nil {
		return newStorageFault("init", "failed to write HEAD", err)
	}
	s.log.Debug("initialized refs", "head", branch)
	return nil
}

// Read returns the stored reference without following it.
func (s *Store) Read(name string) (Ref, error) {
	if err := ValidateName(name); err != nil {
		return Ref{}, newInvalidInput("read", err.Error())
	}
	ref, ok, err := s.readRaw(name)
	if err != nil {
		return Ref{}, newStorageFault("read", fmt.Sprintf("failed to read %s", name), err)
	}
	if !ok {
		return Ref{}, newNoSuchRef("read", name)
	}
	return ref, nil
}

// Exists reports whether a reference file is present for name.
func (s *Store) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, ok, err := s.readRaw(name)
	return err == nil && ok
}

// readRaw reads one ref file. A missing file, or a directory standing where
// the file would be, yields ok == false.
func (s *Store) readRaw(name string) (Ref, bool, error) {
	path := s.source.RefFilePath(name).String()
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Ref{}, false, nil
		}
		return Ref{}, false, err
	}
	if info.IsDir() {
		return Ref{}, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Ref{}, false, nil
		}
		return Ref{}, false, err
	}

	ref, err := s.parseRef(name, strings.TrimSpace(string(data)))
	if err != nil {
		return Ref{}, false, err
	}
	return ref, true, nil
}

func (s *Store) parseRef(name, content string) (Ref, error) {
	if target, ok := strings.CutPrefix(content, symbolicLead); ok {
		target = strings.TrimSpace(target)
		if name != Head {
			return Ref{}, fmt.Errorf("%s: only HEAD may be symbolic", name)
		}
		if err := ValidateName(target); err != nil || target == Head {
			return Ref{}, fmt.Errorf("%s: invalid symbolic target %q", name, target)
		}
		return Ref{Name: name, Symbolic: target}, nil
	}

	hash := objects.ObjectHash(strings.ToLower(content))
	if err := s.alg.ValidateHash(hash); err != nil {
		return Ref{}, fmt.Errorf("%s: %w", name, err)
	}
	return Ref{Name: name, Target: hash}, nil
}

// Head returns the current position of HEAD.
func (s *Store) Head() (HeadState, error) {
	ref, ok, err := s.readRaw(Head)
	if err != nil {
		return HeadState{}, newStorageFault("head", "failed to read HEAD", err)
	}
	if !ok {
		return HeadState{}, newStorageFault("head", "repository has no HEAD", nil)
	}
	if !ref.IsSymbolic() {
		return HeadState{Commit: ref.Target}, nil
	}

	target, ok, err := s.readRaw(ref.Symbolic)
	if err != nil {
		return HeadState{}, newStorageFault("head", fmt.Sprintf("failed to read %s", ref.Symbolic), err)
	}
	if !ok {
		return HeadState{Branch: ref.Symbolic}, nil
	}
	return HeadState{Branch: ref.Symbolic, Commit: target.Target}, nil
}

// Resolve follows name to a digest. HEAD and full names are looked up
// directly; short names are tried as refs/<n>, refs/tags/<n> and
// refs/heads/<n> in that order. At most one symbolic hop is taken.
func (s *Store) Resolve(name string) (objects.ObjectHash, error) {
	for _, full := range candidates(name) {
		if ValidateName(full) != nil {
			continue
		}
		ref, ok, err := s.readRaw(full)
		if err != nil {
			return "", newStorageFault("resolve", fmt.Sprintf("failed to read %s", full), err)
		}
		if !ok {
			continue
		}
		if !ref.IsSymbolic() {
			return ref.Target, nil
		}

		target, ok, err := s.readRaw(ref.Symbolic)
		if err != nil {
			return "", newStorageFault("resolve", fmt.Sprintf("failed to read %s", ref.Symbolic), err)
		}
		if !ok {
			return "", newUnborn("resolve", ref.Symbolic)
		}
		return target.Target, nil
	}
	return "", newNoSuchRef("resolve", name)
}

// Expand maps a possibly short name to the full name of an existing ref,
// or of a ref that is gone but still has a movement log.
func (s *Store) Expand(name string) (string, error) {
	for _, full := range candidates(name) {
		if ValidateName(full) != nil {
			continue
		}
		if s.Exists(full) {
			return full, nil
		}
		if ok, _ := fileops.Exists(s.source.LogFilePath(full).String()); ok {
			return full, nil
		}
	}
	return "", newNoSuchRef("expand", name)
}

// Create makes a new ref pointing at hash. It fails with RefAlreadyExists
// if the name is taken.
func (s *Store) Create(name string, hash objects.ObjectHash, reason string) error {
	if name == Head {
		return newInvalidInput("create", "HEAD cannot be created")
	}
	err := s.Update(name, hash, s.alg.ZeroHash(), reason)
	if IsRefConflict(err) {
		return newAlreadyExists(name)
	}
	return err
}

// Update moves name from expectedOld to newHash atomically. An empty or
// all-zero expectedOld means the ref must not exist yet.
//
// Updating HEAD while it is attached moves the branch it points to.
// A mismatch fails with a *ConflictError and changes nothing.
func (s *Store) Update(name string, newHash objects.ObjectHash, expectedOld objects.ObjectHash, reason string) error {
	if err := ValidateName(name); err != nil {
		return newInvalidInput("update", err.Error())
	}
	newHash = objects.ObjectHash(strings.ToLower(newHash.String()))
	if err := s.alg.ValidateHash(newHash); err != nil || newHash.IsZero() {
		return newInvalidInput("update", fmt.Sprintf("invalid new value %q for %s", newHash, name))
	}
	expectedOld = objects.ObjectHash(strings.ToLower(expectedOld.String()))
	if expectedOld.IsZero() {
		expectedOld = ""
	}

	for range maxHeadRetries {
		headTarget, err := s.headTarget()
		if err != nil {
			return err
		}
		target := name
		if name == Head && headTarget != "" {
			target = headTarget
		}

		err = s.casWrite(target, newHash, expectedOld, reason, name == Head)
		if errors.Is(err, errHeadMoved) {
			continue
		}
		if err != nil {
			return err
		}
		s.log.Debug("updated ref", "ref", target, "old", expectedOld, "new", newHash)
		return nil
	}
	return newStorageFault("update", "HEAD kept moving during the update", errHeadMoved)
}

// headTarget returns the branch HEAD is attached to, or "" when detached.
func (s *Store) headTarget() (string, error) {
	ref, ok, err := s.readRaw(Head)
	if err != nil {
		return "", newStorageFault("update", "failed to read HEAD", err)
	}
	if !ok || !ref.IsSymbolic() {
		return "", nil
	}
	return ref.Symbolic, nil
}

// casWrite swaps name under its lock. viaHead marks an update addressed to
// HEAD; if HEAD no longer leads to name once the lock is held, errHeadMoved
// is returned and nothing changes. Log entries are appended only after the
// ref file is in place.
func (s *Store) casWrite(name string, newHash, expectedOld objects.ObjectHash, reason string, viaHead bool) error {
	path := s.source.RefFilePath(name).String()
	if err := fileops.EnsureDir(filepath.Dir(path)); err != nil {
		return newStorageFault("update", fmt.Sprintf("failed to create directory for %s", name), err)
	}

	lock, err := fileops.AcquireLock(path, s.lockTimeout)
	if err != nil {
		return newStorageFault("update", fmt.Sprintf("failed to lock %s", name), err)
	}
	defer lock.Release()

	headTarget, err := s.headTarget()
	if err != nil {
		return err
	}
	if viaHead && name != Head && headTarget != name {
		return errHeadMoved
	}
	alsoHead := name != Head && name == headTarget

	current, ok, err := s.readRaw(name)
	if err != nil {
		return newStorageFault("update", fmt.Sprintf("failed to read %s", name), err)
	}
	if ok && current.IsSymbolic() {
		if viaHead {
			return errHeadMoved
		}
		return NewConflictError(name, expectedOld, "")
	}
	if current.Target != expectedOld {
		return NewConflictError(name, expectedOld, current.Target)
	}

	if err := lock.Write([]byte(newHash.String() + "\n")); err != nil {
		return newStorageFault("update", fmt.Sprintf("failed to write %s", name), err)
	}
	if err := lock.Commit(); err != nil {
		return newStorageFault("update", fmt.Sprintf("failed to replace %s", name), err)
	}

	entry := s.entry(current.Target, newHash, reason)
	s.recordMove(name, entry)
	if alsoHead {
		s.recordMove(Head, entry)
	}
	return nil
}

// recordMove appends entry to the log of name once the move itself has
// happened. The ref already holds its new value, so a failed append is
// reported in the log output rather than returned.
func (s *Store) recordMove(name string, entry LogEntry) {
	if err := s.appendLog(name, entry); err != nil {
		s.log.Warn("ref moved but its log was not updated", "ref", name, "error", err)
	}
}

// Delete removes the ref. Its movement log is kept, gaining a final entry
// to the zero digest, until the log expires.
func (s *Store) Delete(name, reason string) error {
	if name == Head {
		return newInvalidInput("delete", "HEAD cannot be deleted")
	}
	if err := ValidateName(name); err != nil {
		return newInvalidInput("delete", err.Error())
	}

	path := s.source.RefFilePath(name).String()
	if err := s.deleteLocked(name, path, reason); err != nil {
		return err
	}

	pruneEmptyDirs(filepath.Dir(path), s.source.RefsPath().String())
	s.log.Debug("deleted ref", "ref", name)
	return nil
}

func (s *Store) deleteLocked(name, path, reason string) error {
	if ok, _ := fileops.Exists(filepath.Dir(path)); !ok {
		return newNoSuchRef("delete", name)
	}

	lock, err := fileops.AcquireLock(path, s.lockTimeout)
	if err != nil {
		return newStorageFault("delete", fmt.Sprintf("failed to lock %s", name), err)
	}
	defer lock.Release()

	current, ok, err := s.readRaw(name)
	if err != nil {
		return newStorageFault("delete", fmt.Sprintf("failed to read %s", name), err)
	}
	if !ok {
		return newNoSuchRef("delete", name)
	}

	if err := os.Remove(path); err != nil {
		return newStorageFault("delete", fmt.Sprintf("failed to remove %s", name), err)
	}
	s.recordMove(name, s.entry(current.Target, s.alg.ZeroHash(), reason))
	return nil
}

// pruneEmptyDirs removes dir and its parents while they are empty. It never
// removes stop or the heads and tags namespaces beneath it.
func pruneEmptyDirs(dir, stop string) {
	keep := map[string]bool{stop: true}
	for _, rel := range []string{scpath.HeadsDir, scpath.TagsDir, scpath.RefsDir,
		filepath.Join(scpath.RefsDir, scpath.HeadsDir), filepath.Join(scpath.RefsDir, scpath.TagsDir)} {
		keep[filepath.Join(stop, rel)] = true
	}
	for strings.HasPrefix(dir, stop) && !keep[dir] {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// MoveSymbolic attaches HEAD to the existing branch target. An empty reason
// records "checkout: moving from <old> to <new>".
func (s *Store) MoveSymbolic(target, reason string) error {
	if err := ValidateName(target); err != nil {
		return newInvalidInput("move_symbolic", err.Error())
	}
	if !IsBranch(target) {
		return newInvalidInput("move_symbolic", fmt.Sprintf("HEAD can only be attached to a branch, not %s", target))
	}

	return s.moveHead("move_symbolic", reason, ShortName(target), func() (string, objects.ObjectHash, error) {
		ref, ok, err := s.readRaw(target)
		if err != nil {
			return "", "", newStorageFault("move_symbolic", fmt.Sprintf("failed to read %s", target), err)
		}
		if !ok {
			return "", "", newNoSuchRef("move_symbolic", target)
		}
		return symbolicLead + target, ref.Target, nil
	})
}

// Detach points HEAD directly at hash.
func (s *Store) Detach(hash objects.ObjectHash, reason string) error {
	hash = objects.ObjectHash(strings.ToLower(hash.String()))
	if err := s.alg.ValidateHash(hash); err != nil || hash.IsZero() {
		return newInvalidInput("detach", fmt.Sprintf("invalid digest %q", hash))
	}

	return s.moveHead("detach", reason, hash.String(), func() (string, objects.ObjectHash, error) {
		return hash.String(), hash, nil
	})
}

// moveHead rewrites HEAD under its lock. next returns the new file content
// and the commit HEAD will resolve to.
func (s *Store) moveHead(op, reason, label string, next func() (string, objects.ObjectHash, error)) error {
	path := s.source.HeadPath().String()
	lock, err := fileops.AcquireLock(path, s.lockTimeout)
	if err != nil {
		return newStorageFault(op, "failed to lock HEAD", err)
	}
	defer lock.Release()

	old, err := s.Head()
	if err != nil {
		return err
	}
	content, newHash, err := next()
	if err != nil {
		return err
	}

	if reason == "" {
		from := old.Commit.String()
		if !old.IsDetached() {
			from = ShortName(old.Branch)
		}
		reason = fmt.Sprintf("checkout: moving from %s to %s", from, label)
	}

	oldHash := old.Commit
	if oldHash == "" {
		oldHash = s.alg.ZeroHash()
	}
	if err := lock.Write([]byte(content + "\n")); err != nil {
		return newStorageFault(op, "failed to write HEAD", err)
	}
	if err := lock.Commit(); err != nil {
		return newStorageFault(op, "failed to replace HEAD", err)
	}
	s.recordMove(Head, s.entry(oldHash, newHash, reason))
	s.log.Debug("moved HEAD", "to", label)
	return nil
}

// List returns every ref under refs/ whose full name starts with prefix,
// sorted by name.
func (s *Store) List(prefix string) ([]Ref, error) {
	root := s.source.RefsPath().String()
	var out []Ref

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, scpath.LockSuffix) {
			return nil
		}

		rel, err := filepath.Rel(s.source.String(), path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) || ValidateName(name) != nil {
			return nil
		}

		ref, ok, err := s.readRaw(name)
		if err != nil {
			s.log.Warn("skipping unreadable ref", "ref", name, "error", err)
			return nil
		}
		if ok {
			out = append(out, ref)
		}
		return nil
	})
	if err != nil {
		return nil, newStorageFault("list", "failed to list refs", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) entry(oldHash, newHash objects.ObjectHash, reason string) LogEntry {
	if oldHash == "" {
		oldHash = s.alg.ZeroHash()
	}
	return LogEntry{Old: oldHash, New: newHash, Actor: s.actor(), Reason: reason}
}

func (s *Store) actor() commit.Person {
	when := s.now()
	p, err := commit.NewPerson(s.actorName, s.actorEmail, when)
	if err != nil {
		return commit.Person{Name: defaultActorName, Email: defaultActorEmail, When: when}
	}
	return *p
}
