package refs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

// appendLog adds entry to the log of name under the log lock. With
// log-all-ref-updates disabled only existing logs grow.
func (s *Store) appendLog(name string, entry LogEntry) error {
	path := s.source.LogFilePath(name).String()

	if !s.logAll {
		if ok, _ := fileops.Exists(path); !ok {
			return nil
		}
	}
	if err := fileops.EnsureDir(filepath.Dir(path)); err != nil {
		return newStorageFault("append_log", fmt.Sprintf("failed to create log directory for %s", name), err)
	}

	lock, err := fileops.AcquireLock(path, s.lockTimeout)
	if err != nil {
		return newStorageFault("append_log", fmt.Sprintf("failed to lock log of %s", name), err)
	}
	defer lock.Release()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return newStorageFault("append_log", fmt.Sprintf("failed to open log of %s", name), err)
	}
	defer f.Close()

	if _, err := f.WriteString(entry.line()); err != nil {
		return newStorageFault("append_log", fmt.Sprintf("failed to append to log of %s", name), err)
	}
	if err := f.Sync(); err != nil {
		return newStorageFault("append_log", fmt.Sprintf("failed to sync log of %s", name), err)
	}
	return nil
}

func (s *Store) readLog(name string) ([]LogEntry, error) {
	data, err := fileops.ReadBytes(s.source.LogFilePath(name).String())
	if err != nil {
		return nil, err
	}
	return parseLog(data, func(lineNo int, err error) {
		s.log.Warn("skipping corrupt log line", "ref", name, "line", lineNo, "error", err)
	}), nil
}

// LogOf returns the movement log of name, newest first. A ref that never
// moved has an empty log.
func (s *Store) LogOf(name string) (Log, error) {
	if err := ValidateName(name); err != nil {
		return Log{}, newInvalidInput("log_of", err.Error())
	}
	entries, err := s.readLog(name)
	if err != nil {
		return Log{}, newStorageFault("log_of", fmt.Sprintf("failed to read log of %s", name), err)
	}
	return newLog(name, entries), nil
}

// ListLogs returns the names of every ref that has a log, including HEAD and
// refs that have since been deleted.
func (s *Store) ListLogs() ([]string, error) {
	root := s.source.LogsPath().String()
	var names []string

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
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); ValidateName(name) == nil {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, newStorageFault("list_logs", "failed to list logs", err)
	}

	sort.Strings(names)
	return names, nil
}

// ExpireLog drops entries recorded before cutoff and returns how many were
// dropped. A log left empty is deleted when its ref no longer exists.
func (s *Store) ExpireLog(name string, cutoff time.Time) (int, error) {
	if err := ValidateName(name); err != nil {
		return 0, newInvalidInput("expire_log", err.Error())
	}

	path := s.source.LogFilePath(name).String()
	if ok, _ := fileops.Exists(path); !ok {
		return 0, nil
	}

	lock, err := fileops.AcquireLock(path, s.lockTimeout)
	if err != nil {
		return 0, newStorageFault("expire_log", fmt.Sprintf("failed to lock log of %s", name), err)
	}
	defer lock.Release()

	entries, err := s.readLog(name)
	if err != nil {
		return 0, newStorageFault("expire_log", fmt.Sprintf("failed to read log of %s", name), err)
	}

	kept := entries[:0]
	for _, e := range entries {
		if !e.Actor.When.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if len(kept) == 0 && name != Head && !s.Exists(name) {
		if err := os.Remove(path); err != nil {
			return 0, newStorageFault("expire_log", fmt.Sprintf("failed to remove log of %s", name), err)
		}
		if err := lock.Release(); err != nil {
			return 0, newStorageFault("expire_log", "failed to release log lock", err)
		}
		pruneEmptyDirs(filepath.Dir(path), s.source.LogsPath().String())
		s.log.Debug("removed expired log", "ref", name, "entries", removed)
		return removed, nil
	}

	var b strings.Builder
	for _, e := range kept {
		b.WriteString(e.line())
	}
	if err := lock.Write([]byte(b.String())); err != nil {
		return 0, newStorageFault("expire_log", fmt.Sprintf("failed to write log of %s", name), err)
	}
	if err := lock.Commit(); err != nil {
		return 0, newStorageFault("expire_log", fmt.Sprintf("failed to replace log of %s", name), err)
	}
	s.log.Debug("expired log entries", "ref", name, "entries", removed)
	return removed, nil
}
