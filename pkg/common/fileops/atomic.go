package fileops

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

// AtomicWrite writes data to targetPath so that readers observe either the
// previous content or the complete new content, never a partial file.
// The parent directory is created when missing.
func AtomicWrite(targetPath scpath.AbsolutePath, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(targetPath.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	pending, err := renameio.TempFile(dir, targetPath.String())
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer pending.Cleanup()

	if err := pending.Chmod(mode); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	// CloseAtomicallyReplace fsyncs, closes and renames over the target.
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", targetPath, err)
	}
	return nil
}

// AtomicWriteIfAbsent behaves like AtomicWrite but leaves an existing file
// untouched. It reports whether it wrote. Content-addressed files are
// identical by construction, so losing a race to another writer is harmless.
func AtomicWriteIfAbsent(targetPath scpath.AbsolutePath, data []byte, mode os.FileMode) (bool, error) {
	if _, err := os.Stat(targetPath.String()); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", targetPath, err)
	}

	if err := AtomicWrite(targetPath, data, mode); err != nil {
		return false, err
	}
	return true, nil
}
