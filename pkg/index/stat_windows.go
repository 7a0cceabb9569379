//go:build windows

package index

import "os"

// fillStatIdentity leaves the identity fields zero; Windows has no
// device, inode or owner ids in the Unix sense.
func fillStatIdentity(*Entry, os.FileInfo) {}
