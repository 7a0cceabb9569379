//go:build unix

package index

import (
	"os"
	"syscall"
)

// fillStatIdentity copies device, inode and owner from the raw stat data.
// Values wider than 32 bits are truncated, as the on-disk format stores
// only the low bits.
func fillStatIdentity(e *Entry, info os.FileInfo) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	e.DeviceID = uint32(st.Dev)
	e.Inode = uint32(st.Ino)
	e.UserID = st.Uid
	e.GroupID = st.Gid
}
