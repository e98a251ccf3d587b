//go:build !linux
// +build !linux

package fuseview

import "fmt"

// Mount is unsupported outside Linux: bazil.org/fuse only provides a
// working backend on Linux (and Darwin with OSXFUSE, not wired here).
func Mount(mountpoint string, fs *FS) error {
	return fmt.Errorf("fuseview: FUSE mount is only supported on Linux")
}
