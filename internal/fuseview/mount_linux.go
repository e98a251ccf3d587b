//go:build linux
// +build linux

package fuseview

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	vos "github.com/sscafiti/vsfat/pkg/util/os"
)

// Mount prepares mountpoint (creating it if missing, refusing a
// non-empty existing directory) and serves fs there until a termination
// signal is received and the unmount succeeds.
func Mount(mountpoint string, fs *FS) error {
	created, err := vos.EnsureDir(mountpoint, true)
	if err != nil {
		return err
	}
	if created {
		defer os.Remove(mountpoint)
	}

	c, err := fuse.Mount(mountpoint)
	if err != nil {
		return err
	}
	defer c.Close()

	go func() {
		srv := fusefs.New(c, nil)
		if err := srv.Serve(fs); err != nil {
			log.Printf("fuseview: serve error: %v", err)
		}
	}()
	return waitForUmount(mountpoint)
}

func waitForUmount(mountpoint string) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	log.Println("fuseview: waiting for termination signal...")

	const maxUnmountRetries = 3
	attempts := 0
	for sig := range sigc {
		log.Printf("fuseview: signal received: %v", sig)

		if attempts >= maxUnmountRetries {
			log.Printf("fuseview: maximum unmount retries (%d) exceeded for %s, exiting anyway", maxUnmountRetries, mountpoint)
			return nil
		}

		if err := fuse.Unmount(mountpoint); err == nil {
			log.Println("fuseview: unmounted successfully")
			return nil
		} else {
			attempts++
			log.Printf("fuseview: unmount failed: %v (attempt %d/%d)", err, attempts, maxUnmountRetries)
		}
	}
	return nil
}
