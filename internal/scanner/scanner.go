// Package scanner walks a host directory tree and drives a vfat.DirBuilder
// to synthesize the corresponding FAT32 directory structure, registering
// each regular file as a host-file-backed AddressMap region.
//
// Grounded on the reference implementation's scan_folder (vsfat.c), which
// recursively walks a directory and calls add_file for every entry,
// translated into a recursive os.ReadDir walk. The directory-recursion shape
// (not the forensic carving it's used for elsewhere) also follows the
// teacher's own internal/scan/scan.go traversal style.
package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/sscafiti/vsfat/internal/hostmap"
	"github.com/sscafiti/vsfat/internal/vfat"
)

// maxNameLength is the FAT32 long-name limit (255 UCS-2 characters).
const maxNameLength = 255

// Scanner walks a host folder and populates a vfat.ImageBuilder's
// directory tree.
type Scanner struct {
	Image *vfat.ImageBuilder
	Hosts *hostmap.Map
	log   *slog.Logger
}

// New creates a scanner targeting an already-initialized image builder.
// maxOpenFiles bounds the fallback file-handle cache hostmap keeps for
// paths it could not mmap.
func New(image *vfat.ImageBuilder, maxOpenFiles int, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{Image: image, Hosts: hostmap.New(maxOpenFiles), log: log}
}

// Scan walks root's immediate and nested contents into the image,
// collecting — rather than aborting on — per-entry failures. It returns a
// combined error (nil if everything succeeded) so the caller can log a
// summary while still serving whatever was built.
func (s *Scanner) Scan(root string) error {
	var errs *multierror.Error
	s.scanDir(root, &errs)
	return errs.ErrorOrNil()
}

// scanDir enumerates one directory's children in sorted order (so scans
// of an unchanged tree produce byte-identical images) and adds each to
// the current DirBuilder frame, recursing into subdirectories depth-first.
func (s *Scanner) scanDir(path string, errs **multierror.Error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("reading directory %q: %w", path, err))
		return
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		name := e.Name()
		if n := len([]rune(name)); n > maxNameLength {
			*errs = multierror.Append(*errs, fmt.Errorf("%w: %q (%d chars)", vfat.ErrPathTooLong, name, n))
			continue
		}

		childPath := filepath.Join(path, name)

		info, err := e.Info()
		if err != nil {
			*errs = multierror.Append(*errs, fmt.Errorf("%w: stat %q: %v", vfat.ErrHostIO, childPath, err))
			continue
		}

		if e.IsDir() {
			s.addDir(name, childPath, errs)
			continue
		}

		if !info.Mode().IsRegular() {
			s.log.Debug("skipping non-regular file", "path", childPath, "mode", info.Mode())
			continue
		}

		s.addFile(name, childPath, uint64(info.Size()), errs)
	}
}

func (s *Scanner) addDir(name, path string, errs **multierror.Error) {
	firstCluster, err := s.Image.Dir.AddFile(name, path, 0, true, nil)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("adding directory %q: %w", path, err))
		return
	}
	if err := s.Image.Dir.PushDir(firstCluster); err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("entering directory %q: %w", path, err))
		return
	}
	s.scanDir(path, errs)
	s.Image.Dir.UpDir()
}

func (s *Scanner) addFile(name, path string, size uint64, errs **multierror.Error) {
	var reader vfat.HostReader
	if size > 0 {
		r, err := s.Hosts.Reader(path)
		if err != nil {
			*errs = multierror.Append(*errs, fmt.Errorf("%w: %q: %v", vfat.ErrHostIO, path, err))
			s.log.Warn("file will read as zeros", "path", path, "err", err)
			reader = zeroReader{}
		} else {
			reader = r
		}
	}

	if _, err := s.Image.Dir.AddFile(name, path, size, false, reader); err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("adding file %q: %w", path, err))
	}
}

// zeroReader is used when a file could not be opened at all: the
// directory entry and FAT chain are still synthesized (so directory
// listings are complete), but reads degrade to zero-fill rather than
// aborting the build.
type zeroReader struct{}

func (zeroReader) ReadAt(p []byte, off int64) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
