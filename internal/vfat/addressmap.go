package vfat

import (
	"log/slog"
)

// HostReader is satisfied by the host-file backing implementation
// (internal/hostmap) and by tests. It reads len(p) bytes starting at off,
// the same contract as io.ReaderAt but without requiring a full read.
type HostReader interface {
	ReadAt(p []byte, off int64) (int, error)
}

// region describes one contiguous span of the synthesized disk image.
// Exactly one of mem or (path != "") is populated, per the AddressRegion
// invariant: either the bytes live in RAM (boot sector, FAT, directory
// clusters) or they are a window into a host file (file data clusters).
type region struct {
	base   uint64
	length uint64
	mem    []byte // non-nil for RAM-backed regions
	path   string // non-empty for host-file-backed regions
	host   HostReader
}

func (r *region) end() uint64 { return r.base + r.length }

// AddressMap is the sparse read backend described in vsfat.c's xmp_read:
// an ordered list of regions, searched linearly on every read, with holes
// served as zero. Regions are append-only; once the image is built, no
// region is ever moved, resized or removed.
type AddressMap struct {
	regions []region
	log     *slog.Logger
}

// NewAddressMap creates an empty map. A nil logger falls back to slog's
// default logger.
func NewAddressMap(log *slog.Logger) *AddressMap {
	if log == nil {
		log = slog.Default()
	}
	return &AddressMap{log: log}
}

// AddMem registers a RAM-backed region. buf is retained by reference, not
// copied: callers that mutate buf after registering it (e.g. DirBuilder
// appending new directory entries into a cluster buffer already installed
// in the map) rely on exactly this aliasing.
func (a *AddressMap) AddMem(base uint64, buf []byte) {
	if len(buf) == 0 {
		return
	}
	a.regions = append(a.regions, region{base: base, length: uint64(len(buf)), mem: buf})
}

// AddHostFile registers a region backed by length bytes of the host file at
// path, read through r (normally a hostmap-mapped file).
func (a *AddressMap) AddHostFile(base uint64, length uint64, path string, r HostReader) {
	if length == 0 {
		return
	}
	a.regions = append(a.regions, region{base: base, length: length, path: path, host: r})
}

// Read services an (offset, len) block request: zero-fill the output, then
// overlay every region that overlaps [offset, offset+len). This mirrors
// xmp_read's three-way overlap test:
//
//	(offset >= base && offset <= base+length) ||
//	(offset+len >= base && offset+len <= base+length) ||
//	(offset <= base && offset+len >= base+length)
//
// i.e. the request starts inside the region, ends inside the region, or
// spans across the whole region. Host I/O failures are logged and leave
// the affected slice zero rather than failing the whole read — a degraded
// response is preferable to refusing the block request outright.
func (a *AddressMap) Read(buf []byte, offset uint64) {
	for i := range buf {
		buf[i] = 0
	}
	reqEnd := offset + uint64(len(buf))

	for i := range a.regions {
		r := &a.regions[i]
		if !overlaps(offset, reqEnd, r.base, r.end()) {
			continue
		}

		// Intersection of [offset, reqEnd) and [r.base, r.end()).
		start := max64(offset, r.base)
		end := min64(reqEnd, r.end())
		if start >= end {
			continue
		}

		dstOff := start - offset
		srcOff := start - r.base
		n := end - start

		switch {
		case r.mem != nil:
			copy(buf[dstOff:dstOff+n], r.mem[srcOff:srcOff+n])
		case r.path != "":
			if _, err := r.host.ReadAt(buf[dstOff:dstOff+n], int64(srcOff)); err != nil {
				a.log.Warn("host file read failed, serving zeros",
					"path", r.path, "offset", srcOff, "length", n, "err", err)
			}
		}
	}
}

func overlaps(reqStart, reqEnd, base, end uint64) bool {
	return (reqStart >= base && reqStart <= end) ||
		(reqEnd >= base && reqEnd <= end) ||
		(reqStart <= base && reqEnd >= end)
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
