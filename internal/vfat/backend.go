package vfat

import (
	"fmt"
	"log/slog"
)

// BlockBackend answers the five callbacks a block-device transport needs
// (read, write, flush, trim, disc) over a built, frozen AddressMap. It is
// the generalization of the teacher's FUSE File.Read offset/size clamping
// to raw, transport-agnostic block semantics.
type BlockBackend struct {
	Map      *AddressMap
	DiskSize uint64
	log      *slog.Logger
}

// NewBlockBackend wraps an already-built AddressMap for serving.
func NewBlockBackend(amap *AddressMap, diskSize uint64, log *slog.Logger) *BlockBackend {
	if log == nil {
		log = slog.Default()
	}
	return &BlockBackend{Map: amap, DiskSize: diskSize, log: log}
}

// ReadAt fills buf with DiskSize-aware, zero-padded bytes starting at off.
// Requests that run past the end of the disk are clamped; the unreadable
// tail is left zeroed rather than returned as an error, matching the
// teacher's FUSE Read clamping near EOF.
func (b *BlockBackend) ReadAt(buf []byte, off uint64) {
	if off >= b.DiskSize {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	avail := b.DiskSize - off
	if uint64(len(buf)) <= avail {
		b.Map.Read(buf, off)
		return
	}
	b.Map.Read(buf[:avail], off)
	for i := avail; i < uint64(len(buf)); i++ {
		buf[i] = 0
	}
}

// WriteAt refuses writes beyond the declared disk span and silently drops
// writes within it: this is a read-only synthesized volume by design.
func (b *BlockBackend) WriteAt(off uint64, length uint64) error {
	if off+length > b.DiskSize {
		return fmt.Errorf("%w: offset %d length %d disk size %d", ErrWriteRefused, off, length, b.DiskSize)
	}
	b.log.Debug("write ignored on read-only synthesized volume", "offset", off, "length", length)
	return nil
}

// Flush is a no-op: nothing is ever buffered for write.
func (b *BlockBackend) Flush() error { return nil }

// Trim is a no-op: there is no free-space tracking to update.
func (b *BlockBackend) Trim(off, length uint64) error {
	b.log.Debug("trim ignored", "offset", off, "length", length)
	return nil
}

// Disc logs client disconnection; the transport loop exits afterward.
func (b *BlockBackend) Disc() {
	b.log.Info("client disconnected")
}
