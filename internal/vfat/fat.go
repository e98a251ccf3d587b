package vfat

import "encoding/binary"

// FAT32 chain markers. The high nibble of every 32-bit entry is reserved
// and must be masked off/ignored by readers; this implementation always
// writes it as zero.
const (
	fatEntryMask = 0x0FFFFFFF
	fatEOC       = 0x0FFFFFFF
	fatFree      = 0x00000000
)

// FatAllocator tracks the next unused cluster and writes cluster chains
// directly into the FAT's backing buffer. It is a monotone bump allocator:
// clusters are never freed or reused, matching vsfat's fat_find_free/
// fat_new_file, which never runs a delete path.
//
// The buffer (not a derived []uint32 slice) is the single source of truth:
// Bytes returns it by reference, so the AddressMap region installed once at
// build time keeps reflecting every later allocation without re-installing
// anything.
type FatAllocator struct {
	buf  []byte // little-endian 32-bit entries, 4 bytes each
	next uint32 // next candidate cluster, starts at 3 (0,1 reserved; 2 is root)
}

// NewFatAllocator creates an allocator over entryCount 32-bit FAT entries,
// with cluster 2 already marked as the (single-cluster, for now) root
// directory's end-of-chain entry.
func NewFatAllocator(entryCount uint32) *FatAllocator {
	fa := &FatAllocator{
		buf:  make([]byte, uint64(entryCount)*4),
		next: 3,
	}
	fa.set(0, 0x0FFFFFF8) // media descriptor byte replicated + reserved bits set
	fa.set(1, 0x0FFFFFFF) // clean-shutdown bit set
	fa.set(2, fatEOC)     // root directory, single cluster until grown
	return fa
}

func (fa *FatAllocator) get(i uint32) uint32 {
	return binary.LittleEndian.Uint32(fa.buf[i*4:])
}

func (fa *FatAllocator) set(i uint32, v uint32) {
	binary.LittleEndian.PutUint32(fa.buf[i*4:], v)
}

func (fa *FatAllocator) len() uint32 {
	return uint32(len(fa.buf) / 4)
}

// Entries decodes the whole FAT into a []uint32 snapshot, for inspection
// and tests. It is not used on the hot allocation path.
func (fa *FatAllocator) Entries() []uint32 {
	out := make([]uint32, fa.len())
	for i := range out {
		out[i] = fa.get(uint32(i))
	}
	return out
}

// Bytes returns the little-endian byte encoding of the whole FAT, by
// reference: both FAT copies installed in the AddressMap alias this same
// buffer, so they (and any later reader) always see the allocator's
// current state.
func (fa *FatAllocator) Bytes() []byte {
	return fa.buf
}

// findFree advances fa.next past every already-used entry and returns the
// first free cluster number, or ErrAllocExhausted if none remain. This
// mirrors fat_find_free's linear scan; because allocation is monotone the
// scan never needs to look behind fa.next.
func (fa *FatAllocator) findFree() (uint32, error) {
	for fa.next < fa.len() {
		if fa.get(fa.next) == fatFree {
			return fa.next, nil
		}
		fa.next++
	}
	return 0, ErrAllocExhausted
}

// Peek returns the cluster number that the next ReserveChain (or
// AllocateChainForSize) call would start from, without consuming it.
func (fa *FatAllocator) Peek() (uint32, error) {
	return fa.findFree()
}

// ReserveChain allocates a chain of exactly clusterCount clusters starting
// at the first free cluster, links them, and terminates the chain with the
// EOC marker. It returns the first cluster of the chain. clusterCount must
// be at least 1 — every file and every directory consumes at least one
// cluster, even when empty.
func (fa *FatAllocator) ReserveChain(clusterCount uint32) (uint32, error) {
	if clusterCount == 0 {
		clusterCount = 1
	}

	first, err := fa.findFree()
	if err != nil {
		return 0, err
	}

	cur := first
	for i := uint32(1); i < clusterCount; i++ {
		fa.next = cur + 1
		nxt, err := fa.findFree()
		if err != nil {
			return 0, err
		}
		fa.set(cur, nxt&fatEntryMask)
		cur = nxt
	}
	fa.set(cur, fatEOC)
	fa.next = cur + 1
	return first, nil
}

// AllocateChainForSize reserves enough whole clusters to hold byteLength
// bytes (minimum one cluster) and returns the first cluster.
func (fa *FatAllocator) AllocateChainForSize(byteLength uint64, clusterSize uint64) (uint32, error) {
	n := ClustersNeeded(byteLength, clusterSize)
	return fa.ReserveChain(n)
}

// ExtendChain appends one freshly allocated cluster to the chain currently
// ending at lastClus, and returns the new cluster. Used by DirBuilder when
// a directory's current final cluster runs out of free entry slots.
func (fa *FatAllocator) ExtendChain(lastClus uint32) (uint32, error) {
	next, err := fa.findFree()
	if err != nil {
		return 0, err
	}
	fa.set(lastClus, next&fatEntryMask)
	fa.set(next, fatEOC)
	fa.next = next + 1
	return next, nil
}

// ClustersNeeded returns ceil(byteLength / clusterSize), with a floor of 1:
// even a zero-length file occupies one cluster in this design.
func ClustersNeeded(byteLength uint64, clusterSize uint64) uint32 {
	if byteLength == 0 {
		return 1
	}
	n := (byteLength + clusterSize - 1) / clusterSize
	return uint32(n)
}
