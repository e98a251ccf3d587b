package vfat

import "encoding/binary"

// Directory entry attribute bits (vsfat.h / the FAT32 spec).
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID // 0x0F
)

const (
	dirEntrySize     = 32
	lfnLastLogical   = 0x40
	lfnSeqMask       = 0x1F
	deletedEntryByte = 0xE5
)

// ShortDirEntry is the 32-byte packed short (8.3) directory entry, laid
// out exactly as the reference implementation's DirEntry (vsfat.h) and
// the generalized FAT32 entry format in dargueta/disko's RawDirent.
type ShortDirEntry struct {
	Name         [8]byte
	Ext          [3]byte
	Attr         uint8
	NTRes        uint8
	CrtTimeTenth uint8
	CrtTime      uint16
	CrtDate      uint16
	LstAccDate   uint16
	FstClusHI    uint16
	WrtTime      uint16
	WrtDate      uint16
	FstClusLO    uint16
	FileSize     uint32
}

// FirstCluster reassembles the full 32-bit cluster number from the split
// high/low halves.
func (e *ShortDirEntry) FirstCluster() uint32 {
	return uint32(e.FstClusHI)<<16 | uint32(e.FstClusLO)
}

// SetFirstCluster splits a 32-bit cluster number into FstClusHI/FstClusLO.
func (e *ShortDirEntry) SetFirstCluster(c uint32) {
	e.FstClusHI = uint16(c >> 16)
	e.FstClusLO = uint16(c & 0xFFFF)
}

// Bytes serializes the entry to its 32-byte on-disk form.
func (e *ShortDirEntry) Bytes() []byte {
	buf := make([]byte, dirEntrySize)
	copy(buf[0:8], e.Name[:])
	copy(buf[8:11], e.Ext[:])
	buf[11] = e.Attr
	buf[12] = e.NTRes
	buf[13] = e.CrtTimeTenth
	binary.LittleEndian.PutUint16(buf[14:16], e.CrtTime)
	binary.LittleEndian.PutUint16(buf[16:18], e.CrtDate)
	binary.LittleEndian.PutUint16(buf[18:20], e.LstAccDate)
	binary.LittleEndian.PutUint16(buf[20:22], e.FstClusHI)
	binary.LittleEndian.PutUint16(buf[22:24], e.WrtTime)
	binary.LittleEndian.PutUint16(buf[24:26], e.WrtDate)
	binary.LittleEndian.PutUint16(buf[26:28], e.FstClusLO)
	binary.LittleEndian.PutUint32(buf[28:32], e.FileSize)
	return buf
}

// NewShortDirEntry builds a short entry from an encoded short name,
// attribute byte, first cluster and file size. Timestamps are left at the
// fixed default (zero) — per-file timestamps beyond a fixed default are an
// explicit non-goal.
func NewShortDirEntry(short ShortName, attr uint8, firstCluster uint32, size uint32) *ShortDirEntry {
	e := &ShortDirEntry{Attr: attr, FileSize: size}
	copy(e.Name[:], short[0:8])
	copy(e.Ext[:], short[8:11])
	e.SetFirstCluster(firstCluster)
	return e
}

// LFNDirEntry is the 32-byte packed long-file-name entry, as laid out in
// vsfat.h's LDirEntry / LfnEntry.
type LFNDirEntry struct {
	Ord       uint8
	Name1     [5]uint16
	Attr      uint8
	Type      uint8
	Chksum    uint8
	Name2     [6]uint16
	FstClusLO uint16 // always zero for LFN entries
	Name3     [2]uint16
}

// Bytes serializes the LFN entry to its 32-byte on-disk form.
func (e *LFNDirEntry) Bytes() []byte {
	buf := make([]byte, dirEntrySize)
	buf[0] = e.Ord
	for i, u := range e.Name1 {
		binary.LittleEndian.PutUint16(buf[1+2*i:], u)
	}
	buf[11] = e.Attr
	buf[12] = e.Type
	buf[13] = e.Chksum
	for i, u := range e.Name2 {
		binary.LittleEndian.PutUint16(buf[14+2*i:], u)
	}
	binary.LittleEndian.PutUint16(buf[26:28], e.FstClusLO)
	for i, u := range e.Name3 {
		binary.LittleEndian.PutUint16(buf[28+2*i:], u)
	}
	return buf
}

// BuildLFNEntries constructs the ordered (lowest sequence number first)
// chain of LFN entries for chars, checksummed against short. In the last
// logical entry (highest sequence number, written at the lowest offset)
// the slot right after the name is NUL and the remaining slots are
// 0xFFFF-filled per the FAT spec; a name that ends exactly on an entry
// boundary gets neither.
//
// The caller must write these entries to disk in *reverse* index order
// (entries[len-1] first, i.e. highest sequence number / last-logical
// first), matching add_file's construction loop in fatfiles.c.
func BuildLFNEntries(chars []uint16, short ShortName) []*LFNDirEntry {
	n := LFNEntryCount(len(chars))
	if n == 0 {
		return nil
	}
	chksum := LFNChecksum(short)

	entries := make([]*LFNDirEntry, n)
	for i := 0; i < n; i++ {
		e := &LFNDirEntry{Attr: AttrLongName, Chksum: chksum}
		seq := uint8(i + 1)
		if i == n-1 {
			seq |= lfnLastLogical
		}
		e.Ord = seq

		start := i * 13
		fillLFNChars(e, chars, start)
		entries[i] = e
	}
	return entries
}

// fillLFNChars populates one LFN entry's 13 character slots starting at
// chars[start], NUL-terminating the name and 0xFFFF-padding the rest.
func fillLFNChars(e *LFNDirEntry, chars []uint16, start int) {
	slot := make([]uint16, 13)
	terminated := false
	for i := 0; i < 13; i++ {
		idx := start + i
		switch {
		case idx < len(chars):
			slot[i] = chars[idx]
		case idx == len(chars) && !terminated:
			slot[i] = 0x0000
			terminated = true
		default:
			slot[i] = 0xFFFF
		}
	}
	copy(e.Name1[:], slot[0:5])
	copy(e.Name2[:], slot[5:11])
	copy(e.Name3[:], slot[11:13])
}
