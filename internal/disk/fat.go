package disk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// --- Constants ---

// Common Boot Sector Size
const Fat1xBootSectorSize = 0x200 // 512 bytes

// FatBootSector represents the FAT partition boot sector (BIOS Parameter Block - BPB).
// This struct maps to the C `struct fat_boot_sector`.
// Most multi-byte fields are Go integers decoded little-endian by binary.Read;
// RootCluster and BSVolID are kept as byte arrays and decoded explicitly.
type FatBootSector struct {
	Ignored           [3]byte // 0x00 Boot strap short or near jump
	SystemID          [8]int8 // 0x03 Name - can be used to special case partition manager volumes
	SectorSize        uint16  // 0x0B Bytes per logical sector (uint16_t)
	SectorsPerCluster uint8   // 0x0D Sectors/cluster
	Reserved          uint16  // 0x0E Reserved sectors (uint16_t)
	Fats              uint8   // 0x10 Number of FATs
	DirEntries        uint16  // 0x11 Root directory entries (uint16_t)
	Sectors           uint16  // 0x13 Number of sectors (uint16_t)
	Media             uint8   // 0x15 Media code (unused)
	FatLength         uint16  // 0x16 Sectors/FAT (uint16_t)
	SecsTrack         uint16  // 0x18 Sectors per track (uint16_t)
	Heads             uint16  // 0x1A Number of heads (uint16_t)
	Hidden            uint32  // 0x1C Hidden sectors (unused, uint32_t)
	TotalSect         uint32  // 0x20 Total number of sectors (if sectors == 0, uint32_t)

	// The following fields are only used by FAT32
	Fat32Length  uint32   // 0x24 Sectors/FAT (uint32_t)
	Flags        uint16   // 0x28 Bit 8: FAT mirroring, low 4: active FAT (uint16_t)
	Version      uint16   // 0x2A Major, minor filesystem version (uint8_t[2])
	RootCluster  [4]byte  // 0x2C First cluster in root directory (uint32_t)
	InfoSector   uint16   // 0x30 Filesystem info sector (uint16_t)
	BackupBoot   uint16   // 0x32 Backup boot sector (uint16_t)
	BPBReserved  [12]byte // 0x34 Unused (uint8_t[12])
	BSDrvNum     uint8    // 0x40 Drive number
	BSReserved1  uint8    // 0x41 Reserved
	BSBootSig    uint8    // 0x42 Extended boot signature (0x29)
	BSVolID      [4]byte  // 0x43 Volume serial number (uint32_t)
	BSVolLab     [11]byte // 0x47 Volume label
	BSFilSysType [8]byte  // 0x52 Filesystem type ("FAT12   ", "FAT16   ", "FAT32   ")

	// Rest of the boot sector padding and marker
	Nothing [420]byte // 0x5A Padding
	Marker  uint16    // 0x1FE Boot sector signature (0xAA55, uint16_t)
}

// ReadRootCluster returns the first cluster of the root directory (for FAT32).
func (b *FatBootSector) ReadRootCluster() uint32 {
	return binary.LittleEndian.Uint32(b.RootCluster[:])
}

func ReadFatBootSectorFrom(data []byte) (*FatBootSector, error) {
	if len(data) != Fat1xBootSectorSize {
		return nil, fmt.Errorf("input data slice size mismatch: expected %d bytes, got %d bytes",
			Fat1xBootSectorSize, len(data))
	}

	var bs FatBootSector
	r := bytes.NewReader(data)

	err := binary.Read(r, binary.LittleEndian, &bs)
	if err != nil {
		return nil, fmt.Errorf("error reading into FatBootSector with binary.Read: %w", err)
	}

	if bs.Marker != 0xAA55 {
		return nil, fmt.Errorf("invalid boot sector marker: expected 0xAA55, got 0x%04X", bs.Marker)
	}
	return &bs, nil
}

// NewFat32BootSector builds a FAT32 boot sector (BPB + extended BPB) ready to
// be serialized with Bytes(). Geometry comes from the arguments; everything
// else is fixed: jump bytes, media 0xF8, drive 0x80, the vsfat identity
// fields (OEM name, volume label, filesystem type) and the two boot-sector
// signatures.
func NewFat32BootSector(sectorSize uint16, secPerClus uint8, rsvdSecCnt uint16,
	numFATs uint8, totSec32 uint32, fatSz32 uint32, rootClus uint32,
	fsInfoSec uint16, bkBootSec uint16, volumeSerial uint32) *FatBootSector {

	bs := &FatBootSector{
		Ignored:           [3]byte{0xEB, 0x58, 0x90},
		SectorSize:        sectorSize,
		SectorsPerCluster: secPerClus,
		Reserved:          rsvdSecCnt,
		Fats:              numFATs,
		DirEntries:        0, // FAT32 has no fixed-size root directory
		Sectors:           0, // total sector count lives in TotalSect for FAT32
		Media:             0xF8,
		FatLength:         0, // FAT32 uses Fat32Length instead
		TotalSect:         totSec32,
		Fat32Length:       fatSz32,
		Flags:             0, // both FATs mirrored, FAT #0 active
		Version:           0,
		InfoSector:        fsInfoSec,
		BackupBoot:        bkBootSec,
		BSDrvNum:          0x80,
		BSBootSig:         0x29,
	}
	for i, c := range []byte("VSFAT1.0") {
		bs.SystemID[i] = int8(c)
	}
	binary.LittleEndian.PutUint32(bs.RootCluster[:], rootClus)
	binary.LittleEndian.PutUint32(bs.BSVolID[:], volumeSerial)
	copy(bs.BSVolLab[:], []byte("VSFATFS    "))
	copy(bs.BSFilSysType[:], []byte("FAT32   "))
	bs.Marker = 0xAA55
	return bs
}

// Bytes serializes the boot sector back into its 512-byte on-disk form.
func (b *FatBootSector) Bytes() []byte {
	buf := &bytes.Buffer{}
	buf.Grow(Fat1xBootSectorSize)
	// binary.Write never fails for a struct of fixed-size fields.
	_ = binary.Write(buf, binary.LittleEndian, b)
	out := buf.Bytes()
	if len(out) != Fat1xBootSectorSize {
		panic(fmt.Sprintf("internal error: boot sector serialized to %d bytes, want %d", len(out), Fat1xBootSectorSize))
	}
	return out
}
