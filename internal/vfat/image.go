package vfat

import (
	"encoding/binary"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/sscafiti/vsfat/internal/disk"
)

// fsInfoSector and backupBootSector mirror setup.c's fixed BPB_FSInfo=1,
// BPB_BkBootSec=6.
const (
	fsInfoSector     = 1
	backupBootSector = 6
)

// ImageBuilder assembles the fixed, non-file-data parts of a synthesized
// FAT32 image: the MBR, the boot sector and its backup, the FSInfo sector,
// and the (shared-buffer) dual FAT copies. It mirrors setup.c's
// build_mbr/build_boot_sector/build_root_dir.
type ImageBuilder struct {
	Geo Geometry
	Fat *FatAllocator
	Map *AddressMap
	Dir *DirBuilder

	log *slog.Logger
}

// NewImageBuilder wires together a fresh Geometry/FatAllocator/AddressMap/
// DirBuilder quartet and installs the fixed disk artifacts into the
// AddressMap, ready for a scanner to start calling Dir.AddFile.
func NewImageBuilder(geo Geometry, log *slog.Logger) *ImageBuilder {
	if log == nil {
		log = slog.Default()
	}
	amap := NewAddressMap(log)
	fat := NewFatAllocator(geo.FATEntriesPerFAT())
	dir := NewDirBuilder(geo, fat, amap, log)

	ib := &ImageBuilder{Geo: geo, Fat: fat, Map: amap, Dir: dir, log: log}
	ib.installMBR()
	ib.installBootSectors()
	ib.installFSInfo()
	ib.installFAT()

	log.Info("synthesized image geometry",
		"disk_size", humanize.Bytes(geo.DiskSizeBytes()),
		"cluster_size", humanize.Bytes(geo.ClusterSize()),
		"data_clusters", geo.DataClusterCount(),
		"fat_sectors", geo.FATSizeSectors)
	return ib
}

func (ib *ImageBuilder) installMBR() {
	startLBA := uint32(ib.Geo.PartitionBase / uint64(ib.Geo.BytesPerSector))
	mbr := disk.NewFat32MBR(0x564b4653, startLBA, ib.Geo.TotalPartitionSectors()) // "VKFS" as a fixed disk signature
	ib.Map.AddMem(0, mbr.Bytes())
}

func (ib *ImageBuilder) installBootSectors() {
	bs := disk.NewFat32BootSector(
		uint16(ib.Geo.BytesPerSector),
		uint8(ib.Geo.SectorsPerCluster),
		uint16(ib.Geo.ReservedSectors),
		uint8(ib.Geo.NumFATs),
		ib.Geo.TotalPartitionSectors(),
		ib.Geo.FATSizeSectors,
		ib.Geo.RootCluster,
		fsInfoSector,
		backupBootSector,
		0x564b4653,
	)
	raw := bs.Bytes()
	ib.Map.AddMem(ib.Geo.AddressFromFATSec(0), raw)
	ib.Map.AddMem(ib.Geo.AddressFromFATSec(backupBootSector), append([]byte(nil), raw...))
}

func (ib *ImageBuilder) installFSInfo() {
	buf := make([]byte, ib.Geo.BytesPerSector)
	binary.LittleEndian.PutUint32(buf[0:4], 0x41615252)   // lead signature
	binary.LittleEndian.PutUint32(buf[484:488], 0x61417272) // struct signature
	binary.LittleEndian.PutUint32(buf[488:492], 0)          // free cluster count; FSInfo accounting is a non-goal
	binary.LittleEndian.PutUint32(buf[492:496], 0)          // next free cluster hint
	binary.LittleEndian.PutUint32(buf[508:512], 0xAAAA5555) // trail signature
	ib.Map.AddMem(ib.Geo.AddressFromFATSec(fsInfoSector), buf)
}

func (ib *ImageBuilder) installFAT() {
	fatBytes := ib.Fat.Bytes()
	for n := uint32(0); n < ib.Geo.NumFATs; n++ {
		ib.Map.AddMem(ib.Geo.AddressFromFATSec(ib.Geo.FATLocation(n)), fatBytes)
	}
}
