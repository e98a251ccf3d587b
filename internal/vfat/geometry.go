package vfat

// Geometry holds the fixed layout parameters of a synthesized FAT32 image
// and converts between byte offsets, sector numbers and cluster numbers.
//
// Field values and the address formulas below are taken directly from the
// vsfat reference implementation's address.c (address_from_fatsec,
// address_from_fatclus, fat_location, clus_from_addr, root_dir_loc).
type Geometry struct {
	BytesPerSector    uint32
	SectorsPerCluster uint32
	ReservedSectors   uint32
	NumFATs           uint32
	FATSizeSectors    uint32
	PartitionBase     uint64 // byte offset of the FAT32 partition on the disk
	RootCluster       uint32 // always 2
}

// DefaultGeometry matches the constants setup.c uses to build its image:
// 512-byte sectors, 8 sectors/cluster (4 KiB clusters), 32 reserved
// sectors, two FAT copies, an 8189-sector FAT (sized for a ~2 TiB volume),
// and a 1 MiB partition offset (sector 2048, the standard modern alignment).
func DefaultGeometry() Geometry {
	return Geometry{
		BytesPerSector:    512,
		SectorsPerCluster: 8,
		ReservedSectors:   32,
		NumFATs:           2,
		FATSizeSectors:    8189,
		PartitionBase:     1 << 20,
		RootCluster:       2,
	}
}

// ClusterSize returns the byte size of one cluster.
func (g Geometry) ClusterSize() uint64 {
	return uint64(g.BytesPerSector) * uint64(g.SectorsPerCluster)
}

// FATEntriesPerFAT returns how many 32-bit entries one FAT copy holds.
func (g Geometry) FATEntriesPerFAT() uint32 {
	return g.FATSizeSectors * g.BytesPerSector / 4
}

// DataClusterCount returns how many data clusters the FAT can address.
// Two entries (0 and 1) are reserved, so usable clusters start at 2.
func (g Geometry) DataClusterCount() uint32 {
	return g.FATEntriesPerFAT() - 2
}

// AddressFromFATSec returns the absolute byte offset of logical FAT-relative
// sector s (a sector number counted from the start of the partition).
func (g Geometry) AddressFromFATSec(s uint64) uint64 {
	return g.PartitionBase + uint64(g.BytesPerSector)*s
}

// FATLocation returns the FAT-relative sector at which FAT copy n (0-based)
// begins.
func (g Geometry) FATLocation(n uint32) uint64 {
	return uint64(g.ReservedSectors) + uint64(g.FATSizeSectors)*uint64(n)
}

// DataLoc returns the FAT-relative sector at which the data region (cluster
// 2) begins, i.e. immediately after all FAT copies.
func (g Geometry) DataLoc() uint64 {
	return g.FATLocation(g.NumFATs)
}

// AddressFromFATClus returns the absolute byte offset of cluster c.
func (g Geometry) AddressFromFATClus(c uint32) uint64 {
	dataBase := g.AddressFromFATSec(g.DataLoc())
	return dataBase + g.ClusterSize()*uint64(c-2)
}

// ClusFromAddr is the inverse of AddressFromFATClus: given an absolute byte
// offset inside the data region, it returns the enclosing cluster number.
// It returns 0 if addr lies before the data region.
func (g Geometry) ClusFromAddr(addr uint64) uint32 {
	dataBase := g.AddressFromFATSec(g.DataLoc())
	if addr < dataBase {
		return 0
	}
	return uint32((addr-dataBase)/g.ClusterSize()) + 2
}

// RootDirLoc returns the first cluster of the root directory. It is always
// equal to BPB_RootClus (cluster 2) in this implementation.
func (g Geometry) RootDirLoc() uint32 {
	return g.RootCluster
}

// TotalDataSectors returns the number of sectors available to the data
// region, given the number of addressable data clusters.
func (g Geometry) TotalDataSectors() uint64 {
	return uint64(g.DataClusterCount()) * uint64(g.SectorsPerCluster)
}

// TotalPartitionSectors returns BPB_TotSec32: reserved + all FAT copies +
// the data region.
func (g Geometry) TotalPartitionSectors() uint32 {
	return g.ReservedSectors + g.NumFATs*g.FATSizeSectors + uint32(g.TotalDataSectors())
}

// DiskSizeBytes returns the total size of the synthesized disk image,
// including the space before the partition (MBR + alignment padding).
func (g Geometry) DiskSizeBytes() uint64 {
	return g.PartitionBase + uint64(g.TotalPartitionSectors())*uint64(g.BytesPerSector)
}
