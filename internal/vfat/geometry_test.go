package vfat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/vsfat/internal/vfat"
)

func TestGeometryClusterArithmetic(t *testing.T) {
	geo := vfat.DefaultGeometry()

	require.Equal(t, uint64(4096), geo.ClusterSize())
	require.Equal(t, geo.FATEntriesPerFAT()-2, geo.DataClusterCount())

	dataBase := geo.AddressFromFATSec(geo.DataLoc())
	require.Equal(t, dataBase, geo.AddressFromFATClus(2))
	require.Equal(t, dataBase+geo.ClusterSize(), geo.AddressFromFATClus(3))
}

func TestGeometryClusFromAddrRoundTrips(t *testing.T) {
	geo := vfat.DefaultGeometry()

	for _, c := range []uint32{2, 3, 17, 1000} {
		addr := geo.AddressFromFATClus(c)
		require.Equal(t, c, geo.ClusFromAddr(addr))
		require.Equal(t, c, geo.ClusFromAddr(addr+geo.ClusterSize()-1))
	}
}

func TestGeometryClusFromAddrBeforeDataRegion(t *testing.T) {
	geo := vfat.DefaultGeometry()
	require.Equal(t, uint32(0), geo.ClusFromAddr(0))
}

func TestGeometryTotalPartitionSectors(t *testing.T) {
	geo := vfat.DefaultGeometry()
	want := geo.ReservedSectors + geo.NumFATs*geo.FATSizeSectors + uint32(geo.TotalDataSectors())
	require.Equal(t, want, geo.TotalPartitionSectors())
}

func TestGeometryDiskSizeBytesIncludesPartitionBase(t *testing.T) {
	geo := vfat.DefaultGeometry()
	want := geo.PartitionBase + uint64(geo.TotalPartitionSectors())*uint64(geo.BytesPerSector)
	require.Equal(t, want, geo.DiskSizeBytes())
}
