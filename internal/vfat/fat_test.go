package vfat_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/vsfat/internal/vfat"
)

func TestNewFatAllocatorSeedsReservedEntries(t *testing.T) {
	fa := vfat.NewFatAllocator(100)
	entries := fa.Entries()

	require.Equal(t, uint32(0x0FFFFFF8), entries[0])
	require.Equal(t, uint32(0x0FFFFFFF), entries[1])
	require.Equal(t, uint32(0x0FFFFFFF), entries[2]) // root, single cluster, EOC
}

func TestFatAllocatorReserveChainSingleCluster(t *testing.T) {
	fa := vfat.NewFatAllocator(100)

	first, err := fa.ReserveChain(1)
	require.NoError(t, err)
	require.Equal(t, uint32(3), first)
	require.Equal(t, uint32(0x0FFFFFFF), fa.Entries()[first])
}

func TestFatAllocatorReserveChainLinksMultipleClusters(t *testing.T) {
	fa := vfat.NewFatAllocator(100)

	first, err := fa.ReserveChain(4)
	require.NoError(t, err)
	require.Equal(t, uint32(3), first)

	entries := fa.Entries()
	require.Equal(t, uint32(4), entries[3])
	require.Equal(t, uint32(5), entries[4])
	require.Equal(t, uint32(6), entries[5])
	require.Equal(t, uint32(0x0FFFFFFF), entries[6])
}

func TestFatAllocatorExhaustion(t *testing.T) {
	fa := vfat.NewFatAllocator(5) // only clusters 3,4 free

	_, err := fa.ReserveChain(3)
	require.ErrorIs(t, err, vfat.ErrAllocExhausted)
}

func TestFatAllocatorExtendChain(t *testing.T) {
	fa := vfat.NewFatAllocator(100)

	first, err := fa.ReserveChain(1)
	require.NoError(t, err)

	next, err := fa.ExtendChain(first)
	require.NoError(t, err)
	require.Equal(t, uint32(4), next)

	entries := fa.Entries()
	require.Equal(t, next, entries[first])
	require.Equal(t, uint32(0x0FFFFFFF), entries[next])
}

func TestFatAllocatorBytesLittleEndian(t *testing.T) {
	fa := vfat.NewFatAllocator(4)
	buf := fa.Bytes()
	require.Len(t, buf, 16)
	require.Equal(t, uint32(0x0FFFFFF8), binary.LittleEndian.Uint32(buf[0:4]))
}

func TestClustersNeeded(t *testing.T) {
	require.Equal(t, uint32(1), vfat.ClustersNeeded(0, 4096))
	require.Equal(t, uint32(1), vfat.ClustersNeeded(1, 4096))
	require.Equal(t, uint32(1), vfat.ClustersNeeded(4096, 4096))
	require.Equal(t, uint32(2), vfat.ClustersNeeded(4097, 4096))
}
