package vfat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/vsfat/internal/vfat"
)

func TestBlockBackendReadAtWithinSpan(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	amap.AddMem(0, []byte{1, 2, 3, 4})
	b := vfat.NewBlockBackend(amap, 100, nil)

	buf := make([]byte, 4)
	b.ReadAt(buf, 0)
	require.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestBlockBackendReadAtClampsAtDiskEnd(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	amap.AddMem(8, []byte{9, 9})
	b := vfat.NewBlockBackend(amap, 10, nil)

	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = 0xFF
	}
	b.ReadAt(buf, 8)

	require.Equal(t, []byte{9, 9, 0, 0, 0, 0, 0, 0}, buf)
}

func TestBlockBackendReadAtPastDiskEndIsAllZero(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	b := vfat.NewBlockBackend(amap, 10, nil)

	buf := []byte{1, 2, 3}
	b.ReadAt(buf, 20)
	require.Equal(t, []byte{0, 0, 0}, buf)
}

func TestBlockBackendWriteAtWithinSpanIsNoOp(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	b := vfat.NewBlockBackend(amap, 100, nil)

	err := b.WriteAt(0, 10)
	require.NoError(t, err)
}

func TestBlockBackendWriteAtBeyondSpanIsRefused(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	b := vfat.NewBlockBackend(amap, 100, nil)

	err := b.WriteAt(95, 10)
	require.ErrorIs(t, err, vfat.ErrWriteRefused)
}

func TestBlockBackendFlushAndTrimAreNoOps(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	b := vfat.NewBlockBackend(amap, 100, nil)

	require.NoError(t, b.Flush())
	require.NoError(t, b.Trim(0, 10))
}
