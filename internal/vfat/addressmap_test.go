package vfat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/vsfat/internal/vfat"
)

func TestAddressMapReadZeroFillsHoles(t *testing.T) {
	amap := vfat.NewAddressMap(nil)

	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = 0xAA
	}
	amap.Read(buf, 1000)

	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}
}

func TestAddressMapReadOverlaysMemRegion(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	amap.AddMem(100, []byte{1, 2, 3, 4, 5})

	buf := make([]byte, 10)
	amap.Read(buf, 98)

	require.Equal(t, []byte{0, 0, 1, 2, 3, 4, 5, 0, 0, 0}, buf)
}

func TestAddressMapReadSpansMultipleRegions(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	amap.AddMem(0, []byte{1, 1, 1})
	amap.AddMem(3, []byte{2, 2, 2})

	buf := make([]byte, 6)
	amap.Read(buf, 0)

	require.Equal(t, []byte{1, 1, 1, 2, 2, 2}, buf)
}

func TestAddressMapAddMemAliasesBuffer(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	backing := []byte{9, 9, 9}
	amap.AddMem(0, backing)

	backing[1] = 42

	buf := make([]byte, 3)
	amap.Read(buf, 0)
	require.Equal(t, byte(42), buf[1])
}

type fakeHostReader struct {
	data []byte
	err  error
}

func (f *fakeHostReader) ReadAt(p []byte, off int64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := copy(p, f.data[off:])
	return n, nil
}

func TestAddressMapReadHostFileRegion(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	host := &fakeHostReader{data: []byte("hello world")}
	amap.AddHostFile(50, uint64(len(host.data)), "/fake/path", host)

	buf := make([]byte, len(host.data))
	amap.Read(buf, 50)
	require.Equal(t, "hello world", string(buf))
}

func TestAddressMapReadHostFileErrorServesZero(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	host := &fakeHostReader{err: errors.New("boom")}
	amap.AddHostFile(0, 4, "/fake/path", host)

	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	amap.Read(buf, 0)
	require.Equal(t, []byte{0, 0, 0, 0}, buf)
}

func TestAddressMapAddMemIgnoresEmptyBuffer(t *testing.T) {
	amap := vfat.NewAddressMap(nil)
	amap.AddMem(0, nil)

	buf := []byte{1, 2, 3}
	amap.Read(buf, 0)
	require.Equal(t, []byte{0, 0, 0}, buf)
}
