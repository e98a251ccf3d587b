package vfat_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/vsfat/internal/vfat"
)

func newTestBuilder(t *testing.T) (*vfat.Geometry, *vfat.FatAllocator, *vfat.AddressMap, *vfat.DirBuilder) {
	t.Helper()
	geo := vfat.DefaultGeometry()
	fat := vfat.NewFatAllocator(geo.FATEntriesPerFAT())
	amap := vfat.NewAddressMap(nil)
	db := vfat.NewDirBuilder(geo, fat, amap, nil)
	return &geo, fat, amap, db
}

func TestDirBuilderAddFileRegistersHostRegion(t *testing.T) {
	_, _, amap, db := newTestBuilder(t)

	host := &fakeHostReader{data: []byte("hello")}
	clus, err := db.AddFile("hello.txt", "/host/hello.txt", 5, false, host)
	require.NoError(t, err)
	require.NotZero(t, clus)

	buf := make([]byte, 5)
	geo := vfat.DefaultGeometry()
	amap.Read(buf, geo.AddressFromFATClus(clus))
	require.Equal(t, "hello", string(buf))
}

func TestDirBuilderAddFileRecordsTreeNode(t *testing.T) {
	_, _, _, db := newTestBuilder(t)

	_, err := db.AddFile("hello.txt", "/host/hello.txt", 5, false, &fakeHostReader{data: []byte("hello")})
	require.NoError(t, err)

	tree := db.Tree()
	require.Len(t, tree.Children, 1)
	require.Equal(t, "hello.txt", tree.Children[0].Name)
	require.False(t, tree.Children[0].IsDir)
}

func TestDirBuilderPushDirWritesDotEntries(t *testing.T) {
	geo, _, amap, db := newTestBuilder(t)

	clus, err := db.AddFile("sub", "/host/sub", 0, true, nil)
	require.NoError(t, err)

	require.NoError(t, db.PushDir(clus))
	db.UpDir()

	dots := make([]byte, 64)
	amap.Read(dots, geo.AddressFromFATClus(clus))
	require.Equal(t, ".          ", string(dots[0:11]))
	require.Equal(t, byte(vfat.AttrDirectory), dots[11])
	require.Equal(t, clus, uint32(binary.LittleEndian.Uint16(dots[26:28])))
	require.Equal(t, "..         ", string(dots[32:43]))
	require.Equal(t, byte(vfat.AttrDirectory), dots[32+11])
	require.Equal(t, geo.RootCluster, uint32(binary.LittleEndian.Uint16(dots[32+26:32+28])))

	tree := db.Tree()
	require.Len(t, tree.Children, 1)
	require.True(t, tree.Children[0].IsDir)
	require.Equal(t, clus, tree.Children[0].FirstCluster)
}

func TestDirBuilderUpDirOnRootIsNoOp(t *testing.T) {
	_, _, _, db := newTestBuilder(t)
	db.UpDir()
	db.UpDir()

	_, err := db.AddFile("still-works.txt", "/host/still-works.txt", 0, false, nil)
	require.NoError(t, err)
}

func TestDirBuilderNameCollisionWithinDirectory(t *testing.T) {
	_, _, _, db := newTestBuilder(t)

	_, err := db.AddFile("report.txt", "/host/a/report.txt", 0, false, nil)
	require.NoError(t, err)
	_, err = db.AddFile("REPORT.TXT", "/host/b/REPORT.TXT", 0, false, nil)
	require.NoError(t, err)

	tree := db.Tree()
	require.Len(t, tree.Children, 2)
}
