package vfat_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/vsfat/internal/vfat"
)

func TestNewImageBuilderInstallsMBRSignature(t *testing.T) {
	geo := vfat.DefaultGeometry()
	ib := vfat.NewImageBuilder(geo, nil)

	buf := make([]byte, 512)
	ib.Map.Read(buf, 0)

	require.Equal(t, byte(0x55), buf[510])
	require.Equal(t, byte(0xAA), buf[511])
}

func TestNewImageBuilderInstallsBootSectorAndBackup(t *testing.T) {
	geo := vfat.DefaultGeometry()
	ib := vfat.NewImageBuilder(geo, nil)

	primary := make([]byte, geo.BytesPerSector)
	ib.Map.Read(primary, geo.AddressFromFATSec(0))

	backup := make([]byte, geo.BytesPerSector)
	ib.Map.Read(backup, geo.AddressFromFATSec(6))

	require.Equal(t, primary, backup)
	require.Equal(t, byte(0x55), primary[510])
	require.Equal(t, byte(0xAA), primary[511])
}

func TestNewImageBuilderInstallsFSInfoSignatures(t *testing.T) {
	geo := vfat.DefaultGeometry()
	ib := vfat.NewImageBuilder(geo, nil)

	buf := make([]byte, geo.BytesPerSector)
	ib.Map.Read(buf, geo.AddressFromFATSec(1))

	require.Equal(t, uint32(0x41615252), binary.LittleEndian.Uint32(buf[0:4]))
	require.Equal(t, uint32(0x61417272), binary.LittleEndian.Uint32(buf[484:488]))
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[488:492]), "free cluster count")
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[492:496]), "next free cluster hint")
	require.Equal(t, uint32(0xAAAA5555), binary.LittleEndian.Uint32(buf[508:512]), "trail signature")
}

func TestNewImageBuilderBothFATCopiesAlias(t *testing.T) {
	geo := vfat.DefaultGeometry()
	ib := vfat.NewImageBuilder(geo, nil)

	_, err := ib.Fat.ReserveChain(1)
	require.NoError(t, err)

	fatBytes := ib.Fat.Bytes()

	copy1 := make([]byte, len(fatBytes))
	ib.Map.Read(copy1, geo.AddressFromFATSec(ib.Geo.FATLocation(0)))

	copy2 := make([]byte, len(fatBytes))
	ib.Map.Read(copy2, geo.AddressFromFATSec(ib.Geo.FATLocation(1)))

	require.Equal(t, fatBytes, copy1)
	require.Equal(t, fatBytes, copy2)
}
