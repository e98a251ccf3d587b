//go:build linux
// +build linux

package nbd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateBlockDeviceRejectsRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-device")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, _, err := ValidateBlockDevice(path)
	require.Error(t, err)
}

func TestValidateBlockDeviceRejectsMissingPath(t *testing.T) {
	_, _, err := ValidateBlockDevice("/nonexistent/nbd0")
	require.Error(t, err)
}
