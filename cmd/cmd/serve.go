// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sscafiti/vsfat/internal/disk"
	"github.com/sscafiti/vsfat/internal/logger"
	"github.com/sscafiti/vsfat/internal/nbd"
	"github.com/sscafiti/vsfat/internal/scanner"
	"github.com/sscafiti/vsfat/internal/vfat"
)

// DefineServeCommand builds the main "serve" command: synthesize folder
// into an in-memory FAT32 image and attach it to a kernel NBD device.
func DefineServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "serve <nbd-device> <folder>",
		Short:        "Synthesize a folder into a FAT32 image and serve it over an NBD device",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunServe,
	}

	cmd.Flags().Uint32("sectors-per-cluster", 8, "cluster size, in 512-byte sectors")
	cmd.Flags().Uint32("fat-size-sectors", 8189, "sectors per FAT copy")
	cmd.Flags().Int("max-open-files", 256, "bound on the fallback host-file handle cache")
	cmd.Flags().Bool("debug", false, "enable debug logging")

	return cmd
}

func RunServe(cmd *cobra.Command, args []string) error {
	device := disk.NormalizeVolumePath(args[0])
	folder := args[1]

	secPerClus, _ := cmd.Flags().GetUint32("sectors-per-cluster")
	fatSz, _ := cmd.Flags().GetUint32("fat-size-sectors")
	maxOpenFiles, _ := cmd.Flags().GetInt("max-open-files")
	debug, _ := cmd.Flags().GetBool("debug")

	buildLog := logger.New(os.Stderr, logger.InfoLevel)
	if debug {
		buildLog = logger.New(os.Stderr, logger.DebugLevel)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	runtimeLog := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q is not a directory", folder)
	}

	geo := vfat.DefaultGeometry()
	geo.SectorsPerCluster = secPerClus
	geo.FATSizeSectors = fatSz

	buildLog.Infof("synthesizing FAT32 image from %s", folder)
	image := vfat.NewImageBuilder(geo, runtimeLog)

	sc := scanner.New(image, maxOpenFiles, runtimeLog)
	if err := sc.Scan(folder); err != nil {
		buildLog.Warnf("scan completed with errors: %v", err)
	}

	backend := vfat.NewBlockBackend(image.Map, geo.DiskSizeBytes(), runtimeLog)

	if _, _, err := nbd.ValidateBlockDevice(device); err != nil {
		return fmt.Errorf("validating nbd device: %w", err)
	}

	server := nbd.NewServer(device, backend, uint32(geo.BytesPerSector), runtimeLog)
	buildLog.Infof("serving %s over %s", folder, device)
	return server.Run()
}
