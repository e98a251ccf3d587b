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

	"github.com/sscafiti/vsfat/internal/fuseview"
	"github.com/sscafiti/vsfat/internal/logger"
	"github.com/sscafiti/vsfat/internal/scanner"
	"github.com/sscafiti/vsfat/internal/vfat"
)

// DefineMountCommand builds the "mount" command: synthesize folder in
// memory and browse the result through FUSE, without an NBD device or
// root. It exists for local inspection of a build before attaching it
// to a real block device.
func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mount <folder> <mountpoint>",
		Short:        "Synthesize a folder into a FAT32 image and browse it read-only through FUSE",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().Uint32("sectors-per-cluster", 8, "cluster size, in 512-byte sectors")
	cmd.Flags().Uint32("fat-size-sectors", 8189, "sectors per FAT copy")
	cmd.Flags().Int("max-open-files", 256, "bound on the fallback host-file handle cache")
	cmd.Flags().Bool("debug", false, "enable debug logging")

	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	folder := args[0]
	mountpoint := args[1]

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

	fs := fuseview.New(image.Dir.Tree(), geo, image.Map)

	buildLog.Infof("mounting %s at %s (read-only)", folder, mountpoint)
	return fuseview.Mount(mountpoint, fs)
}
