package vfat

import "errors"

// Sentinel errors returned by the image builder and block backend.
//
// Build-time errors (allocation exhaustion, oversized directories, name
// collisions, host I/O failures) are never fatal to the whole build: the
// scanner wraps them with file context and either skips the offending entry
// or aggregates them into a multierror, per the "skip and continue" rule.
var (
	// ErrAllocExhausted is returned when the FAT has no more free clusters
	// to satisfy a chain allocation.
	ErrAllocExhausted = errors.New("vfat: cluster allocation exhausted")

	// ErrDirTooLarge is returned when a directory would grow past the
	// 2 MiB / 65536-entry ceiling.
	ErrDirTooLarge = errors.New("vfat: directory entry count exceeds limit")

	// ErrNameCollisionUnresolvable is returned when the ~N short-name
	// disambiguation counter would have to exceed 99.
	ErrNameCollisionUnresolvable = errors.New("vfat: short name collision could not be resolved")

	// ErrPathTooLong is returned by the scanner when a host path component
	// exceeds the 255-character long-name limit.
	ErrPathTooLong = errors.New("vfat: path component too long")

	// ErrHostIO marks a non-fatal failure to open or read a host-backed
	// file region; affected bytes are served as zero.
	ErrHostIO = errors.New("vfat: host file I/O error")

	// ErrWriteRefused is returned by BlockBackend.WriteAt for offsets beyond
	// the declared disk span.
	ErrWriteRefused = errors.New("vfat: write beyond image span refused")
)
