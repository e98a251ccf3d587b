// Package nbd attaches a vfat.BlockBackend to a Linux kernel /dev/nbd*
// block device. It is the concrete, runnable stand-in for the spec's
// "kernel-pluggable network block device" transport: vfat never imports
// this package, so the core stays transport-agnostic.
//
// Grounded on the reference implementation's buse.h (struct
// buse_operations, buse_main) for the callback shape, and on the
// teacher's own raw Linux ioctl pattern in internal/disk/stat.go
// (BLKSSZGET/BLKGETSIZE64 via syscall.Syscall), generalized here to
// golang.org/x/sys/unix, which the teacher already depends on.
package nbd

import "encoding/binary"

// Kernel NBD ioctl numbers (linux/nbd.h), encoded the same way the kernel
// header's _IO(0xab, n) macro does: (0xab << 8) | n.
const (
	ioctlSetSock       = 0xab00
	ioctlSetBlkSize    = 0xab01
	ioctlSetSize       = 0xab02
	ioctlDoIt          = 0xab03
	ioctlClearSock     = 0xab04
	ioctlClearQueue    = 0xab05
	ioctlSetSizeBlocks = 0xab07
	ioctlDisconnect    = 0xab08
	ioctlSetTimeout    = 0xab09
	ioctlSetFlags      = 0xab0a
)

// Wire magic numbers and command types for the raw (old-style) NBD
// request/reply protocol the kernel module speaks once NBD_DO_IT is armed
// — no handshake is needed at this layer, because geometry was already
// configured via the ioctls above.
const (
	requestMagic = 0x25609513
	replyMagic   = 0x67446698

	cmdRead  = 0
	cmdWrite = 1
	cmdDisc  = 2
	cmdFlush = 3
	cmdTrim  = 4
)

const requestHeaderSize = 28 // magic(4) + type(4) + handle(8) + from(8) + len(4)
const replyHeaderSize = 16   // magic(4) + error(4) + handle(8)

type request struct {
	magic  uint32
	typ    uint32
	handle uint64
	from   uint64
	length uint32
}

func parseRequest(buf []byte) request {
	return request{
		magic:  binary.BigEndian.Uint32(buf[0:4]),
		typ:    binary.BigEndian.Uint32(buf[4:8]),
		handle: binary.BigEndian.Uint64(buf[8:16]),
		from:   binary.BigEndian.Uint64(buf[16:24]),
		length: binary.BigEndian.Uint32(buf[24:28]),
	}
}

func putReplyHeader(buf []byte, errno uint32, handle uint64) {
	binary.BigEndian.PutUint32(buf[0:4], replyMagic)
	binary.BigEndian.PutUint32(buf[4:8], errno)
	binary.BigEndian.PutUint64(buf[8:16], handle)
}
