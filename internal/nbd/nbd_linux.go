//go:build linux
// +build linux

package nbd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/sscafiti/vsfat/internal/disk"
	"github.com/sscafiti/vsfat/internal/vfat"
)

// Server attaches a vfat.BlockBackend to a kernel NBD device node and
// serves requests until the kernel disconnects (NBD_DO_IT returns).
type Server struct {
	Device    string
	Backend   *vfat.BlockBackend
	BlockSize uint32
	log       *slog.Logger
}

// NewServer builds a server bound to an already-open backend. blockSize
// must divide the backend's disk size evenly; disk.DefaultBlocksize is
// always safe.
func NewServer(device string, backend *vfat.BlockBackend, blockSize uint32, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if blockSize == 0 {
		blockSize = disk.DefaultBlocksize
	}
	return &Server{Device: device, Backend: backend, BlockSize: blockSize, log: log}
}

// Run configures the device's geometry, arms it with one half of a
// socketpair, serves requests on the other half in the background, and
// blocks in NBD_DO_IT until the device is disconnected.
func (s *Server) Run() error {
	dev, err := os.OpenFile(s.Device, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("nbd: opening %s: %w", s.Device, err)
	}
	defer dev.Close()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("nbd: socketpair: %w", err)
	}
	kernelSide := fds[0]
	serverSide := fds[1]

	if err := ioctlInt(dev.Fd(), ioctlSetBlkSize, uintptr(s.BlockSize)); err != nil {
		return fmt.Errorf("nbd: NBD_SET_BLKSIZE: %w", err)
	}
	sizeBlocks := s.Backend.DiskSize / uint64(s.BlockSize)
	if err := ioctlInt(dev.Fd(), ioctlSetSizeBlocks, uintptr(sizeBlocks)); err != nil {
		return fmt.Errorf("nbd: NBD_SET_SIZE_BLOCKS: %w", err)
	}
	if err := ioctlInt(dev.Fd(), ioctlSetSock, uintptr(kernelSide)); err != nil {
		return fmt.Errorf("nbd: NBD_SET_SOCK: %w", err)
	}

	conn := os.NewFile(uintptr(serverSide), "nbd-server-side")
	defer conn.Close()

	done := make(chan error, 1)
	go func() { done <- s.serve(conn) }()

	s.log.Info("attaching nbd device", "device", s.Device, "disk_size", s.Backend.DiskSize, "block_size", s.BlockSize)

	if err := ioctlInt(dev.Fd(), ioctlDoIt, 0); err != nil {
		s.log.Warn("NBD_DO_IT returned", "err", err)
	}

	_ = ioctlInt(dev.Fd(), ioctlClearQueue, 0)
	_ = ioctlInt(dev.Fd(), ioctlClearSock, 0)

	s.Backend.Disc()
	return <-done
}

// serve reads request frames off conn and answers them against the
// backend until the connection closes or a CMD_DISC request arrives.
// This is the Go counterpart of buse_main's server loop dispatching into
// buse_operations.read/write/disc/flush/trim.
func (s *Server) serve(conn io.ReadWriter) error {
	hdr := make([]byte, requestHeaderSize)
	for {
		if _, err := io.ReadFull(conn, hdr); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("nbd: reading request header: %w", err)
		}

		req := parseRequest(hdr)
		if req.magic != requestMagic {
			return fmt.Errorf("nbd: bad request magic 0x%x", req.magic)
		}

		switch req.typ {
		case cmdRead:
			if err := s.handleRead(conn, req); err != nil {
				return err
			}
		case cmdWrite:
			if err := s.handleWrite(conn, req); err != nil {
				return err
			}
		case cmdFlush:
			err := s.Backend.Flush()
			if err := s.reply(conn, errno(err), req.handle); err != nil {
				return err
			}
		case cmdTrim:
			err := s.Backend.Trim(req.from, uint64(req.length))
			if err := s.reply(conn, errno(err), req.handle); err != nil {
				return err
			}
		case cmdDisc:
			return nil
		default:
			if err := s.reply(conn, uint32(unix.EINVAL), req.handle); err != nil {
				return err
			}
		}
	}
}

func (s *Server) handleRead(conn io.ReadWriter, req request) error {
	buf := make([]byte, replyHeaderSize+int(req.length))
	putReplyHeader(buf, 0, req.handle)
	s.Backend.ReadAt(buf[replyHeaderSize:], req.from)
	_, err := conn.Write(buf)
	return err
}

func (s *Server) handleWrite(conn io.ReadWriter, req request) error {
	payload := make([]byte, req.length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return fmt.Errorf("nbd: reading write payload: %w", err)
	}
	err := s.Backend.WriteAt(req.from, uint64(req.length))
	return s.reply(conn, errno(err), req.handle)
}

func (s *Server) reply(conn io.ReadWriter, errno uint32, handle uint64) error {
	buf := make([]byte, replyHeaderSize)
	putReplyHeader(buf, errno, handle)
	_, err := conn.Write(buf)
	return err
}

func errno(err error) uint32 {
	if err == nil {
		return 0
	}
	return uint32(unix.EIO)
}

// ioctlInt issues an ioctl whose third argument is an immediate value
// rather than a pointer to one — the calling convention NBD_SET_SOCK,
// NBD_SET_BLKSIZE, NBD_SET_SIZE_BLOCKS and NBD_DO_IT all use in the
// kernel driver. unix.IoctlSetInt does not fit here: it passes a pointer
// to the value, which is the convention ioctls like TIOCxxx use but NBD
// does not.
func ioctlInt(fd uintptr, req uint, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), arg)
	if errno != 0 {
		return errno
	}
	return nil
}
