package nbd

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRequestDecodesBigEndianHeader(t *testing.T) {
	buf := make([]byte, requestHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], requestMagic)
	binary.BigEndian.PutUint32(buf[4:8], cmdWrite)
	binary.BigEndian.PutUint64(buf[8:16], 0xdeadbeef)
	binary.BigEndian.PutUint64(buf[16:24], 4096)
	binary.BigEndian.PutUint32(buf[24:28], 512)

	req := parseRequest(buf)
	require.Equal(t, uint32(requestMagic), req.magic)
	require.Equal(t, uint32(cmdWrite), req.typ)
	require.Equal(t, uint64(0xdeadbeef), req.handle)
	require.Equal(t, uint64(4096), req.from)
	require.Equal(t, uint32(512), req.length)
}

func TestPutReplyHeaderEncodesBigEndian(t *testing.T) {
	buf := make([]byte, replyHeaderSize)
	putReplyHeader(buf, 7, 0x1122334455667788)

	require.Equal(t, uint32(replyMagic), binary.BigEndian.Uint32(buf[0:4]))
	require.Equal(t, uint32(7), binary.BigEndian.Uint32(buf[4:8]))
	require.Equal(t, uint64(0x1122334455667788), binary.BigEndian.Uint64(buf[8:16]))
}

func TestIoctlConstantsMatchKernelEncoding(t *testing.T) {
	// linux/nbd.h defines these via _IO(0xab, n); confirm our literals
	// match that encoding rather than drifting from a typo.
	require.Equal(t, uint(0xab00), uint(ioctlSetSock))
	require.Equal(t, uint(0xab03), uint(ioctlDoIt))
	require.Equal(t, uint(0xab07), uint(ioctlSetSizeBlocks))
}
