//go:build linux
// +build linux

package nbd

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sscafiti/vsfat/internal/vfat"
)

func testBackend(t *testing.T) *vfat.BlockBackend {
	t.Helper()
	amap := vfat.NewAddressMap(nil)
	amap.AddMem(0, []byte("hello, nbd!"))
	return vfat.NewBlockBackend(amap, 4096, nil)
}

func TestServerServeHandlesReadRequest(t *testing.T) {
	backend := testBackend(t)
	server := NewServer("/dev/nbd-test", backend, 512, nil)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	done := make(chan error, 1)
	go func() { done <- server.serve(serverConn) }()

	req := make([]byte, requestHeaderSize)
	binary.BigEndian.PutUint32(req[0:4], requestMagic)
	binary.BigEndian.PutUint32(req[4:8], cmdRead)
	binary.BigEndian.PutUint64(req[8:16], 42)
	binary.BigEndian.PutUint64(req[16:24], 0)
	binary.BigEndian.PutUint32(req[24:28], 11)

	clientConn.SetDeadline(time.Now().Add(5 * time.Second))
	_, err := clientConn.Write(req)
	require.NoError(t, err)

	reply := make([]byte, replyHeaderSize+11)
	_, err = io.ReadFull(clientConn, reply)
	require.NoError(t, err)

	require.Equal(t, uint32(replyMagic), binary.BigEndian.Uint32(reply[0:4]))
	require.Equal(t, uint32(0), binary.BigEndian.Uint32(reply[4:8]))
	require.Equal(t, uint64(42), binary.BigEndian.Uint64(reply[8:16]))
	require.Equal(t, "hello, nbd!", string(reply[replyHeaderSize:]))

	discReq := make([]byte, requestHeaderSize)
	binary.BigEndian.PutUint32(discReq[0:4], requestMagic)
	binary.BigEndian.PutUint32(discReq[4:8], cmdDisc)
	_, err = clientConn.Write(discReq)
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after disconnect request")
	}
}

func TestServerServeHandlesFlush(t *testing.T) {
	backend := testBackend(t)
	server := NewServer("/dev/nbd-test", backend, 512, nil)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	done := make(chan error, 1)
	go func() { done <- server.serve(serverConn) }()

	req := make([]byte, requestHeaderSize)
	binary.BigEndian.PutUint32(req[0:4], requestMagic)
	binary.BigEndian.PutUint32(req[4:8], cmdFlush)
	binary.BigEndian.PutUint64(req[8:16], 7)

	clientConn.SetDeadline(time.Now().Add(5 * time.Second))
	_, err := clientConn.Write(req)
	require.NoError(t, err)

	reply := make([]byte, replyHeaderSize)
	_, err = io.ReadFull(clientConn, reply)
	require.NoError(t, err)
	require.Equal(t, uint64(7), binary.BigEndian.Uint64(reply[8:16]))

	clientConn.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after client close")
	}
}
