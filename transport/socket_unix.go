//go:build !windows

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// tuneSocket sets TCP_NODELAY and the receive/send buffer sizes on the raw
// file descriptor behind a net.Conn, grounded in
// original_source/src/client/connection.rs's socket2-based tuning:
// TCP_NODELAY for low-latency request/response, a large receive buffer for
// high-bandwidth downloads, a large send buffer for pipelining.
func tuneSocket(rawConn syscall.RawConn, recvBuf, sendBuf int) (actualRecv, actualSend int, err error) {
	ctrlErr := rawConn.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

		if recvBuf > 0 {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, recvBuf)
		}
		if sendBuf > 0 {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, sendBuf)
		}

		if v, gerr := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF); gerr == nil {
			actualRecv = v
		}
		if v, gerr := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF); gerr == nil {
			actualSend = v
		}
	})
	if ctrlErr != nil {
		return 0, 0, ctrlErr
	}
	return actualRecv, actualSend, nil
}
