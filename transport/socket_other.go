//go:build windows

package transport

import "syscall"

// tuneSocket is a no-op on platforms where the low-level sockopt path isn't
// wired up; the connection still works, just without the throughput tuning
// documented in spec.md §4.2 and §9 ("tuning choices, not invariants").
func tuneSocket(rawConn syscall.RawConn, recvBuf, sendBuf int) (actualRecv, actualSend int, err error) {
	return 0, 0, nil
}
