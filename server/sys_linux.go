//go:build linux

package server

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenConfig returns the net.ListenConfig used to bind the server's
// well-known socket, tuned the way the teacher's server/sys_linux.go
// tuned it: SO_REUSEADDR so multiple processes can share the port during
// a restart, and a raised SO_PRIORITY so TFTP traffic isn't starved
// behind bulkier flows on a loaded host.
func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
					ctrlErr = err
					return
				}
				// socket priority ranges [1-7], low to high.
				ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, syscall.SO_PRIORITY, 7)
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}
}
