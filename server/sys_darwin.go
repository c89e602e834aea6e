//go:build darwin

package server

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenConfig mirrors sys_linux.go's SO_REUSEADDR tuning; darwin has no
// SO_PRIORITY so that half is simply omitted, as the teacher's
// server/sys_darwin.go did.
func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}
}
