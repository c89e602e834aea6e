//go:build windows

package server

import "net"

// listenConfig on windows applies no socket tuning: the teacher has no
// Windows variant, and SO_REUSEADDR/SO_PRIORITY's unix semantics don't
// translate directly.
func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{}
}
