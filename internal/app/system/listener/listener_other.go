//go:build !unix

package listener

import "syscall"

// Shared reports whether the port can be bound by several workers at once.
// Without SO_REUSEPORT only the first worker binds; the rest fail and are
// respawned by the supervisor.
const Shared = false

func control(network, address string, c syscall.RawConn) error {
	return nil
}
