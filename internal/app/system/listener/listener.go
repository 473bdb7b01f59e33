// Package listener opens the TCP listener each worker serves on.
//
// Workers are interchangeable replicas that bind the same port; on unix
// the socket is opened with SO_REUSEPORT so the kernel spreads incoming
// connections across them.
package listener

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// Addr returns the listen address for port on all interfaces.
func Addr(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}

// Listen opens a TCP listener on addr that other processes may also bind.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: control}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}
