// Package netutil provides network reachability checks.
package netutil

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultDialTimeout bounds CheckPort when no timeout is given.
const DefaultDialTimeout = 5 * time.Second

// CheckPort dials host:port once over TCP and closes the connection.
func CheckPort(ctx context.Context, host string, port int, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	return conn.Close()
}
