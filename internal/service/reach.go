package service

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/awxgate/internal/util/netutil"
)

// ReachabilityChecker checks that a host is reachable before anything is provisioned.
type ReachabilityChecker interface {
	Check(ctx context.Context, hostname string) error
}

// TCPCheck dials a TCP port on the target.
type TCPCheck struct {
	Port    int
	Timeout time.Duration
}

// Check returns nil when a TCP connection to hostname:Port succeeds.
func (p TCPCheck) Check(ctx context.Context, hostname string) error {
	if err := netutil.CheckPort(ctx, hostname, p.Port, p.Timeout); err != nil {
		return fmt.Errorf("host %s is not reachable on port %d: %w", hostname, p.Port, err)
	}
	return nil
}
