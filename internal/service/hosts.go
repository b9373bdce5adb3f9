package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// HostSeparator separates hosts in a multi-host launch.
const HostSeparator = ";"

// HostPolicy restricts which hosts may be targeted.
type HostPolicy struct {
	// AllowedPrefixes lists accepted hostname prefixes, matched case-insensitively.
	// An empty list accepts any hostname.
	AllowedPrefixes []string
	// MaxPerRequest caps the number of hosts in one launch.
	MaxPerRequest int
}

// DefaultHostPolicy returns the prefixes used by the deploy fleet.
func DefaultHostPolicy() HostPolicy {
	return HostPolicy{
		AllowedPrefixes: []string{"CN", "TOP", "PDV", "RDS"},
		MaxPerRequest:   5,
	}
}

// Allowed reports whether hostname carries an accepted prefix.
func (p HostPolicy) Allowed(hostname string) bool {
	if len(p.AllowedPrefixes) == 0 {
		return true
	}
	upper := strings.ToUpper(hostname)
	for _, prefix := range p.AllowedPrefixes {
		if strings.HasPrefix(upper, strings.ToUpper(prefix)) {
			return true
		}
	}
	return false
}

// ParseHosts splits a ";"-separated host list and validates every entry.
func (p HostPolicy) ParseHosts(v *validator.Validate, input string) ([]string, error) {
	var hosts []string
	for _, h := range strings.Split(input, HostSeparator) {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w: no hostname given", ErrInvalidRequest)
	}
	if p.MaxPerRequest > 0 && len(hosts) > p.MaxPerRequest {
		return nil, fmt.Errorf("%w: %d hosts given, at most %d allowed", ErrInvalidRequest, len(hosts), p.MaxPerRequest)
	}

	for _, h := range hosts {
		if err := p.check(v, h); err != nil {
			return nil, err
		}
	}
	return hosts, nil
}

func (p HostPolicy) check(v *validator.Validate, hostname string) error {
	if err := v.Var(hostname, "required,hostname_rfc1123"); err != nil {
		return fmt.Errorf("%w: hostname %q is not a valid host name", ErrInvalidRequest, hostname)
	}
	if !p.Allowed(hostname) {
		return fmt.Errorf("%w: hostname %q must start with one of %s", ErrInvalidRequest, hostname, strings.Join(p.AllowedPrefixes, ", "))
	}
	return nil
}
