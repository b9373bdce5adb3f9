// Package discovery registers the awxgate HTTP API with a consul agent.
package discovery

import (
	"fmt"
	"net"
	"os"
	"strconv"

	consul "github.com/hashicorp/consul/api"
)

// HealthPath is the API path consul checks.
const HealthPath = "/api/v1/health"

// Registrar announces one service instance to consul.
type Registrar struct {
	client       *consul.Client
	registration *consul.AgentServiceRegistration
}

// NewRegistrar prepares the registration of serviceName listening on
// listen (host:port). An empty host is replaced by the machine's hostname.
func NewRegistrar(consulAddr, serviceName, listen string) (*Registrar, error) {
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid listen port %q: %w", portStr, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		if host, err = os.Hostname(); err != nil {
			return nil, fmt.Errorf("resolve hostname: %w", err)
		}
	}

	config := consul.DefaultConfig()
	config.Address = consulAddr
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &Registrar{
		client: client,
		registration: &consul.AgentServiceRegistration{
			ID:      fmt.Sprintf("%s-%s-%d", serviceName, host, port),
			Name:    serviceName,
			Port:    port,
			Address: host,
			Check: &consul.AgentServiceCheck{
				HTTP:                           "http://" + net.JoinHostPort(host, portStr) + HealthPath,
				Interval:                       "10s",
				Timeout:                        "5s",
				DeregisterCriticalServiceAfter: "1m",
			},
			Tags: []string{"awx", "http", "api"},
		},
	}, nil
}

// ServiceID is the consul id of the registered instance.
func (r *Registrar) ServiceID() string {
	return r.registration.ID
}

// Register announces the service.
func (r *Registrar) Register() error {
	if err := r.client.Agent().ServiceRegister(r.registration); err != nil {
		return fmt.Errorf("register %s with consul: %w", r.registration.ID, err)
	}
	return nil
}

// Deregister removes the service.
func (r *Registrar) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.registration.ID); err != nil {
		return fmt.Errorf("deregister %s from consul: %w", r.registration.ID, err)
	}
	return nil
}
