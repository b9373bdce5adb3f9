package config

import "time"

// Session store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the full awxgate configuration.
type Config struct {
	AWX     AWXConfig     `yaml:"awx" validate:"required"`
	Hosts   HostsConfig   `yaml:"hosts"`
	Audit   AuditConfig   `yaml:"audit"`
	Session SessionConfig `yaml:"session"`
	Server  ServerConfig  `yaml:"server"`
}

// AWXConfig configures the AWX REST client.
type AWXConfig struct {
	BaseURL        string      `yaml:"base_url" validate:"required,url"`
	Token          string      `yaml:"token" validate:"required"`
	OrganizationID int         `yaml:"organization_id" validate:"gt=0"`
	RateLimit      float64     `yaml:"rate_limit" validate:"gte=0"`
	Retry          RetryConfig `yaml:"retry"`
}

// RetryConfig tunes retries of idempotent AWX requests.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	InitialDelay time.Duration `yaml:"initial_delay" validate:"gte=0"`
}

// HostsConfig restricts which hosts may be targeted.
type HostsConfig struct {
	AllowedPrefixes []string           `yaml:"allowed_prefixes" validate:"dive,required,alphanum"`
	MaxPerRequest   int                `yaml:"max_per_request" validate:"gte=1"`
	Reachability    ReachabilityConfig `yaml:"reachability"`
}

// ReachabilityConfig configures the optional TCP reachability check.
type ReachabilityConfig struct {
	Enabled bool          `yaml:"enabled"`
	Port    int           `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// AuditConfig locates the audit store and its optional S3 mirror.
type AuditConfig struct {
	Dir     string        `yaml:"dir" validate:"required"`
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig configures the S3 mirror of audit files.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	Region    string `yaml:"region" validate:"required_if=Enabled true"`
	Bucket    string `yaml:"bucket" validate:"required_if=Enabled true"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// SessionConfig selects the session store backend. The memory driver only
// suits a single long-lived process such as serve.
type SessionConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite"`
	Path   string `yaml:"path" validate:"required_if=Driver sqlite"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen        string       `yaml:"listen" validate:"required,hostname_port"`
	SecureCookies bool         `yaml:"secure_cookies"`
	Consul        ConsulConfig `yaml:"consul"`
}

// ConsulConfig enables service registration when Address is set.
type ConsulConfig struct {
	Address     string `yaml:"address"`
	ServiceName string `yaml:"service_name" validate:"required_with=Address"`
}

// Default returns a configuration populated with defaults. AWX
// credentials are left empty.
func Default() *Config {
	return &Config{
		AWX: AWXConfig{
			OrganizationID: 1,
			RateLimit:      10,
			Retry: RetryConfig{
				MaxRetries:   2,
				InitialDelay: 500 * time.Millisecond,
			},
		},
		Hosts: HostsConfig{
			AllowedPrefixes: []string{"CN", "TOP", "PDV", "RDS"},
			MaxPerRequest:   5,
			Reachability: ReachabilityConfig{
				Port:    22,
				Timeout: 5 * time.Second,
			},
		},
		Audit: AuditConfig{
			Dir: "./audit_logs",
		},
		Session: SessionConfig{
			Driver: DriverSQLite,
			Path:   "./awxgate-sessions.db",
		},
		Server: ServerConfig{
			Listen: ":8080",
			Consul: ConsulConfig{ServiceName: "awxgate"},
		},
	}
}
