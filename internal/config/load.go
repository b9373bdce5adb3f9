package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment overrides applied on top of the file.
const (
	EnvBaseURL      = "AWX_BASE_URL"
	EnvToken        = "AWX_TOKEN"
	EnvOrganization = "AWX_ORGANIZATION_ID"
	EnvAuditDir     = "AWXGATE_AUDIT_DIR"
	EnvSessionPath  = "AWXGATE_SESSION_PATH"
	EnvListen       = "AWXGATE_LISTEN"
	EnvS3AccessKey  = "AWXGATE_S3_ACCESS_KEY"
	EnvS3SecretKey  = "AWXGATE_S3_SECRET_KEY"
)

// LoadFile reads the configuration from a YAML file. An empty path
// yields the defaults. Environment overrides are applied before
// validation.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.AWX.BaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.AWX.Token = v
	}
	if v := os.Getenv(EnvOrganization); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvOrganization, v, err)
		}
		cfg.AWX.OrganizationID = id
	}
	if v := os.Getenv(EnvAuditDir); v != "" {
		cfg.Audit.Dir = v
	}
	if v := os.Getenv(EnvSessionPath); v != "" {
		cfg.Session.Path = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv(EnvS3AccessKey); v != "" {
		cfg.Audit.Archive.AccessKey = v
	}
	if v := os.Getenv(EnvS3SecretKey); v != "" {
		cfg.Audit.Archive.SecretKey = v
	}
	return nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s (value %v)", field, fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Sprintf("%s failed %s (value %v)", field, fe.Tag(), fe.Value())
	}
}
