// Package handlers implements the business logic behind the CLI commands.
//
// Each exported function corresponds to one command. Dependencies are
// built from the configuration through factory variables that tests
// replace.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"time"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"

	"github.com/imamik/awxgate/internal/audit"
	"github.com/imamik/awxgate/internal/config"
	"github.com/imamik/awxgate/internal/finalize"
	"github.com/imamik/awxgate/internal/monitor"
	"github.com/imamik/awxgate/internal/platform/awx"
	"github.com/imamik/awxgate/internal/platform/s3"
	"github.com/imamik/awxgate/internal/provisioning"
	"github.com/imamik/awxgate/internal/service"
	"github.com/imamik/awxgate/internal/session"
	"github.com/imamik/awxgate/internal/util/retry"
)

// Options are the global flags shared by all commands.
type Options struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	loadConfig = config.LoadFile

	loadTimeouts = config.LoadTimeouts

	newAutomationClient = func(cfg config.AWXConfig, t *config.Timeouts, log logr.Logger) awx.AutomationClient {
		return awx.NewClient(cfg.BaseURL, cfg.Token,
			awx.WithTimeout(t.Request),
			awx.WithRateLimit(cfg.RateLimit, int(2*cfg.RateLimit)),
			awx.WithRetry(
				retry.WithMaxRetries(cfg.Retry.MaxRetries),
				retry.WithInitialDelay(cfg.Retry.InitialDelay),
				retry.WithMaxDelay(10*time.Second),
			),
			awx.WithLogger(log.WithName("awx")),
		)
	}

	openSessionStore = session.Open

	newArchiver = func(ctx context.Context, cfg config.ArchiveConfig) (audit.Archiver, error) {
		client, err := s3.NewClient(ctx, s3.Options{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			PathStyle: cfg.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return audit.NewS3Archiver(client, cfg.Prefix), nil
	}

	stdoutIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	log      logr.Logger
	client   awx.AutomationClient
	store    session.Store
	recorder *audit.Recorder
	monitor  *monitor.Monitor
	svc      *service.Service
}

func newApp(ctx context.Context, opts Options) (*app, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	timeouts := loadTimeouts()
	timeouts.ApplyRetry(&cfg.AWX.Retry)

	log := NewLogger(stderr, opts.Verbose)

	client := newAutomationClient(cfg.AWX, timeouts, log)

	store, err := openSessionStore(cfg.Session.Driver, cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	recOpts := []audit.Option{audit.WithLogger(log.WithName("audit"))}
	if cfg.Audit.Archive.Enabled {
		archiver, err := newArchiver(ctx, cfg.Audit.Archive)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to set up audit archive: %w", err)
		}
		recOpts = append(recOpts, audit.WithArchiver(archiver))
	}

	recorder, err := audit.NewRecorder(cfg.Audit.Dir, recOpts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}

	workflow := provisioning.NewWorkflow(client, cfg.AWX.OrganizationID,
		provisioning.WithObserver(provisioning.NewLogrObserver(log.WithName("provisioning"))))
	finalizer := finalize.NewHandler(client, store, recorder, finalize.WithLogger(log.WithName("finalize")))

	svcOpts := []service.Option{
		service.WithLogger(log.WithName("service")),
		service.WithHostPolicy(service.HostPolicy{
			AllowedPrefixes: cfg.Hosts.AllowedPrefixes,
			MaxPerRequest:   cfg.Hosts.MaxPerRequest,
		}),
	}
	if cfg.Hosts.Reachability.Enabled {
		svcOpts = append(svcOpts, service.WithReachabilityCheck(service.TCPCheck{
			Port:    cfg.Hosts.Reachability.Port,
			Timeout: cfg.Hosts.Reachability.Timeout,
		}))
	}

	return &app{
		cfg:      cfg,
		timeouts: timeouts,
		log:      log,
		client:   client,
		store:    store,
		recorder: recorder,
		monitor:  monitor.New(client),
		svc:      service.New(client, workflow, finalizer, recorder, store, svcOpts...),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error(err, "failed to close session store")
	}
}

// defaultActor is the operator name recorded for CLI actions.
func defaultActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return audit.UnknownValue
}

// defaultSession is the session id used by the CLI for actor.
func defaultSession(actor string) string {
	return "cli:" + actor
}
