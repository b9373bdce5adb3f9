package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/imamik/awxgate/internal/api"
	"github.com/imamik/awxgate/internal/discovery"
	"github.com/imamik/awxgate/internal/metrics"
)

// Registrar announces the server to service discovery.
type Registrar interface {
	Register() error
	Deregister() error
}

// newRegistrar builds the consul registrar. Replaced in tests.
var newRegistrar = func(addr, name, listen string) (Registrar, error) {
	return discovery.NewRegistrar(addr, name, listen)
}

// newListener opens the server socket. Replaced in tests.
var newListener = func(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Serve handles the serve command. It runs the HTTP API until ctx ends.
func Serve(ctx context.Context, opts Options) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := newServeMux(a)

	ln, err := newListener(a.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.Server.Listen, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.log.Info("awxgate API listening", "addr", ln.Addr().String(), "awx", a.cfg.AWX.BaseURL)

	if consul := a.cfg.Server.Consul; consul.Address != "" {
		reg, err := newRegistrar(consul.Address, consul.ServiceName, a.cfg.Server.Listen)
		if err == nil {
			err = reg.Register()
		}
		if err != nil {
			a.log.Error(err, "consul registration failed, continuing without it")
		} else {
			a.log.Info("registered with consul", "address", consul.Address, "service", consul.ServiceName)
			defer func() {
				if err := reg.Deregister(); err != nil {
					a.log.Error(err, "consul deregistration failed")
				}
			}()
		}
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeouts.Shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newServeMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewAPI(a.svc, a.log.WithName("api"), a.cfg.Server.SecureCookies).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}
