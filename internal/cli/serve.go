// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyrecover.
//
// go-keyrecover is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeremyhahn/go-keyrecover/internal/config"
	"github.com/jeremyhahn/go-keyrecover/internal/rest"
	"github.com/jeremyhahn/go-keyrecover/internal/session"
	"github.com/jeremyhahn/go-keyrecover/pkg/logging"
	"github.com/jeremyhahn/go-keyrecover/pkg/metrics"
	"github.com/jeremyhahn/go-keyrecover/pkg/ratelimit"
	"github.com/spf13/cobra"
)

func newServeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the recovery REST API",
		Long: `Serve loads the YAML configuration given by --config (defaults apply
when omitted, KEYRECOVER_* environment variables override both) and runs
the recovery API until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg.ConfigFile, nil)
		},
	}
}

// serve runs the API until ctx is done. It listens on the configured
// address unless l is given.
func serve(ctx context.Context, path string, l net.Listener) error {
	appCfg, err := config.Load(path)
	if err != nil {
		return err
	}
	log := appCfg.Logger()

	tlsConfig, err := appCfg.TLS.Load()
	if err != nil {
		return err
	}

	metricsPath := ""
	if appCfg.Metrics.Enabled {
		metrics.Enable()
		metricsPath = appCfg.Metrics.Path
		go metrics.NewRuntimeCollector(0).Run(ctx)
	} else {
		metrics.Disable()
	}

	sessions := session.NewManager(session.Config{
		TTL:         appCfg.Sessions.TTL,
		MaxSessions: appCfg.Sessions.MaxSessions,
		Logger:      log.With(logging.String("component", "sessions")),
	})
	defer sessions.Close()

	limiter := ratelimit.New(&appCfg.RateLimit)
	defer limiter.Stop()

	srv, err := rest.NewServer(&rest.Config{
		Address:      appCfg.Server.Address(),
		Sessions:     sessions,
		MaxSessions:  appCfg.Sessions.MaxSessions,
		Limiter:      limiter,
		MetricsPath:  metricsPath,
		Version:      Version,
		TLSConfig:    tlsConfig,
		Logger:       log,
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
		MaxBodyBytes: appCfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if l != nil {
			errCh <- srv.Serve(l)
			return
		}
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
