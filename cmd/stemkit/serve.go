package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mnohosten/ptstem/pkg/config"
	"github.com/mnohosten/ptstem/pkg/server"
	"github.com/mnohosten/ptstem/pkg/watch"
)

// cacheCleanupInterval bounds how often expired cache entries are swept
const cacheCleanupInterval = time.Minute

type serveOptions struct {
	host       string
	port       int
	graphql    bool
	watch      bool
	selfSigned bool
	certDir    string
}

func serveCmd(opts *globalOptions) *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stemming API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = so.host
			}
			if flags.Changed("port") {
				cfg.Server.Port = so.port
			}
			if flags.Changed("graphql") {
				cfg.Server.EnableGraphQL = so.graphql
			}
			if flags.Changed("watch") {
				cfg.Rules.Watch = so.watch
			}
			if so.selfSigned {
				cfg.Server.EnableTLS = true
				if cfg.Server.TLSCertFile == "" {
					cfg.Server.TLSCertFile = filepath.Join(so.certDir, "cert.pem")
				}
				if cfg.Server.TLSKeyFile == "" {
					cfg.Server.TLSKeyFile = filepath.Join(so.certDir, "key.pem")
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, so.selfSigned, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&so.host, "host", "localhost", "Host to bind")
	cmd.Flags().IntVarP(&so.port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().BoolVar(&so.graphql, "graphql", false, "Enable the GraphQL endpoint")
	cmd.Flags().BoolVar(&so.watch, "watch", false, "Reload rule files when they change")
	cmd.Flags().BoolVar(&so.selfSigned, "self-signed", false, "Serve TLS with a generated development certificate")
	cmd.Flags().StringVar(&so.certDir, "cert-dir", "./certs", "Where --self-signed keeps its certificate")
	return cmd
}

// runServer serves until ctx is done. The HTTP server, the rule watcher and
// the cache janitor share one errgroup: the first failure stops the rest.
func runServer(ctx context.Context, cfg *config.Config, selfSigned bool, logOut io.Writer) error {
	if selfSigned {
		generated, err := server.EnsureDevCertificate(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile, cfg.Server.Host)
		if err != nil {
			return fmt.Errorf("failed to prepare development certificate: %w", err)
		}
		if generated {
			fmt.Fprintf(logOut, "Generated self-signed certificate %s\n", cfg.Server.TLSCertFile)
		}
	}

	a, err := newApp(cfg, logOut, true)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, a.toolkit, server.WithMetrics(a.metrics), server.WithLogger(a.logger))
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Address(), err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(ctx, l)
	})

	if cfg.Rules.Watch {
		w, err := watch.New(watch.Config{
			Dirs:     cfg.Rules.Dirs,
			Pattern:  cfg.Rules.Pattern,
			Debounce: cfg.Rules.WatchDebounce,
		}, a.registry, a.toolkit, a.logger)
		if err != nil {
			_ = l.Close()
			return err
		}
		if err := w.Start(ctx); err != nil {
			_ = l.Close()
			return err
		}
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return w.Stop()
				case ev, ok := <-w.Events():
					if !ok {
						return w.Stop()
					}
					a.logger.Info("Rule file changed",
						slog.String("algorithm", ev.Algorithm),
						slog.String("op", string(ev.Op)),
						slog.String("path", ev.Path))
				}
			}
		})
	}

	if cfg.Cache.Enabled && cfg.Cache.TTL > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cacheCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if n := a.toolkit.CleanupCache(); n > 0 {
						a.logger.Debug("Expired cache entries removed", slog.Int("count", n))
					}
				}
			}
		})
	}

	return g.Wait()
}
