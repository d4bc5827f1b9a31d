package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/takascemberi/takas/internal/api"
	"github.com/takascemberi/takas/internal/store"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return serve(ctx, a)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	if err := ensureAdmin(ctx, a.db, os.Stdout); err != nil {
		return err
	}

	jwtSecret, err := store.GetJWTSecret(ctx, a.db)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr: a.cfg.Server.Addr,
		Handler: api.NewRouter(api.Deps{
			DB:          a.db,
			Items:       a.items,
			Translation: a.translation,
			JWTSecret:   jwtSecret,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			Lifetime:    gctx,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	g.Go(func() error {
		slog.Info("server started", "addr", server.Addr, "store", a.cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		purgeRevokedTokens(gctx, a)
		return nil
	})

	err = g.Wait()
	slog.Info("server stopped")
	return err
}

// purgeRevokedTokens drops expired entries from the revocation list hourly.
func purgeRevokedTokens(ctx context.Context, a *app) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpiredTokens(ctx, a.db, now)
			if err != nil {
				slog.Warn("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged revoked tokens", "count", n)
			}
		}
	}
}
