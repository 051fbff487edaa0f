package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/internal/api"
	"github.com/rustyeddy/tradejournal/internal/auth"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal JSON API",
		Long: `Serve the journal over HTTP.

Public routes: /health, /metrics and POST /api/auth/login. Everything else
under /api needs "Authorization: Bearer <token>" from the login route.`,
		Args: cobra.NoArgs,
		RunE: a.withDB(func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ttl, err := a.cfg.Server.TTL()
			if err != nil {
				return fmt.Errorf("server.token_ttl: %w", err)
			}
			authSvc, err := auth.NewService(a.cfg.Server.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("server.jwt_secret: %w", err)
			}

			h := api.New(api.Deps{
				Users:           a.users,
				Auth:            authSvc,
				Journal:         a.journal,
				Ledger:          a.ledger,
				Market:          a.market,
				Metrics:         a.metrics.Handler(),
				Logger:          a.log.With().Str("component", "api").Logger(),
				DefaultCurrency: a.cfg.Journal.DefaultCurrency,
			})
			srv := &http.Server{
				Addr:              addr,
				Handler:           h.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", addr).Msg("serving journal API")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}),
	}
	c.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return c
}
