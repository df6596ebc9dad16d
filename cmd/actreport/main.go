package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/actreport/internal/config"
	"github.com/vbonduro/actreport/internal/draft"
	"github.com/vbonduro/actreport/internal/web"
	"github.com/vbonduro/actreport/internal/web/templates"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := newServeCmd()
	root := &cobra.Command{
		Use:          "actreport",
		Short:        "Collect activity details and generate PDF activity reports",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	root.Flags().AddFlagSet(serveCmd.Flags())
	root.AddCommand(serveCmd, newListCmd(), newValidateCmd(), newGenerateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web form and the autosaver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.ListenAddr = addr
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides LISTEN_ADDR)")
	return cmd
}

// serve runs the HTTP server and the autosaver until ctx is cancelled or one
// of them fails, then shuts both down.
func serve(ctx context.Context, a *app) error {
	srv := web.NewServer(a.service, templates.FS, a.logger).HTTPServer(a.cfg.ListenAddr)
	autosaver := draft.NewAutosaver(a.collector, a.service, a.cfg.AutosaveInterval, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return autosaver.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("server error", "error", err)
		return err
	}
	return nil
}
