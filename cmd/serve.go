package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/friend-map/internal/api"
)

var (
	servePort    int
	serveRoster  string
	serveRefresh time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the location hierarchy over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		source := rosterSource(serveRoster)
		snap := api.NewSnapshot()
		rebuild := func(ctx context.Context) error {
			people, roots, err := buildMap(ctx, source, env.Resolver)
			if err != nil {
				return err
			}
			snap.Set(people, roots)
			return nil
		}
		if err := rebuild(ctx); err != nil {
			return err
		}

		port := resolvePort(servePort, cfg.Server.Port)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return startServer(gctx, api.NewRouter(snap), port)
		})
		if serveRefresh > 0 {
			g.Go(func() error {
				refreshLoop(gctx, serveRefresh, rebuild)
				return nil
			})
		}
		return g.Wait()
	},
}

// resolvePort prefers the flag value and falls back to config.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// startServer listens on port until ctx is done, then shuts down gracefully.
func startServer(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// refreshLoop calls rebuild every interval until ctx is done. Failures are
// logged and the previous snapshot stays in place.
func refreshLoop(ctx context.Context, interval time.Duration, rebuild func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rebuild(ctx); err != nil {
				zap.L().Error("refresh map", zap.Error(err))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveRoster, "roster", "", "roster file or URL (default from config)")
	serveCmd.Flags().DurationVar(&serveRefresh, "refresh", 0, "rebuild the map at this interval (0 disables)")
	rootCmd.AddCommand(serveCmd)
}
