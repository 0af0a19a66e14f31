package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liquidation-export/internal/clients"
	"liquidation-export/internal/service"
	"liquidation-export/internal/transport/rest"
	"liquidation-export/internal/transport/websocket"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	a.uploader(ctx)

	storageClient, err := clients.NewLocalStorage(cfg.ExportDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
	if err != nil {
		return err
	}

	wsHub := websocket.NewHub(
		websocket.WithLogger(log),
		websocket.WithAllowedOrigins(cfg.AllowedOrigins),
	)
	go wsHub.Run(ctx)

	sinks := service.ExportSinks{
		Storage:  storageClient,
		Notifier: clients.NewWebSocketClient(wsHub),
	}
	var statusReader service.StatusReader
	if a.redis != nil {
		sinks.Status = a.redis
		statusReader = a.redis
	}
	if a.s3 != nil {
		sinks.Uploader = a.s3
	}

	liquidationSvc := service.NewLiquidationService(a.store, a.pdf, a.xlsx, sinks, log)
	exportSvc := service.NewExportService(statusReader)

	handler := rest.NewHandler(liquidationSvc, a.store, exportSvc, log).
		WithFiles(storageClient).
		WithWebSocket(wsHub)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(handler.InitRouter(), cfg.AllowedOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			zap.String("addr", srv.Addr),
			zap.Int("records", a.store.Len()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	go cleanupLoop(ctx, storageClient, cfg.Retention(), log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-srvErr:
		return err
	case sig := <-stop:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown", zap.Error(err))
	}

	// stops the websocket hub and the cleaner
	cancel()

	log.Info("shutdown complete")
	return nil
}

// cleanupLoop removes exported files older than retention.
func cleanupLoop(ctx context.Context, storage *clients.StorageClient, retention time.Duration, log *zap.Logger) {
	if retention <= 0 {
		return
	}

	interval := retention / 6
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := storage.CleanupOlderThan(retention)
			if err != nil {
				log.Warn("storage cleanup", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Debug("storage cleanup", zap.Int("removed", removed))
			}
		}
	}
}

func withCORS(next http.Handler, allowed []string) http.Handler {
	allow := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		allow[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (len(allow) == 0 || allow[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
