package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built site and the places API locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		geojsonPath := filepath.Join(cfg.Build.SiteDir, "places.geojson")

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get("/api/places", func(w http.ResponseWriter, req *http.Request) {
			raw, err := os.ReadFile(geojsonPath)
			if err != nil {
				zap.L().Error("serve: places file unreadable", zap.Error(err))
				http.Error(w, `{"error":"places not built yet"}`, http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/geo+json")
			w.Write(raw)
		})

		r.Handle("/*", http.FileServer(http.Dir(cfg.Build.SiteDir)))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("serve: listening", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "serve: listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("serve: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
