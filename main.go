/*
Package main
File: main.go
Description: Server entry point. Loads the bakery, starts the sales engine and
the real-time WebSocket hub, and runs the heartbeat that keeps renderers in sync.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/everforgeworks/dessert-clicker/internal/api"
	"github.com/everforgeworks/dessert-clicker/internal/config"
	"github.com/everforgeworks/dessert-clicker/internal/game"
	"github.com/everforgeworks/dessert-clicker/internal/jobs"
)

func main() {
	log.SetOutput(os.Stdout)
	if err := run(); err != nil {
		log.WithError(err).Fatal("Server Fail")
	}
}

// run owns every deferred cleanup, so main only exits once they have run.
func run() error {
	// 1. Load configuration from the environment (and .env)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.ApplyLogging()

	// 2. Load the static dessert catalog from YAML
	bakery, catalog, err := game.LoadBakery(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("bakery: %w", err)
	}
	log.WithFields(log.Fields{
		"bakery": bakery.Name,
		"items":  catalog.Len(),
	}).Info("Catalog loaded")

	// 3. One engine per process: this is the session
	engine := game.NewEngine(catalog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Initialize and start the Real-Time WebSocket Hub
	hub := api.NewHub(cfg.WSSendBuffer, cfg.AllowedOrigin)
	server, unsubscribe := api.NewServer(engine, hub, bakery.ShareText)
	defer unsubscribe()
	go hub.Run(ctx)

	// 5. THE HEARTBEAT
	heartbeat := jobs.NewHeartbeat(cfg.HeartbeatSpec, engine, hub)
	if err := heartbeat.Start(); err != nil {
		return err
	}
	defer heartbeat.Stop()

	// 6. Start the Server
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Routes(cfg.AllowedOrigin),
	}
	var runErr error
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("DESSERT CLICKER: Server live")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 7. Wait for a signal or a listener failure, then unwind through the defers
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case runErr = <-serveErr:
		log.WithError(runErr).Error("Server error, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Shutdown error")
	}

	final := engine.Snapshot()
	log.WithFields(log.Fields{
		"session":    final.Session,
		"units_sold": final.UnitsSold,
		"revenue":    final.Revenue,
	}).Info("Bakery session ended")
	return runErr
}
