package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"confcurve/internal/config"
	"confcurve/internal/container"
	"confcurve/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error:", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatal("Failed to build container:", err)
	}

	app, err := ui.NewApp(ui.Config{Title: os.Getenv("UI_TITLE")}, c.CurveService, c.Logger)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		c.Logger.Info("report viewer on http://localhost:%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		c.Logger.Error("graceful shutdown failed: %v", err)
	}
}
