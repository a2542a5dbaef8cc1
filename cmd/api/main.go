package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"confcurve/internal/api"
	"confcurve/internal/config"
	"confcurve/internal/container"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	c, err := container.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build container: %v\n", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(c.CurveService, c.Validator, c.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(":"+cfg.Server.Port, cfg.Server.ReadTimeout)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			c.Logger.Error("server failed: %v", err)
			os.Exit(1)
		}
	case sig := <-stop:
		c.Logger.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		c.Logger.Error("graceful shutdown failed: %v", err)
	}
	if err := c.Shutdown(ctx); err != nil {
		c.Logger.Error("container shutdown failed: %v", err)
	}
}
