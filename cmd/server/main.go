package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ram-020998/nexusmerge/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		a.Log.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			a.Log.Error("Shutdown incomplete", "error", err)
		}
	}()

	a.Log.Info("Starting server", "addr", a.Cfg.ServerAddr)
	if err := a.Run(""); err != nil {
		a.Log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
