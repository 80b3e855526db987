package main

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/Taboulet/BiggerTask/config"
	"github.com/Taboulet/BiggerTask/pkg/api"
	"github.com/Taboulet/BiggerTask/pkg/input"
	"github.com/Taboulet/BiggerTask/pkg/macro"
	"github.com/Taboulet/BiggerTask/ui"
	"github.com/Taboulet/BiggerTask/util/log"
)

func main() {
	// Ensure only one instance of the application is running at a time.
	acquired, err := acquireLock()
	if err != nil {
		log.Fatalf("Failed to acquire single-instance lock: %v", err)
	}
	if !acquired {
		log.Printf("Another instance of %v is already running.", config.AppName)
		return
	}
	defer releaseLock()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	controller := macro.NewController(cfg, input.Open)
	application := ui.GetInstance(cfg, controller)
	controller.AddStatusListener(application.Notify)

	server := api.NewServer(controller)
	controller.AddStatusListener(server.BroadcastStatus)

	// The hotkey detector and the control server run for the lifetime of
	// the window; quitting the window tears both down.
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := controller.Run(ctx)
		if errors.Is(err, input.ErrUnavailable) {
			// Hotkeys are optional; the window controls still work.
			log.Printf("Global hotkeys disabled: %v", err)
			application.ShowError(err)
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		return server.Stop()
	})

	application.Run()

	cancel()
	if err := g.Wait(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
