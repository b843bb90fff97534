// Package main is the entry point for the todoshell CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todoshell/internal/backend/local"
	"todoshell/internal/backend/supabase"
	"todoshell/internal/cli"
	"todoshell/internal/commands"
	"todoshell/internal/config"
	"todoshell/internal/service"

	// Import all command packages to register them via init()
	_ "todoshell/internal/commands"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newService)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newService picks the gateway named by cfg.Backend.
func newService(ctx context.Context, cfg *config.Config) (service.Service, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		b, err := local.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendSupabase:
		c, err := supabase.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, cfg.Validate()
}
