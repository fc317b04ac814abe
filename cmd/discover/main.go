// Package main runs buyer-group discovery for a batch of companies.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/arvela/crmops/internal/platform/cmd"
	"github.com/arvela/crmops/internal/platform/config"
	"github.com/arvela/crmops/internal/tools/discover"
)

func main() {
	cfg, err := discover.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err = cmd.RunWithTelemetry(ctx, cmd.ToolDiscover, func(ctx context.Context) error {
		return discover.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
