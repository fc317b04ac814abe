// Package main removes duplicate people from a workspace.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/arvela/crmops/internal/platform/cmd"
	"github.com/arvela/crmops/internal/platform/config"
	"github.com/arvela/crmops/internal/tools/dedupe"
)

func main() {
	cfg, err := dedupe.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err = cmd.RunWithTelemetry(ctx, cmd.ToolDedupe, func(ctx context.Context) error {
		return dedupe.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
