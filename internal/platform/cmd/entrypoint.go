// Package cmd provides the shared entrypoint scaffold for operational tools.
//
// Every binary under cmd/ follows the same lifecycle: parse env defaults,
// parse flags, set up opt-in telemetry, run to completion, shut telemetry
// down. Collapsing that scaffold here keeps each main.go to a few lines.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/arvela/crmops/internal/platform/config"
	platformotel "github.com/arvela/crmops/internal/platform/otel"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// Tool identifiers for startup telemetry and CLI naming consistency.
const (
	ToolAPIProbe           = "api-probe"
	ToolBuyerGroups        = "buyer-groups"
	ToolDedupe             = "dedupe"
	ToolDeployEnv          = "deploy-env"
	ToolDiscover           = "discover"
	ToolEnrichmentProgress = "enrichment-progress"
	ToolEnvFile            = "envfile"
	ToolPasswordReset      = "password-reset"
	ToolRestoreCompanies   = "restore-companies"
)

// RunOptions controls shared entrypoint behavior for tool commands.
type RunOptions struct {
	// ShutdownTimeout sets the timeout used when stopping telemetry.
	ShutdownTimeout time.Duration
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// ParseConfigFromArgs loads defaults from env and then parses flags.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, args []string) error {
	if err := ParseConfig(cfg); err != nil {
		return err
	}
	return ParseArgs(fs, args)
}

// RunWithTelemetry configures observability and executes a tool run.
func RunWithTelemetry(ctx context.Context, tool string, run func(context.Context) error) error {
	return RunWithTelemetryAndOptions(ctx, tool, RunOptions{}, run)
}

// RunWithTelemetryAndOptions configures observability and executes a tool run.
//
// The run is wrapped in a root span named after the tool so traced runs show
// up as one unit of work per invocation.
func RunWithTelemetryAndOptions(ctx context.Context, tool string, options RunOptions, run func(context.Context) error) error {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return fmt.Errorf("tool name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	shutdown, err := platformotel.Setup(ctx, tool)
	if err != nil {
		return err
	}
	defer func() {
		shutdownTimeout := options.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = defaultOTelShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", tool, err)
		}
	}()

	ctx, span := otel.Tracer("crmops").Start(ctx, tool)
	defer span.End()

	if err := run(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
