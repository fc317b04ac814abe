// Package enrichmentprogress reports how much of a workspace has been
// enriched by the external data providers.
package enrichmentprogress

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/arvela/crmops/internal/crm/storage"
	"github.com/arvela/crmops/internal/crm/storage/sqlite"
)

// Config holds enrichment-progress command configuration.
type Config struct {
	WorkspaceID string
	DBPath      string        `env:"CRMOPS_DB_PATH"`
	Timeout     time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"1m"`
	JSONOutput  bool
}

type envConfig struct {
	DBPath  string        `env:"CRMOPS_DB_PATH"`
	Timeout time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"1m"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		DBPath:  envCfg.DBPath,
		Timeout: envCfg.Timeout,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "crm.db")
	}

	fs.StringVar(&cfg.WorkspaceID, "workspace-id", "", "workspace to report on")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to crm sqlite database (default: CRMOPS_DB_PATH or data/crm.db)")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the enrichment-progress command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if cfg.WorkspaceID == "" {
		return errors.New("-workspace-id is required")
	}
	return sqlite.With(cfg.DBPath, func(store *sqlite.Store) error {
		return runWithStore(ctx, cfg, store, out)
	})
}

type report struct {
	WorkspaceID string `json:"workspace_id"`
	storage.EnrichmentProgress
}

// runWithStore contains the reporting logic with an injectable store.
func runWithStore(ctx context.Context, cfg Config, store storage.ProgressStore, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if store == nil {
		return errors.New("progress store is not configured")
	}

	progress, err := store.GetEnrichmentProgress(ctx, cfg.WorkspaceID)
	if err != nil {
		return fmt.Errorf("get enrichment progress: %w", err)
	}

	if cfg.JSONOutput {
		encoded, err := json.Marshal(report{WorkspaceID: cfg.WorkspaceID, EnrichmentProgress: progress})
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Fprintln(out, string(encoded))
		return nil
	}

	fmt.Fprintf(out, "Enrichment progress for workspace %s\n", cfg.WorkspaceID)
	fmt.Fprintf(out, "Companies: %d total, %d enriched (%s)\n",
		progress.Companies, progress.CompaniesEnriched,
		percent(progress.CompaniesEnriched, progress.Companies))
	fmt.Fprintf(out, "People: %d total, %d with email, %d enriched (%s), %d assigned to a seller\n",
		progress.People, progress.PeopleWithEmail, progress.PeopleEnriched,
		percent(progress.PeopleEnriched, progress.People), progress.PeopleAssigned)
	return nil
}

func percent(part, total int) string {
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
