// Package discover runs buyer-group discovery for a batch of companies and
// persists the returned classifications.
package discover

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/arvela/crmops/internal/crm/buyergroup"
	"github.com/arvela/crmops/internal/crm/storage"
	"github.com/arvela/crmops/internal/crm/storage/sqlite"
	"github.com/arvela/crmops/internal/pipeline"
	"github.com/arvela/crmops/internal/platform/id"
)

// Config holds discover command configuration.
type Config struct {
	WorkspaceID string
	CompanyIDs  []string
	Delay       time.Duration
	PipelineURL string        `env:"CRMOPS_PIPELINE_URL"`
	Token       string        `env:"CRMOPS_PIPELINE_TOKEN"`
	JWTSecret   string        `env:"CRMOPS_PIPELINE_JWT_SECRET"`
	DBPath      string        `env:"CRMOPS_DB_PATH"`
	Timeout     time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"15m"`
}

type envConfig struct {
	PipelineURL string        `env:"CRMOPS_PIPELINE_URL"`
	Token       string        `env:"CRMOPS_PIPELINE_TOKEN"`
	JWTSecret   string        `env:"CRMOPS_PIPELINE_JWT_SECRET"`
	DBPath      string        `env:"CRMOPS_DB_PATH"`
	Timeout     time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"15m"`
}

// ParseConfig parses flags into a Config. Positional arguments are the
// company ids to discover.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		PipelineURL: envCfg.PipelineURL,
		Token:       envCfg.Token,
		JWTSecret:   envCfg.JWTSecret,
		DBPath:      envCfg.DBPath,
		Timeout:     envCfg.Timeout,
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "crm.db")
	}

	fs.StringVar(&cfg.WorkspaceID, "workspace-id", "", "workspace the companies belong to")
	fs.DurationVar(&cfg.Delay, "delay", 2*time.Second, "pause between discovery requests")
	fs.StringVar(&cfg.PipelineURL, "pipeline-url", cfg.PipelineURL, "discovery service base URL (default: CRMOPS_PIPELINE_URL)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to crm sqlite database (default: CRMOPS_DB_PATH or data/crm.db)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.CompanyIDs = fs.Args()
	return cfg, nil
}

// memberStore is the slice of the CRM store this tool needs.
type memberStore interface {
	FindPersonByEmail(ctx context.Context, workspaceID, companyID, email string) (storage.Person, error)
	PutPerson(ctx context.Context, person storage.Person) error
	SetBuyerGroupRole(ctx context.Context, personID, role string, now time.Time) error
}

// Run executes the discover command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if cfg.WorkspaceID == "" {
		return errors.New("-workspace-id is required")
	}
	if len(cfg.CompanyIDs) == 0 {
		return errors.New("at least one company id argument is required")
	}
	if cfg.PipelineURL == "" {
		return errors.New("CRMOPS_PIPELINE_URL is not set")
	}

	discovery := pipeline.NewClient(cfg.PipelineURL, cfg.Token, []byte(cfg.JWTSecret), nil)
	return sqlite.With(cfg.DBPath, func(store *sqlite.Store) error {
		return runWithDeps(ctx, cfg, discovery, store, out, errOut, time.Now, sleep)
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// runWithDeps contains the discovery loop with injectable collaborators.
// One company failing is reported and skipped; the loop keeps going, and any
// failure makes the whole run return an error.
func runWithDeps(ctx context.Context, cfg Config, discovery pipeline.Discovery, store memberStore, out, errOut io.Writer, now func() time.Time, pause func(context.Context, time.Duration) error) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if discovery == nil {
		return errors.New("discovery client is not configured")
	}
	if store == nil {
		return errors.New("person store is not configured")
	}

	var failed []string
	for i, companyID := range cfg.CompanyIDs {
		if i > 0 && cfg.Delay > 0 {
			if err := pause(ctx, cfg.Delay); err != nil {
				return err
			}
		}
		upserted, err := discoverCompany(ctx, cfg.WorkspaceID, companyID, discovery, store, now)
		if err != nil {
			failed = append(failed, companyID)
			fmt.Fprintf(errOut, "discover %s: %v\n", companyID, err)
			continue
		}
		fmt.Fprintf(out, "Discovered %s: %d members classified\n", companyID, upserted)
	}

	if len(failed) > 0 {
		return fmt.Errorf("discovery failed for %d of %d companies: %s", len(failed), len(cfg.CompanyIDs), strings.Join(failed, ", "))
	}
	return nil
}

// discoverCompany calls the service for one company and persists every member
// with a known role. People are matched by email; unknown people are created.
func discoverCompany(ctx context.Context, workspaceID, companyID string, discovery pipeline.Discovery, store memberStore, now func() time.Time) (int, error) {
	result, err := discovery.Discover(ctx, workspaceID, companyID)
	if err != nil {
		return 0, err
	}

	upserted := 0
	for _, m := range result.Members {
		if !buyergroup.ValidRole(m.Role) {
			continue
		}
		at := now().UTC()
		person, err := store.FindPersonByEmail(ctx, workspaceID, companyID, m.Email)
		switch {
		case err == nil:
			if err := store.SetBuyerGroupRole(ctx, person.ID, m.Role, at); err != nil {
				return upserted, fmt.Errorf("set role for %s: %w", person.ID, err)
			}
		case errors.Is(err, storage.ErrNotFound):
			err := store.PutPerson(ctx, storage.Person{
				ID:             id.NewID(),
				WorkspaceID:    workspaceID,
				CompanyID:      companyID,
				FullName:       m.FullName,
				Email:          m.Email,
				JobTitle:       m.JobTitle,
				Department:     m.Department,
				BuyerGroupRole: m.Role,
				CreatedAt:      at,
				UpdatedAt:      at,
			})
			if err != nil {
				return upserted, fmt.Errorf("create person %s: %w", m.Email, err)
			}
		default:
			return upserted, fmt.Errorf("find person %s: %w", m.Email, err)
		}
		upserted++
	}
	return upserted, nil
}
