// Package restorecompanies rewrites company names and domains from a known
// identity mapping, repairing rows that were overwritten by a bad import.
package restorecompanies

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/arvela/crmops/internal/crm/storage"
	"github.com/arvela/crmops/internal/crm/storage/sqlite"
)

// Identity is the canonical name and domain for one company id.
type Identity struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`
}

// builtinIdentities is the mapping recovered from the pre-import export.
var builtinIdentities = map[string]Identity{
	"comp-acme":     {Name: "Acme Logistics", Domain: "acmelogistics.com"},
	"comp-borealis": {Name: "Borealis Analytics", Domain: "borealis.io"},
	"comp-cobalt":   {Name: "Cobalt Manufacturing", Domain: "cobaltmfg.com"},
	"comp-delphi":   {Name: "Delphi Health", Domain: "delphihealth.org"},
	"comp-everline": {Name: "Everline Systems", Domain: "everline.dev"},
}

// Config holds restore-companies command configuration.
type Config struct {
	MappingPath string
	DryRun      bool
	DBPath      string        `env:"CRMOPS_DB_PATH"`
	Timeout     time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"5m"`
}

type envConfig struct {
	DBPath  string        `env:"CRMOPS_DB_PATH"`
	Timeout time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"5m"`
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

	fs.StringVar(&cfg.MappingPath, "mapping", "", "YAML file overriding or extending the built-in identity table")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "report changes without applying them")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to crm sqlite database (default: CRMOPS_DB_PATH or data/crm.db)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// companyStore is the slice of the CRM store this tool needs.
type companyStore interface {
	GetCompany(ctx context.Context, id string) (storage.Company, error)
	UpdateCompanyIdentity(ctx context.Context, id, name, domain string, now time.Time) error
}

// Run executes the restore-companies command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	identities, err := loadIdentities(cfg.MappingPath)
	if err != nil {
		return err
	}
	return sqlite.With(cfg.DBPath, func(store *sqlite.Store) error {
		return runWithStore(ctx, cfg, identities, store, out, time.Now)
	})
}

// loadIdentities merges an optional YAML override file over the built-in
// table. Entries in the file win on id collisions.
func loadIdentities(mappingPath string) (map[string]Identity, error) {
	identities := make(map[string]Identity, len(builtinIdentities))
	for id, identity := range builtinIdentities {
		identities[id] = identity
	}
	if mappingPath == "" {
		return identities, nil
	}

	data, err := os.ReadFile(mappingPath)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	var override map[string]Identity
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse mapping file: %w", err)
	}
	for id, identity := range override {
		identities[id] = identity
	}
	return identities, nil
}

// runWithStore contains the restore logic with an injectable store and clock.
func runWithStore(ctx context.Context, cfg Config, identities map[string]Identity, store companyStore, out io.Writer, now func() time.Time) error {
	if out == nil {
		out = io.Discard
	}
	if store == nil {
		return errors.New("company store is not configured")
	}

	ids := make([]string, 0, len(identities))
	for id := range identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	restored, skipped, missing := 0, 0, 0
	for _, id := range ids {
		identity := identities[id]
		company, err := store.GetCompany(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				missing++
				fmt.Fprintf(out, "- %s: not in database, skipped\n", id)
				continue
			}
			return fmt.Errorf("load company %s: %w", id, err)
		}
		if company.Name == identity.Name && company.Domain == identity.Domain {
			skipped++
			continue
		}
		fmt.Fprintf(out, "- %s: %q (%s) -> %q (%s)\n", id, company.Name, company.Domain, identity.Name, identity.Domain)
		if cfg.DryRun {
			restored++
			continue
		}
		if err := store.UpdateCompanyIdentity(ctx, id, identity.Name, identity.Domain, now().UTC()); err != nil {
			return fmt.Errorf("restore company %s: %w", id, err)
		}
		restored++
	}

	verb := "Restored"
	if cfg.DryRun {
		verb = "Would restore"
	}
	fmt.Fprintf(out, "%s %d companies (%d already correct, %d missing)\n", verb, restored, skipped, missing)
	return nil
}
