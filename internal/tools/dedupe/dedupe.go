// Package dedupe removes duplicate person rows from a workspace, keeping the
// most-recently-updated row of every duplicate group.
package dedupe

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/cases"

	"github.com/arvela/crmops/internal/crm/storage"
	"github.com/arvela/crmops/internal/crm/storage/sqlite"
)

// Config holds dedupe command configuration.
type Config struct {
	WorkspaceID string
	DBPath      string        `env:"CRMOPS_DB_PATH"`
	Timeout     time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"5m"`
	DryRun      bool
	JSONOutput  bool
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

	fs.StringVar(&cfg.WorkspaceID, "workspace-id", "", "workspace to clean up")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to crm sqlite database (default: CRMOPS_DB_PATH or data/crm.db)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "report duplicate groups without deleting")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// personStore is the slice of the CRM store this tool needs.
type personStore interface {
	ListPeople(ctx context.Context, workspaceID string) ([]storage.Person, error)
	DeletePeople(ctx context.Context, ids []string) error
}

// Run executes the dedupe command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if cfg.WorkspaceID == "" {
		return errors.New("-workspace-id is required")
	}
	return sqlite.With(cfg.DBPath, func(store *sqlite.Store) error {
		return runWithStore(ctx, cfg, store, out)
	})
}

// group is one set of rows considered duplicates of each other.
type group struct {
	Key    string   `json:"key"`
	Keep   string   `json:"keep"`
	Delete []string `json:"delete"`
}

type report struct {
	WorkspaceID string  `json:"workspace_id"`
	DryRun      bool    `json:"dry_run"`
	Groups      []group `json:"groups"`
	Deleted     int     `json:"deleted"`
}

// runWithStore contains the cleanup logic with an injectable store.
func runWithStore(ctx context.Context, cfg Config, store personStore, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if store == nil {
		return errors.New("person store is not configured")
	}

	people, err := store.ListPeople(ctx, cfg.WorkspaceID)
	if err != nil {
		return fmt.Errorf("list people: %w", err)
	}

	groups := planGroups(people)

	deleted := 0
	if !cfg.DryRun {
		for _, g := range groups {
			if err := store.DeletePeople(ctx, g.Delete); err != nil {
				return fmt.Errorf("delete duplicates for %s: %w", g.Key, err)
			}
			deleted += len(g.Delete)
		}
	}

	if cfg.JSONOutput {
		encoded, err := json.Marshal(report{
			WorkspaceID: cfg.WorkspaceID,
			DryRun:      cfg.DryRun,
			Groups:      groups,
			Deleted:     deleted,
		})
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Fprintln(out, string(encoded))
		return nil
	}

	toDelete := 0
	for _, g := range groups {
		toDelete += len(g.Delete)
	}
	fmt.Fprintf(out, "Found %d duplicate groups in workspace %s (%d rows to delete)\n", len(groups), cfg.WorkspaceID, toDelete)
	for _, g := range groups {
		fmt.Fprintf(out, "- %s: keep %s, delete %s\n", g.Key, g.Keep, strings.Join(g.Delete, ", "))
	}
	if cfg.DryRun {
		fmt.Fprintln(out, "Dry run: no rows deleted")
		return nil
	}
	fmt.Fprintf(out, "Deleted %d duplicate people\n", deleted)
	return nil
}

// planGroups partitions people into duplicate groups and picks a survivor for
// each. The survivor is the most-recently-updated row; equal timestamps fall
// back to the lexically smallest id so reruns are deterministic. Groups of
// one are dropped.
func planGroups(people []storage.Person) []group {
	folder := cases.Fold()
	byKey := make(map[string][]storage.Person)
	for _, person := range people {
		key := groupKey(folder, person)
		byKey[key] = append(byKey[key], person)
	}

	keys := make([]string, 0, len(byKey))
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]group, 0, len(keys))
	for _, key := range keys {
		members := byKey[key]
		sort.Slice(members, func(i, j int) bool {
			if !members[i].UpdatedAt.Equal(members[j].UpdatedAt) {
				return members[i].UpdatedAt.After(members[j].UpdatedAt)
			}
			return members[i].ID < members[j].ID
		})
		g := group{Key: key, Keep: members[0].ID}
		for _, member := range members[1:] {
			g.Delete = append(g.Delete, member.ID)
		}
		groups = append(groups, g)
	}
	return groups
}

// groupKey produces the duplicate-match key for one person. Email wins when
// present; otherwise the whitespace-collapsed full name is used. Both are
// Unicode case-folded so "Jordan@Mux.com" and "jordan@mux.com" collide.
func groupKey(folder cases.Caser, person storage.Person) string {
	email := strings.TrimSpace(person.Email)
	if email != "" {
		return person.CompanyID + "/email:" + folder.String(email)
	}
	name := strings.Join(strings.Fields(person.FullName), " ")
	return person.CompanyID + "/name:" + folder.String(name)
}
