// Package buyergroups prints the buyer group of one company: how many people
// hold each role and who they are.
package buyergroups

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

	"github.com/arvela/crmops/internal/crm/buyergroup"
	"github.com/arvela/crmops/internal/crm/storage"
	"github.com/arvela/crmops/internal/crm/storage/sqlite"
)

// Config holds buyer-groups command configuration.
type Config struct {
	WorkspaceID string
	CompanyID   string
	Seller      string
	JSONOutput  bool
	DBPath      string        `env:"CRMOPS_DB_PATH"`
	Timeout     time.Duration `env:"CRMOPS_TOOL_TIMEOUT" envDefault:"1m"`
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

	fs.StringVar(&cfg.WorkspaceID, "workspace-id", "", "workspace the company belongs to")
	fs.StringVar(&cfg.CompanyID, "company-id", "", "company to inspect")
	fs.StringVar(&cfg.Seller, "seller", "", "only show people assigned to this seller display name")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to crm sqlite database (default: CRMOPS_DB_PATH or data/crm.db)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// groupStore is the slice of the CRM store this tool needs.
type groupStore interface {
	GetCompany(ctx context.Context, id string) (storage.Company, error)
	ListPeopleByCompany(ctx context.Context, workspaceID, companyID string) ([]storage.Person, error)
	GetSellerByName(ctx context.Context, workspaceID, displayName string) (storage.Seller, error)
}

// Run executes the buyer-groups command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if cfg.WorkspaceID == "" {
		return errors.New("-workspace-id is required")
	}
	if cfg.CompanyID == "" {
		return errors.New("-company-id is required")
	}
	return sqlite.With(cfg.DBPath, func(store *sqlite.Store) error {
		return runWithStore(ctx, cfg, store, out)
	})
}

type member struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	JobTitle string `json:"job_title,omitempty"`
	Role     string `json:"role,omitempty"`
}

type report struct {
	WorkspaceID string         `json:"workspace_id"`
	CompanyID   string         `json:"company_id"`
	CompanyName string         `json:"company_name"`
	Roles       map[string]int `json:"roles"`
	Unassigned  int            `json:"unassigned"`
	Members     []member       `json:"members"`
}

// runWithStore contains the report logic with an injectable store.
func runWithStore(ctx context.Context, cfg Config, store groupStore, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if store == nil {
		return errors.New("store is not configured")
	}

	company, err := store.GetCompany(ctx, cfg.CompanyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no company with id %s", cfg.CompanyID)
		}
		return fmt.Errorf("load company: %w", err)
	}

	sellerID := ""
	if cfg.Seller != "" {
		seller, err := store.GetSellerByName(ctx, cfg.WorkspaceID, cfg.Seller)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no seller named %s in workspace %s", cfg.Seller, cfg.WorkspaceID)
			}
			return fmt.Errorf("look up seller: %w", err)
		}
		sellerID = seller.ID
	}

	people, err := store.ListPeopleByCompany(ctx, cfg.WorkspaceID, cfg.CompanyID)
	if err != nil {
		return fmt.Errorf("list people: %w", err)
	}

	rep := report{
		WorkspaceID: cfg.WorkspaceID,
		CompanyID:   cfg.CompanyID,
		CompanyName: company.Name,
		Roles:       make(map[string]int, len(buyergroup.Roles())),
	}
	for _, person := range people {
		if sellerID != "" && person.AssignedSellerID != sellerID {
			continue
		}
		if person.BuyerGroupRole == "" {
			rep.Unassigned++
		} else {
			rep.Roles[person.BuyerGroupRole]++
		}
		rep.Members = append(rep.Members, member{
			ID:       person.ID,
			FullName: person.FullName,
			JobTitle: person.JobTitle,
			Role:     person.BuyerGroupRole,
		})
	}

	if cfg.JSONOutput {
		encoded, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Fprintln(out, string(encoded))
		return nil
	}

	fmt.Fprintf(out, "Buyer group for %s (%s): %d members\n", company.Name, cfg.CompanyID, len(rep.Members))
	for _, role := range buyergroup.Roles() {
		fmt.Fprintf(out, "  %-15s %d\n", role, rep.Roles[role])
	}
	fmt.Fprintf(out, "  %-15s %d\n", "unassigned", rep.Unassigned)
	for _, m := range rep.Members {
		role := m.Role
		if role == "" {
			role = "unassigned"
		}
		title := m.JobTitle
		if title == "" {
			title = "no title"
		}
		fmt.Fprintf(out, "- %s (%s) [%s]\n", m.FullName, title, role)
	}
	return nil
}
