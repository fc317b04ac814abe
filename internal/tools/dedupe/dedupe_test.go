package dedupe

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/arvela/crmops/internal/crm/storage"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("dedupe", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-workspace-id", "ws-1"})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.WorkspaceID != "ws-1" {
		t.Fatalf("workspace id = %q", cfg.WorkspaceID)
	}
	if cfg.DBPath == "" {
		t.Fatal("expected default db path")
	}
	if cfg.DryRun {
		t.Fatal("dry run should default to false")
	}
	if cfg.Timeout != 5*time.Minute {
		t.Fatalf("timeout = %v, want 5m", cfg.Timeout)
	}
}

func TestParseConfigEnvOverride(t *testing.T) {
	t.Setenv("CRMOPS_DB_PATH", "/tmp/env.db")
	fs := flag.NewFlagSet("dedupe", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("db path = %q, want /tmp/env.db", cfg.DBPath)
	}
}

type fakePersonStore struct {
	people  []storage.Person
	deleted [][]string
	err     error
}

func (f *fakePersonStore) ListPeople(ctx context.Context, workspaceID string) ([]storage.Person, error) {
	return f.people, f.err
}

func (f *fakePersonStore) DeletePeople(ctx context.Context, ids []string) error {
	f.deleted = append(f.deleted, ids)
	return nil
}

func person(id, companyID, email, name string, updated time.Time) storage.Person {
	return storage.Person{
		ID:          id,
		WorkspaceID: "ws-1",
		CompanyID:   companyID,
		Email:       email,
		FullName:    name,
		UpdatedAt:   updated,
	}
}

func TestPlanGroupsKeepsNewestRow(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	groups := planGroups([]storage.Person{
		person("p-1", "c-1", "jordan@mux.com", "Jordan Mux", base),
		person("p-2", "c-1", "Jordan@Mux.com", "Jordan Mux", base.Add(time.Hour)),
		person("p-3", "c-1", "other@mux.com", "Other", base),
	})
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].Keep != "p-2" {
		t.Fatalf("keep = %q, want p-2", groups[0].Keep)
	}
	if len(groups[0].Delete) != 1 || groups[0].Delete[0] != "p-1" {
		t.Fatalf("delete = %v, want [p-1]", groups[0].Delete)
	}
}

func TestPlanGroupsTieBreaksByID(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	groups := planGroups([]storage.Person{
		person("p-b", "c-1", "dup@mux.com", "Dup", at),
		person("p-a", "c-1", "dup@mux.com", "Dup", at),
	})
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].Keep != "p-a" {
		t.Fatalf("keep = %q, want p-a", groups[0].Keep)
	}
}

func TestPlanGroupsFallsBackToName(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	groups := planGroups([]storage.Person{
		person("p-1", "c-1", "", "  Casey   Rivera ", base),
		person("p-2", "c-1", "", "casey rivera", base.Add(time.Minute)),
	})
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	if groups[0].Keep != "p-2" {
		t.Fatalf("keep = %q, want p-2", groups[0].Keep)
	}
}

func TestPlanGroupsScopesToCompany(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	groups := planGroups([]storage.Person{
		person("p-1", "c-1", "same@mux.com", "Same", at),
		person("p-2", "c-2", "same@mux.com", "Same", at),
	})
	if len(groups) != 0 {
		t.Fatalf("groups = %d, want 0 across companies", len(groups))
	}
}

func TestRunWithStoreDeletesDuplicates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakePersonStore{people: []storage.Person{
		person("p-1", "c-1", "dup@mux.com", "Dup", base),
		person("p-2", "c-1", "dup@mux.com", "Dup", base.Add(time.Hour)),
	}}
	var out bytes.Buffer
	cfg := Config{WorkspaceID: "ws-1"}
	if err := runWithStore(context.Background(), cfg, store, &out); err != nil {
		t.Fatalf("runWithStore: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("delete calls = %d, want 1", len(store.deleted))
	}
	if len(store.deleted[0]) != 1 || store.deleted[0][0] != "p-1" {
		t.Fatalf("deleted ids = %v, want [p-1]", store.deleted[0])
	}
	if !strings.Contains(out.String(), "Deleted 1 duplicate people") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunWithStoreDryRunSkipsDeletes(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakePersonStore{people: []storage.Person{
		person("p-1", "c-1", "dup@mux.com", "Dup", base),
		person("p-2", "c-1", "dup@mux.com", "Dup", base.Add(time.Hour)),
	}}
	var out bytes.Buffer
	cfg := Config{WorkspaceID: "ws-1", DryRun: true}
	if err := runWithStore(context.Background(), cfg, store, &out); err != nil {
		t.Fatalf("runWithStore: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("delete calls = %d, want 0", len(store.deleted))
	}
	if !strings.Contains(out.String(), "Dry run") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunWithStoreJSONReport(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakePersonStore{people: []storage.Person{
		person("p-1", "c-1", "dup@mux.com", "Dup", base),
		person("p-2", "c-1", "dup@mux.com", "Dup", base.Add(time.Hour)),
	}}
	var out bytes.Buffer
	cfg := Config{WorkspaceID: "ws-1", JSONOutput: true}
	if err := runWithStore(context.Background(), cfg, store, &out); err != nil {
		t.Fatalf("runWithStore: %v", err)
	}
	var got report
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if got.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", got.Deleted)
	}
	if len(got.Groups) != 1 || got.Groups[0].Keep != "p-2" {
		t.Fatalf("groups = %+v", got.Groups)
	}
}

func TestRunRequiresWorkspaceID(t *testing.T) {
	err := Run(context.Background(), Config{}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "workspace-id") {
		t.Fatalf("err = %v, want workspace-id requirement", err)
	}
}

func TestRunWithStoreNilStore(t *testing.T) {
	err := runWithStore(context.Background(), Config{WorkspaceID: "ws-1"}, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil store")
	}
}
