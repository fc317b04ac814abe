package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/arvela/crmops/internal/crm/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "crm.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func seedWorkspace(t *testing.T, store *Store, id string) {
	t.Helper()
	err := store.PutWorkspace(context.Background(), storage.Workspace{
		ID:   id,
		Name: "Workspace " + id,
		Slug: id,
	})
	if err != nil {
		t.Fatalf("seed workspace: %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestCloseNilStore(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("nil store close should be safe: %v", err)
	}
}

func TestWithClosesStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.db")
	var captured *Store
	err := With(path, func(store *Store) error {
		captured = store
		return nil
	})
	if err != nil {
		t.Fatalf("with store: %v", err)
	}
	if captured == nil {
		t.Fatal("expected callback to run")
	}
	if err := captured.sqlDB.Ping(); err == nil {
		t.Fatal("expected store to be closed after With returns")
	}
}

func TestWithPropagatesCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.db")
	wantErr := errors.New("boom")
	err := With(path, func(*Store) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestWorkspaceRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	err := store.PutWorkspace(ctx, storage.Workspace{
		ID:        "ws-1",
		Name:      "Northwind",
		Slug:      "northwind",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("put workspace: %v", err)
	}

	workspace, err := store.GetWorkspace(ctx, "ws-1")
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	if workspace.Name != "Northwind" || workspace.Slug != "northwind" {
		t.Fatalf("unexpected workspace %+v", workspace)
	}
	if !workspace.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at %v, got %v", createdAt, workspace.CreatedAt)
	}
}

func TestGetWorkspaceNotFound(t *testing.T) {
	store := openTempStore(t)
	if _, err := store.GetWorkspace(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRoundTripAndPasswordUpdate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	err := store.PutUser(ctx, storage.User{
		ID:       "user-1",
		Email:    "Ops@Example.COM",
		Name:     "Ops Admin",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("put user: %v", err)
	}

	user, err := store.GetUserByEmail(ctx, "ops@example.com")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("expected user-1, got %q", user.ID)
	}
	if user.Email != "ops@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.LastLoginAt != nil {
		t.Fatalf("expected nil last login, got %v", user.LastLoginAt)
	}

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	if err := store.UpdateUserPassword(ctx, "user-1", "$2a$10$fakehash", now); err != nil {
		t.Fatalf("update password: %v", err)
	}

	user, err = store.GetUserByEmail(ctx, "ops@example.com")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.PasswordHash != "$2a$10$fakehash" {
		t.Fatalf("expected updated hash, got %q", user.PasswordHash)
	}
	if !user.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, user.UpdatedAt)
	}
}

func TestUpdateUserPasswordUnknownUser(t *testing.T) {
	store := openTempStore(t)
	err := store.UpdateUserPassword(context.Background(), "ghost", "hash", time.Now())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSellerLookupCaseInsensitive(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")

	err := store.PutSeller(ctx, storage.Seller{
		ID:          "seller-1",
		WorkspaceID: "ws-1",
		DisplayName: "Dana Scully",
	})
	if err != nil {
		t.Fatalf("put seller: %v", err)
	}

	seller, err := store.GetSellerByName(ctx, "ws-1", "dana scully")
	if err != nil {
		t.Fatalf("get seller: %v", err)
	}
	if seller.ID != "seller-1" {
		t.Fatalf("expected seller-1, got %q", seller.ID)
	}

	if _, err := store.GetSellerByName(ctx, "ws-1", "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompanyRoundTripAndIdentityRestore(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")

	enrichedAt := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	err := store.PutCompany(ctx, storage.Company{
		ID:            "co-1",
		WorkspaceID:   "ws-1",
		Name:          "Temporary Name",
		Domain:        "wrong.example",
		Industry:      "Software",
		Size:          "M2",
		EmployeeCount: 600,
		Revenue:       "$50M-100M",
		Description:   "Video infrastructure",
		EnrichedAt:    &enrichedAt,
	})
	if err != nil {
		t.Fatalf("put company: %v", err)
	}

	now := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	if err := store.UpdateCompanyIdentity(ctx, "co-1", "Mux", "mux.com", now); err != nil {
		t.Fatalf("restore identity: %v", err)
	}

	company, err := store.GetCompany(ctx, "co-1")
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if company.Name != "Mux" || company.Domain != "mux.com" {
		t.Fatalf("expected restored identity, got %q/%q", company.Name, company.Domain)
	}
	if company.EnrichedAt == nil || !company.EnrichedAt.Equal(enrichedAt) {
		t.Fatalf("expected enriched_at preserved, got %v", company.EnrichedAt)
	}
	if !company.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, company.UpdatedAt)
	}

	if err := store.UpdateCompanyIdentity(ctx, "ghost", "Name", "", now); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown company, got %v", err)
	}
}

func TestListCompaniesOrdersByName(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")

	for _, name := range []string{"Zeta", "Acme", "Mux"} {
		err := store.PutCompany(ctx, storage.Company{
			ID:          "co-" + name,
			WorkspaceID: "ws-1",
			Name:        name,
		})
		if err != nil {
			t.Fatalf("put company %s: %v", name, err)
		}
	}

	companies, err := store.ListCompanies(ctx, "ws-1")
	if err != nil {
		t.Fatalf("list companies: %v", err)
	}
	if len(companies) != 3 {
		t.Fatalf("expected 3 companies, got %d", len(companies))
	}
	if companies[0].Name != "Acme" || companies[2].Name != "Zeta" {
		t.Fatalf("expected name ordering, got %q..%q", companies[0].Name, companies[2].Name)
	}
}

func TestPersonRoundTripAndRoleUpdate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")

	err := store.PutPerson(ctx, storage.Person{
		ID:          "p-1",
		WorkspaceID: "ws-1",
		CompanyID:   "co-1",
		FullName:    "Jordan Reyes",
		Email:       "Jordan@Mux.com",
		JobTitle:    "VP Engineering",
	})
	if err != nil {
		t.Fatalf("put person: %v", err)
	}

	person, err := store.FindPersonByEmail(ctx, "ws-1", "co-1", "jordan@mux.com")
	if err != nil {
		t.Fatalf("find person by email: %v", err)
	}
	if person.ID != "p-1" {
		t.Fatalf("expected p-1, got %q", person.ID)
	}

	now := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)
	if err := store.SetBuyerGroupRole(ctx, "p-1", "champion", now); err != nil {
		t.Fatalf("set role: %v", err)
	}

	people, err := store.ListPeopleByCompany(ctx, "ws-1", "co-1")
	if err != nil {
		t.Fatalf("list people by company: %v", err)
	}
	if len(people) != 1 {
		t.Fatalf("expected 1 person, got %d", len(people))
	}
	if people[0].BuyerGroupRole != "champion" {
		t.Fatalf("expected champion role, got %q", people[0].BuyerGroupRole)
	}
	if !people[0].UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, people[0].UpdatedAt)
	}
}

func TestFindPersonByEmailNotFound(t *testing.T) {
	store := openTempStore(t)
	seedWorkspace(t, store, "ws-1")
	_, err := store.FindPersonByEmail(context.Background(), "ws-1", "co-1", "none@example.com")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetBuyerGroupRoleUnknownPerson(t *testing.T) {
	store := openTempStore(t)
	err := store.SetBuyerGroupRole(context.Background(), "ghost", "blocker", time.Now())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePeopleRemovesOnlyListed(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")

	for _, id := range []string{"p-1", "p-2", "p-3"} {
		err := store.PutPerson(ctx, storage.Person{
			ID:          id,
			WorkspaceID: "ws-1",
			CompanyID:   "co-1",
			FullName:    "Person " + id,
		})
		if err != nil {
			t.Fatalf("put person %s: %v", id, err)
		}
	}

	if err := store.DeletePeople(ctx, []string{"p-1", "p-3"}); err != nil {
		t.Fatalf("delete people: %v", err)
	}

	people, err := store.ListPeople(ctx, "ws-1")
	if err != nil {
		t.Fatalf("list people: %v", err)
	}
	if len(people) != 1 || people[0].ID != "p-2" {
		t.Fatalf("expected only p-2 to remain, got %+v", people)
	}
}

func TestDeletePeopleEmptyListIsNoop(t *testing.T) {
	store := openTempStore(t)
	if err := store.DeletePeople(context.Background(), nil); err != nil {
		t.Fatalf("expected nil for empty list, got %v", err)
	}
}

func TestDeletePeopleRejectsBlankID(t *testing.T) {
	store := openTempStore(t)
	if err := store.DeletePeople(context.Background(), []string{"p-1", " "}); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestEnrichmentProgressCounts(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")
	seedWorkspace(t, store, "ws-other")

	enrichedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	companies := []storage.Company{
		{ID: "co-1", WorkspaceID: "ws-1", Name: "Full", Industry: "Software", Size: "M2", Description: "done"},
		{ID: "co-2", WorkspaceID: "ws-1", Name: "Partial", Industry: "Software"},
		{ID: "co-3", WorkspaceID: "ws-other", Name: "Elsewhere", Industry: "X", Size: "S1", Description: "y"},
	}
	for _, company := range companies {
		if err := store.PutCompany(ctx, company); err != nil {
			t.Fatalf("put company %s: %v", company.ID, err)
		}
	}

	people := []storage.Person{
		{ID: "p-1", WorkspaceID: "ws-1", FullName: "A", Email: "a@x.com", EnrichedAt: &enrichedAt, AssignedSellerID: "seller-1"},
		{ID: "p-2", WorkspaceID: "ws-1", FullName: "B", Email: "b@x.com"},
		{ID: "p-3", WorkspaceID: "ws-1", FullName: "C"},
		{ID: "p-4", WorkspaceID: "ws-other", FullName: "D", Email: "d@x.com"},
	}
	for _, person := range people {
		if err := store.PutPerson(ctx, person); err != nil {
			t.Fatalf("put person %s: %v", person.ID, err)
		}
	}

	progress, err := store.GetEnrichmentProgress(ctx, "ws-1")
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	want := storage.EnrichmentProgress{
		Companies:         2,
		CompaniesEnriched: 1,
		People:            3,
		PeopleWithEmail:   2,
		PeopleEnriched:    1,
		PeopleAssigned:    1,
	}
	if progress != want {
		t.Fatalf("expected %+v, got %+v", want, progress)
	}
}

func TestNilStoreOperations(t *testing.T) {
	var store *Store
	ctx := context.Background()
	if err := store.PutPerson(ctx, storage.Person{ID: "p", WorkspaceID: "w", FullName: "n"}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := store.ListPeople(ctx, "w"); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := store.GetEnrichmentProgress(ctx, "w"); err == nil {
		t.Fatal("expected error for nil store")
	}
}
