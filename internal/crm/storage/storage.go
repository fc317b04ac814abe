package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Workspace is the top-level tenant partition of the CRM schema.
type Workspace struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is an application login identity.
type User struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string
	IsActive          bool
	ActiveWorkspaceID string
	LastLoginAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Seller is a workspace member who owns accounts and people.
type Seller struct {
	ID          string
	WorkspaceID string
	UserID      string
	DisplayName string
	CreatedAt   time.Time
}

// Company is a target account inside a workspace.
type Company struct {
	ID            string
	WorkspaceID   string
	Name          string
	Domain        string
	Industry      string
	Size          string
	EmployeeCount int
	Revenue       string
	Description   string
	EnrichedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Person is a contact at a company inside a workspace.
type Person struct {
	ID               string
	WorkspaceID      string
	CompanyID        string
	FullName         string
	FirstName        string
	LastName         string
	Email            string
	JobTitle         string
	Department       string
	BuyerGroupRole   string
	AssignedSellerID string
	Status           string
	EnrichedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EnrichmentProgress summarises how much of a workspace has been enriched.
type EnrichmentProgress struct {
	Companies         int `json:"companies"`
	CompaniesEnriched int `json:"companies_enriched"`
	People            int `json:"people"`
	PeopleWithEmail   int `json:"people_with_email"`
	PeopleEnriched    int `json:"people_enriched"`
	PeopleAssigned    int `json:"people_assigned"`
}

// WorkspaceStore persists workspace rows.
type WorkspaceStore interface {
	PutWorkspace(ctx context.Context, workspace Workspace) error
	GetWorkspace(ctx context.Context, id string) (Workspace, error)
}

// UserStore persists login identities.
type UserStore interface {
	PutUser(ctx context.Context, user User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUserPassword(ctx context.Context, id string, passwordHash string, now time.Time) error
}

// SellerStore persists workspace sellers.
type SellerStore interface {
	PutSeller(ctx context.Context, seller Seller) error
	GetSellerByName(ctx context.Context, workspaceID string, displayName string) (Seller, error)
}

// CompanyStore persists target accounts.
type CompanyStore interface {
	PutCompany(ctx context.Context, company Company) error
	GetCompany(ctx context.Context, id string) (Company, error)
	ListCompanies(ctx context.Context, workspaceID string) ([]Company, error)
	UpdateCompanyIdentity(ctx context.Context, id string, name string, domain string, now time.Time) error
}

// PersonStore persists contacts.
type PersonStore interface {
	PutPerson(ctx context.Context, person Person) error
	ListPeople(ctx context.Context, workspaceID string) ([]Person, error)
	ListPeopleByCompany(ctx context.Context, workspaceID string, companyID string) ([]Person, error)
	FindPersonByEmail(ctx context.Context, workspaceID string, companyID string, email string) (Person, error)
	SetBuyerGroupRole(ctx context.Context, personID string, role string, now time.Time) error
	DeletePeople(ctx context.Context, ids []string) error
}

// ProgressStore reports workspace enrichment completeness.
type ProgressStore interface {
	GetEnrichmentProgress(ctx context.Context, workspaceID string) (EnrichmentProgress, error)
}
