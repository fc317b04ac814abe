package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arvela/crmops/internal/crm/storage"
)

const companyColumns = `
id, workspace_id, name, domain, industry, size, employee_count, revenue,
description, enriched_at, created_at, updated_at
`

// PutCompany inserts or replaces a company row.
func (s *Store) PutCompany(ctx context.Context, company storage.Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	company.ID = strings.TrimSpace(company.ID)
	company.WorkspaceID = strings.TrimSpace(company.WorkspaceID)
	company.Name = strings.TrimSpace(company.Name)
	if company.ID == "" {
		return fmt.Errorf("company id is required")
	}
	if company.WorkspaceID == "" {
		return fmt.Errorf("workspace id is required")
	}
	if company.Name == "" {
		return fmt.Errorf("company name is required")
	}
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	if company.UpdatedAt.IsZero() {
		company.UpdatedAt = now
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO companies (
	id, workspace_id, name, domain, industry, size, employee_count, revenue,
	description, enriched_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	workspace_id = excluded.workspace_id,
	name = excluded.name,
	domain = excluded.domain,
	industry = excluded.industry,
	size = excluded.size,
	employee_count = excluded.employee_count,
	revenue = excluded.revenue,
	description = excluded.description,
	enriched_at = excluded.enriched_at,
	updated_at = excluded.updated_at
`,
		company.ID,
		company.WorkspaceID,
		company.Name,
		company.Domain,
		company.Industry,
		company.Size,
		company.EmployeeCount,
		company.Revenue,
		company.Description,
		toNullMillis(company.EnrichedAt),
		toMillis(company.CreatedAt),
		toMillis(company.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put company: %w", err)
	}
	return nil
}

// GetCompany loads a company by id.
func (s *Store) GetCompany(ctx context.Context, id string) (storage.Company, error) {
	if err := ctx.Err(); err != nil {
		return storage.Company{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Company{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Company{}, fmt.Errorf("company id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+companyColumns+`
FROM companies
WHERE id = ?
`, id)
	company, err := scanCompany(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Company{}, storage.ErrNotFound
		}
		return storage.Company{}, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

// ListCompanies loads every company in a workspace ordered by name.
func (s *Store) ListCompanies(ctx context.Context, workspaceID string) ([]storage.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+companyColumns+`
FROM companies
WHERE workspace_id = ?
ORDER BY name, id
`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []storage.Company
	for rows.Next() {
		company, err := scanCompany(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// UpdateCompanyIdentity restores a company's name and domain.
func (s *Store) UpdateCompanyIdentity(ctx context.Context, id string, name string, domain string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return fmt.Errorf("company id is required")
	}
	if name == "" {
		return fmt.Errorf("company name is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE companies SET name = ?, domain = ?, updated_at = ? WHERE id = ?
`, name, domain, toMillis(now), id)
	if err != nil {
		return fmt.Errorf("update company identity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update company identity: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanCompany(scan func(...any) error) (storage.Company, error) {
	var company storage.Company
	var enrichedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&company.ID,
		&company.WorkspaceID,
		&company.Name,
		&company.Domain,
		&company.Industry,
		&company.Size,
		&company.EmployeeCount,
		&company.Revenue,
		&company.Description,
		&enrichedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Company{}, err
	}
	company.EnrichedAt = fromNullMillis(enrichedAt)
	company.CreatedAt = fromMillis(createdAt)
	company.UpdatedAt = fromMillis(updatedAt)
	return company, nil
}
