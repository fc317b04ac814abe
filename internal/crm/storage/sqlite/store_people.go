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

const personColumns = `
id, workspace_id, company_id, full_name, first_name, last_name, email,
job_title, department, buyer_group_role, assigned_seller_id, status,
enriched_at, created_at, updated_at
`

// PutPerson inserts or replaces a person row.
func (s *Store) PutPerson(ctx context.Context, person storage.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	person.ID = strings.TrimSpace(person.ID)
	person.WorkspaceID = strings.TrimSpace(person.WorkspaceID)
	person.FullName = strings.TrimSpace(person.FullName)
	if person.ID == "" {
		return fmt.Errorf("person id is required")
	}
	if person.WorkspaceID == "" {
		return fmt.Errorf("workspace id is required")
	}
	if person.FullName == "" {
		return fmt.Errorf("person full name is required")
	}
	now := time.Now().UTC()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	if person.UpdatedAt.IsZero() {
		person.UpdatedAt = now
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO people (
	id, workspace_id, company_id, full_name, first_name, last_name, email,
	job_title, department, buyer_group_role, assigned_seller_id, status,
	enriched_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	workspace_id = excluded.workspace_id,
	company_id = excluded.company_id,
	full_name = excluded.full_name,
	first_name = excluded.first_name,
	last_name = excluded.last_name,
	email = excluded.email,
	job_title = excluded.job_title,
	department = excluded.department,
	buyer_group_role = excluded.buyer_group_role,
	assigned_seller_id = excluded.assigned_seller_id,
	status = excluded.status,
	enriched_at = excluded.enriched_at,
	updated_at = excluded.updated_at
`,
		person.ID,
		person.WorkspaceID,
		person.CompanyID,
		person.FullName,
		person.FirstName,
		person.LastName,
		person.Email,
		person.JobTitle,
		person.Department,
		person.BuyerGroupRole,
		person.AssignedSellerID,
		person.Status,
		toNullMillis(person.EnrichedAt),
		toMillis(person.CreatedAt),
		toMillis(person.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put person: %w", err)
	}
	return nil
}

// ListPeople loads every person in a workspace ordered by id.
func (s *Store) ListPeople(ctx context.Context, workspaceID string) ([]storage.Person, error) {
	return s.listPeople(ctx, workspaceID, "")
}

// ListPeopleByCompany loads every person at a company inside a workspace.
func (s *Store) ListPeopleByCompany(ctx context.Context, workspaceID string, companyID string) ([]storage.Person, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, fmt.Errorf("company id is required")
	}
	return s.listPeople(ctx, workspaceID, companyID)
}

func (s *Store) listPeople(ctx context.Context, workspaceID string, companyID string) ([]storage.Person, error) {
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

	query := `
SELECT ` + personColumns + `
FROM people
WHERE workspace_id = ?
`
	args := []any{workspaceID}
	if companyID != "" {
		query += "AND company_id = ?\n"
		args = append(args, companyID)
	}
	query += "ORDER BY id"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []storage.Person
	for rows.Next() {
		person, err := scanPerson(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return people, nil
}

// FindPersonByEmail loads a person at a company by email, matched
// case-insensitively. The oldest row wins when duplicates exist.
func (s *Store) FindPersonByEmail(ctx context.Context, workspaceID string, companyID string, email string) (storage.Person, error) {
	if err := ctx.Err(); err != nil {
		return storage.Person{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Person{}, fmt.Errorf("storage is not configured")
	}
	workspaceID = strings.TrimSpace(workspaceID)
	companyID = strings.TrimSpace(companyID)
	email = strings.ToLower(strings.TrimSpace(email))
	if workspaceID == "" {
		return storage.Person{}, fmt.Errorf("workspace id is required")
	}
	if companyID == "" {
		return storage.Person{}, fmt.Errorf("company id is required")
	}
	if email == "" {
		return storage.Person{}, fmt.Errorf("person email is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+personColumns+`
FROM people
WHERE workspace_id = ? AND company_id = ? AND lower(email) = ?
ORDER BY created_at, id
LIMIT 1
`, workspaceID, companyID, email)
	person, err := scanPerson(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Person{}, storage.ErrNotFound
		}
		return storage.Person{}, fmt.Errorf("find person by email: %w", err)
	}
	return person, nil
}

// SetBuyerGroupRole updates the buyer-group classification of a person.
func (s *Store) SetBuyerGroupRole(ctx context.Context, personID string, role string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	personID = strings.TrimSpace(personID)
	role = strings.TrimSpace(role)
	if personID == "" {
		return fmt.Errorf("person id is required")
	}
	if role == "" {
		return fmt.Errorf("buyer group role is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE people SET buyer_group_role = ?, updated_at = ? WHERE id = ?
`, role, toMillis(now), personID)
	if err != nil {
		return fmt.Errorf("set buyer group role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set buyer group role: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeletePeople removes the given person rows in one transaction.
func (s *Store) DeletePeople(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("person id is required")
		}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	for _, id := range cleaned {
		if _, err := tx.ExecContext(ctx, "DELETE FROM people WHERE id = ?", id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete person %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	return nil
}

func scanPerson(scan func(...any) error) (storage.Person, error) {
	var person storage.Person
	var enrichedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&person.ID,
		&person.WorkspaceID,
		&person.CompanyID,
		&person.FullName,
		&person.FirstName,
		&person.LastName,
		&person.Email,
		&person.JobTitle,
		&person.Department,
		&person.BuyerGroupRole,
		&person.AssignedSellerID,
		&person.Status,
		&enrichedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Person{}, err
	}
	person.EnrichedAt = fromNullMillis(enrichedAt)
	person.CreatedAt = fromMillis(createdAt)
	person.UpdatedAt = fromMillis(updatedAt)
	return person, nil
}
