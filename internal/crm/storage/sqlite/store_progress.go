package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/arvela/crmops/internal/crm/storage"
)

// GetEnrichmentProgress counts enrichment completeness for a workspace.
//
// A company counts as enriched once industry, size, and description are all
// populated; a person counts as enriched once enriched_at is set.
func (s *Store) GetEnrichmentProgress(ctx context.Context, workspaceID string) (storage.EnrichmentProgress, error) {
	if err := ctx.Err(); err != nil {
		return storage.EnrichmentProgress{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EnrichmentProgress{}, fmt.Errorf("storage is not configured")
	}
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return storage.EnrichmentProgress{}, fmt.Errorf("workspace id is required")
	}

	var progress storage.EnrichmentProgress
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(CASE WHEN industry != '' AND size != '' AND description != '' THEN 1 END)
FROM companies
WHERE workspace_id = ?
`, workspaceID)
	if err := row.Scan(&progress.Companies, &progress.CompaniesEnriched); err != nil {
		return storage.EnrichmentProgress{}, fmt.Errorf("count companies: %w", err)
	}

	row = s.sqlDB.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(CASE WHEN email != '' THEN 1 END),
	COUNT(enriched_at),
	COUNT(CASE WHEN assigned_seller_id != '' THEN 1 END)
FROM people
WHERE workspace_id = ?
`, workspaceID)
	if err := row.Scan(
		&progress.People,
		&progress.PeopleWithEmail,
		&progress.PeopleEnriched,
		&progress.PeopleAssigned,
	); err != nil {
		return storage.EnrichmentProgress{}, fmt.Errorf("count people: %w", err)
	}

	return progress, nil
}
