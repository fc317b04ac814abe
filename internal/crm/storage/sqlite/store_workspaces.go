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

// PutWorkspace inserts or replaces a workspace row.
func (s *Store) PutWorkspace(ctx context.Context, workspace storage.Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	workspace.ID = strings.TrimSpace(workspace.ID)
	workspace.Name = strings.TrimSpace(workspace.Name)
	if workspace.ID == "" {
		return fmt.Errorf("workspace id is required")
	}
	if workspace.Name == "" {
		return fmt.Errorf("workspace name is required")
	}
	now := time.Now().UTC()
	if workspace.CreatedAt.IsZero() {
		workspace.CreatedAt = now
	}
	if workspace.UpdatedAt.IsZero() {
		workspace.UpdatedAt = now
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO workspaces (id, name, slug, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	slug = excluded.slug,
	updated_at = excluded.updated_at
`,
		workspace.ID,
		workspace.Name,
		workspace.Slug,
		toMillis(workspace.CreatedAt),
		toMillis(workspace.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put workspace: %w", err)
	}
	return nil
}

// GetWorkspace loads a workspace by id.
func (s *Store) GetWorkspace(ctx context.Context, id string) (storage.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return storage.Workspace{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Workspace{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Workspace{}, fmt.Errorf("workspace id is required")
	}

	var workspace storage.Workspace
	var createdAt, updatedAt int64
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, slug, created_at, updated_at
FROM workspaces
WHERE id = ?
`, id)
	if err := row.Scan(&workspace.ID, &workspace.Name, &workspace.Slug, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Workspace{}, storage.ErrNotFound
		}
		return storage.Workspace{}, fmt.Errorf("get workspace: %w", err)
	}
	workspace.CreatedAt = fromMillis(createdAt)
	workspace.UpdatedAt = fromMillis(updatedAt)
	return workspace, nil
}
