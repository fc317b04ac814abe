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

// PutSeller inserts or replaces a seller row.
func (s *Store) PutSeller(ctx context.Context, seller storage.Seller) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	seller.ID = strings.TrimSpace(seller.ID)
	seller.WorkspaceID = strings.TrimSpace(seller.WorkspaceID)
	seller.DisplayName = strings.TrimSpace(seller.DisplayName)
	if seller.ID == "" {
		return fmt.Errorf("seller id is required")
	}
	if seller.WorkspaceID == "" {
		return fmt.Errorf("workspace id is required")
	}
	if seller.DisplayName == "" {
		return fmt.Errorf("seller display name is required")
	}
	if seller.CreatedAt.IsZero() {
		seller.CreatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sellers (id, workspace_id, user_id, display_name, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	workspace_id = excluded.workspace_id,
	user_id = excluded.user_id,
	display_name = excluded.display_name
`,
		seller.ID,
		seller.WorkspaceID,
		seller.UserID,
		seller.DisplayName,
		toMillis(seller.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put seller: %w", err)
	}
	return nil
}

// GetSellerByName loads a seller inside a workspace by its display name,
// matched case-insensitively.
func (s *Store) GetSellerByName(ctx context.Context, workspaceID string, displayName string) (storage.Seller, error) {
	if err := ctx.Err(); err != nil {
		return storage.Seller{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Seller{}, fmt.Errorf("storage is not configured")
	}
	workspaceID = strings.TrimSpace(workspaceID)
	displayName = strings.TrimSpace(displayName)
	if workspaceID == "" {
		return storage.Seller{}, fmt.Errorf("workspace id is required")
	}
	if displayName == "" {
		return storage.Seller{}, fmt.Errorf("seller display name is required")
	}

	var seller storage.Seller
	var createdAt int64
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, workspace_id, user_id, display_name, created_at
FROM sellers
WHERE workspace_id = ? AND lower(display_name) = lower(?)
`, workspaceID, displayName)
	if err := row.Scan(&seller.ID, &seller.WorkspaceID, &seller.UserID, &seller.DisplayName, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Seller{}, storage.ErrNotFound
		}
		return storage.Seller{}, fmt.Errorf("get seller by name: %w", err)
	}
	seller.CreatedAt = fromMillis(createdAt)
	return seller, nil
}
