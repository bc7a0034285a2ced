package database

import (
	"context"
	"fmt"
	"strings"
)

// GetActiveAdminByAuthID returns the active admin row matching the
// authentication identity, or ErrNotFound. A deactivated row does not
// match: this is the sole role-determination primitive system-wide.
func (r *Repository) GetActiveAdminByAuthID(ctx context.Context, authID string) (*Admin, error) {
	if strings.TrimSpace(authID) == "" {
		return nil, fmt.Errorf("%w: authID cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("admins").
		Eq("auth_id", authID).
		Eq("is_active", true).
		Limit(1).
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get admin by auth_id: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: get admin by auth_id: %v", ErrDatabaseError, err)
	}

	var rows []Admin
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal admins: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("admin", authID)
	}
	return &rows[0], nil
}
