package database

import (
	"context"
	"fmt"
	"strings"
)

// InsertActivityLog appends an audit entry. Callers treat failures as
// non-fatal; this method only reports them.
func (r *Repository) InsertActivityLog(ctx context.Context, entry ActivityLog) error {
	if strings.TrimSpace(entry.ActionType) == "" {
		return fmt.Errorf("%w: action_type cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("activity_logs").ExecuteInsert(ctx, entry)
	if err != nil {
		return fmt.Errorf("%w: insert activity log: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return fmt.Errorf("%w: insert activity log: %v", ErrDatabaseError, err)
	}
	return nil
}

// ListActivityLogs returns audit entries, newest first.
func (r *Repository) ListActivityLogs(ctx context.Context, limit int) ([]ActivityLog, error) {
	q := r.client.From("activity_logs").Order("created_at", false)
	if limit > 0 {
		q = q.Limit(limit)
	}

	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list activity logs: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: list activity logs: %v", ErrDatabaseError, err)
	}

	var rows []ActivityLog
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal activity logs: %v", ErrDatabaseError, err)
	}
	return rows, nil
}

// InsertEmailNotification appends a notification attempt record. Writing
// the row never implies delivery.
func (r *Repository) InsertEmailNotification(ctx context.Context, entry EmailNotification) error {
	if strings.TrimSpace(entry.RecipientEmail) == "" {
		return fmt.Errorf("%w: recipient_email cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("email_notifications").ExecuteInsert(ctx, entry)
	if err != nil {
		return fmt.Errorf("%w: insert email notification: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return fmt.Errorf("%w: insert email notification: %v", ErrDatabaseError, err)
	}
	return nil
}
