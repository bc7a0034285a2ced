package database

import (
	"context"
	"fmt"
	"strings"
)

// UserCreate carries the fields for a new profile row. Fee and currency
// are set here once and never recomputed afterwards.
type UserCreate struct {
	AuthID               string  `json:"auth_id"`
	Title                string  `json:"title,omitempty"`
	FullName             string  `json:"full_name"`
	Email                string  `json:"email"`
	Phone                string  `json:"phone,omitempty"`
	Affiliation          string  `json:"affiliation,omitempty"`
	Designation          string  `json:"designation,omitempty"`
	Address              string  `json:"address,omitempty"`
	Country              string  `json:"country,omitempty"`
	City                 string  `json:"city,omitempty"`
	Category             string  `json:"category"`
	RegistrationFee      float64 `json:"registration_fee"`
	Currency             string  `json:"currency"`
	PaymentCompleted     bool    `json:"payment_completed"`
	PaymentMethod        string  `json:"payment_method,omitempty"`
	NewsletterSubscribed bool    `json:"newsletter_subscribed"`
}

// UserUpdate carries optional field updates; nil fields are untouched.
type UserUpdate struct {
	PaymentCompleted *bool    `json:"payment_completed,omitempty"`
	PaymentMethod    *string  `json:"payment_method,omitempty"`
	RegistrationFee  *float64 `json:"registration_fee,omitempty"`
	Currency         *string  `json:"currency,omitempty"`
	IsDeleted        *bool    `json:"is_deleted,omitempty"`
}

func (c UserCreate) validate() error {
	if strings.TrimSpace(c.AuthID) == "" {
		return fmt.Errorf("%w: auth_id cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(c.FullName) == "" {
		return fmt.Errorf("%w: full_name cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}
	if err := ValidateStatus(c.Category, Categories); err != nil {
		return fmt.Errorf("%w: invalid category %q", ErrInvalidInput, c.Category)
	}
	return nil
}

// CreateUser inserts a profile row and returns the stored representation.
func (r *Repository) CreateUser(ctx context.Context, create UserCreate) (*User, error) {
	if err := create.validate(); err != nil {
		return nil, err
	}

	resp, err := r.client.From("users").ExecuteInsert(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("%w: create user: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: create user: %v", ErrDatabaseError, err)
	}

	var rows []User
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal users: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: create user returned no rows", ErrDatabaseError)
	}
	return &rows[0], nil
}

// GetUserByAuthID fetches the profile row for an authentication identity.
// Soft-deleted rows are excluded.
func (r *Repository) GetUserByAuthID(ctx context.Context, authID string) (*User, error) {
	if strings.TrimSpace(authID) == "" {
		return nil, fmt.Errorf("%w: authID cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("users").
		Eq("auth_id", authID).
		Eq("is_deleted", false).
		Limit(1).
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get user by auth_id: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: get user by auth_id: %v", ErrDatabaseError, err)
	}

	var rows []User
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal users: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("user", authID)
	}
	return &rows[0], nil
}

// GetUserByID fetches a profile row by primary key.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("users").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: get user: %v", ErrDatabaseError, err)
	}

	var rows []User
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal users: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("user", id)
	}
	return &rows[0], nil
}

// UpdateUser applies a partial update and returns the stored row.
func (r *Repository) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("users").Eq("id", id).ExecuteUpdate(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("%w: update user: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: update user: %v", ErrDatabaseError, err)
	}

	var rows []User
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal users: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("user", id)
	}
	return &rows[0], nil
}

// SoftDeleteUser marks a profile row deleted. Rows are never hard-deleted
// through the normal flow.
func (r *Repository) SoftDeleteUser(ctx context.Context, id string) error {
	deleted := true
	_, err := r.UpdateUser(ctx, id, UserUpdate{IsDeleted: &deleted})
	return err
}

// ListUsers returns all non-deleted profile rows, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	resp, err := r.client.From("users").
		Eq("is_deleted", false).
		Order("created_at", false).
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrDatabaseError, err)
	}

	var rows []User
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal users: %v", ErrDatabaseError, err)
	}
	return rows, nil
}
