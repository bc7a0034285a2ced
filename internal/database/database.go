// Package database provides record-store access for the conference
// platform over the Supabase gateway. One file per table; the tables are
// the contract, not the wire format.
package database

import (
	"errors"
	"fmt"

	"github.com/ConfSphere/conference_layer/supabase/client"
)

// Sentinel errors wrapped by repository methods.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
)

// NewNotFoundError builds an ErrNotFound for a resource/id pair.
func NewNotFoundError(resource, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err is a validation failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// ValidateStatus checks value against an allowed status set.
func ValidateStatus(value string, allowed []string) error {
	for _, s := range allowed {
		if value == s {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid status %q", ErrInvalidInput, value)
}

// Repository provides typed access to the record-store tables.
type Repository struct {
	client *client.Client
}

// NewRepository creates a repository over the gateway client.
func NewRepository(c *client.Client) *Repository {
	return &Repository{client: c}
}

// Client exposes the underlying gateway client.
func (r *Repository) Client() *client.Client {
	return r.client
}
