// Package identity resolves authenticated principals to their role and
// profile. An identity is exactly one of user, admin, or unresolved;
// callers branch on Kind instead of comparing role strings.
package identity

import (
	"context"

	"github.com/ConfSphere/conference_layer/internal/database"
)

// Kind tags an Identity.
type Kind string

const (
	// KindUser is an identity backed by a registration profile row.
	KindUser Kind = "user"
	// KindAdmin is an identity backed by an active admins row.
	KindAdmin Kind = "admin"
	// KindUnresolved is an authenticated identity with no matching row
	// in either table. Callers treat it as "registration incomplete".
	KindUnresolved Kind = "unresolved"
)

// Identity is a resolved principal. Exactly one of User or Admin is
// non-nil, matching Kind; both are nil for KindUnresolved.
type Identity struct {
	Kind   Kind
	AuthID string
	Email  string

	User  *database.User
	Admin *database.Admin
}

// IsAdmin reports whether the identity resolved to an active admin row.
func (id Identity) IsAdmin() bool {
	return id.Kind == KindAdmin
}

// Profile returns the registration profile, or nil when the identity is
// an admin or unresolved.
func (id Identity) Profile() *database.User {
	return id.User
}

// DisplayName returns the best available human-readable name.
func (id Identity) DisplayName() string {
	switch id.Kind {
	case KindUser:
		return id.User.FullName
	case KindAdmin:
		return id.Admin.FullName
	default:
		return id.Email
	}
}

// Resolve maps an authentication identity to a tagged Identity. The
// users table is consulted first; the admins table is the fallback. An
// identity with no row in either table resolves to KindUnresolved,
// which is a valid outcome, not an error.
func Resolve(ctx context.Context, repo database.RepositoryInterface, authID, email string) (Identity, error) {
	user, err := repo.GetUserByAuthID(ctx, authID)
	if err == nil {
		return Identity{Kind: KindUser, AuthID: authID, Email: email, User: user}, nil
	}
	if !database.IsNotFound(err) {
		return Identity{}, err
	}

	admin, err := repo.GetActiveAdminByAuthID(ctx, authID)
	if err == nil {
		return Identity{Kind: KindAdmin, AuthID: authID, Email: email, Admin: admin}, nil
	}
	if !database.IsNotFound(err) {
		return Identity{}, err
	}

	return Identity{Kind: KindUnresolved, AuthID: authID, Email: email}, nil
}
