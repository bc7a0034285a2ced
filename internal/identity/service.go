package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

// Service wraps GoTrue auth operations and role resolution behind one
// surface. Role is resolved at login and cached for the session; a
// registration that completes mid-session invalidates the cache entry.
type Service struct {
	client *client.Client
	repo   database.RepositoryInterface
	cache  *SessionCache
	logger *logging.Logger
}

// NewService creates an identity service.
func NewService(c *client.Client, repo database.RepositoryInterface, logger *logging.Logger) *Service {
	return &Service{
		client: c,
		repo:   repo,
		cache:  NewSessionCache(),
		logger: logger,
	}
}

// SignUp creates an authentication identity. No profile row is written
// here; registration completes separately.
func (s *Service) SignUp(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", svcerr.Validation("email is required")
	}
	if password == "" {
		return "", svcerr.Validation("password is required")
	}

	resp, err := s.client.Auth().SignUp(ctx, email, password)
	if err != nil {
		return "", mapAuthError(err)
	}
	if resp.User == nil {
		return "", svcerr.Upstream("sign-up returned no identity", nil)
	}

	s.logger.WithContext(ctx).WithField("auth_id", resp.User.ID).Info("auth identity created")
	return resp.User.ID, nil
}

// Login authenticates with the password grant, resolves the identity's
// role, and caches the session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, svcerr.Validation("email and password are required")
	}

	resp, err := s.client.Auth().SignIn(ctx, email, password)
	if err != nil {
		s.logger.LogSecurityEvent(ctx, "login_failed", map[string]interface{}{"email": email})
		return nil, mapAuthError(err)
	}
	if resp.User == nil || resp.AccessToken == "" {
		return nil, svcerr.Upstream("sign-in returned no session", nil)
	}

	ident, err := Resolve(ctx, s.repo, resp.User.ID, resp.User.Email)
	if err != nil {
		return nil, svcerr.Upstream("resolve identity", err)
	}

	session := &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Identity:     ident,
	}
	if resp.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	s.cache.Store(session)

	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"auth_id": ident.AuthID,
		"role":    string(ident.Kind),
	}).Info("login succeeded")
	return session, nil
}

// Logout revokes the session upstream and evicts the cache entry. The
// cache is cleared even when revocation fails.
func (s *Service) Logout(ctx context.Context, authID, accessToken string) error {
	s.cache.Remove(authID)

	if err := s.client.Auth().SignOut(ctx, accessToken); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("upstream sign-out failed")
		return mapAuthError(err)
	}
	return nil
}

// ResetPassword requests a recovery email. The response never reveals
// whether the address has an account.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return svcerr.Validation("email is required")
	}
	if err := s.client.Auth().Recover(ctx, email); err != nil {
		return mapAuthError(err)
	}
	return nil
}

// UpdatePassword sets a new password for the session's identity.
func (s *Service) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	if newPassword == "" {
		return svcerr.Validation("new password is required")
	}
	if err := s.client.Auth().UpdatePassword(ctx, accessToken, newPassword); err != nil {
		return mapAuthError(err)
	}
	return nil
}

// Identify returns the resolved identity for an authenticated principal,
// reusing the session cache when it holds one.
func (s *Service) Identify(ctx context.Context, authID, email string) (Identity, error) {
	if session := s.cache.Get(authID); session != nil {
		return session.Identity, nil
	}
	ident, err := Resolve(ctx, s.repo, authID, email)
	if err != nil {
		return Identity{}, svcerr.Upstream("resolve identity", err)
	}
	return ident, nil
}

// Invalidate drops the cached session so the next Identify re-resolves.
// Called after registration completes mid-session.
func (s *Service) Invalidate(authID string) {
	s.cache.Remove(authID)
}

// IsAdmin reports whether the auth identity has an active admins row.
func (s *Service) IsAdmin(ctx context.Context, authID string) (bool, error) {
	ident, err := s.Identify(ctx, authID, "")
	if err != nil {
		return false, err
	}
	return ident.IsAdmin(), nil
}

// DeleteAuthIdentity removes an authentication identity. Used as the
// compensating action when profile creation fails after sign-up.
func (s *Service) DeleteAuthIdentity(ctx context.Context, authID string) error {
	if err := s.client.Auth().DeleteUser(ctx, authID); err != nil {
		return mapAuthError(err)
	}
	return nil
}

// RequireProfile returns the registration profile or an error the
// caller can surface directly. Unresolved identities get an
// "incomplete profile" error, admins an authorization error.
func RequireProfile(ident Identity) (*database.User, error) {
	switch ident.Kind {
	case KindUser:
		return ident.User, nil
	case KindAdmin:
		return nil, svcerr.Unauthorized("operation requires a registration profile")
	default:
		return nil, svcerr.IncompleteProfile("complete your registration first")
	}
}

// RequireAdmin returns the admin row or an authorization error.
func RequireAdmin(ident Identity) (*database.Admin, error) {
	if ident.Kind != KindAdmin {
		return nil, svcerr.Unauthorized("operation requires admin privileges")
	}
	return ident.Admin, nil
}

// mapAuthError converts gateway auth failures to the service taxonomy.
func mapAuthError(err error) error {
	var authErr *client.AuthError
	if !errors.As(err, &authErr) {
		return svcerr.Upstream("auth request failed", err)
	}

	msg := strings.ToLower(authErr.Message)
	switch {
	case authErr.Code == "user_already_exists" || strings.Contains(msg, "already registered"):
		return svcerr.Validation("an account with this email already exists")
	case authErr.Code == "weak_password" || strings.Contains(msg, "password should be"):
		return svcerr.Validation("password does not meet the minimum requirements")
	case authErr.Code == "invalid_credentials" || strings.Contains(msg, "invalid login credentials"):
		return svcerr.NotAuthenticated("invalid email or password")
	case authErr.StatusCode == 401 || authErr.StatusCode == 403:
		return svcerr.NotAuthenticated("session is no longer valid")
	case authErr.Code == "validation_failed" || authErr.StatusCode == 422:
		return svcerr.Validation(authErr.Message)
	default:
		return svcerr.Upstream("auth request failed", authErr)
	}
}
