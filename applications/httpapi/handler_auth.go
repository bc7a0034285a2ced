package httpapi

import (
	"net/http"

	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/httputil"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/middleware"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Role         string `json:"role"`
	Profile      any    `json:"profile,omitempty"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	authID, err := s.ids.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"auth_id": authID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, err := s.ids.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		Role:         string(session.Identity.Kind),
	}
	switch session.Identity.Kind {
	case identity.KindUser:
		resp.Profile = session.Identity.User
	case identity.KindAdmin:
		resp.Profile = session.Identity.Admin
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	if err := s.ids.Logout(r.Context(), ident.AuthID, middleware.AccessTokenFromContext(r.Context())); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := s.ids.ResetPassword(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "recovery_sent"})
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := s.ids.UpdatePassword(r.Context(), middleware.AccessTokenFromContext(r.Context()), req.NewPassword); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_updated"})
}

// handleCurrentProfile returns the caller's resolved identity. An
// unresolved identity is a valid answer meaning registration is
// incomplete, not an error.
func (s *Server) handleCurrentProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	resp := map[string]any{"role": string(ident.Kind)}
	switch ident.Kind {
	case identity.KindUser:
		resp["profile"] = ident.User
	case identity.KindAdmin:
		resp["profile"] = ident.Admin
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
