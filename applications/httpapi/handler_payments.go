package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/httputil"
	"github.com/ConfSphere/conference_layer/internal/middleware"
	"github.com/ConfSphere/conference_layer/services/payment"
)

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	var req struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	intent, err := s.payment.CreateIntent(r.Context(), ident, req.Amount, req.Currency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, intent)
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	var req payment.ConfirmRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := s.payment.Confirm(r.Context(), ident, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (s *Server) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	err := s.payment.Cancel(r.Context(), ident, mux.Vars(r)["orderID"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
