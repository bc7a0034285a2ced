package httpapi

import (
	"net/http"

	"github.com/ConfSphere/conference_layer/internal/httputil"
	"github.com/ConfSphere/conference_layer/services/registration"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	Title       string `json:"title,omitempty"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Designation string `json:"designation,omitempty"`
	Address     string `json:"address,omitempty"`
	Country     string `json:"country,omitempty"`
	City        string `json:"city,omitempty"`

	Category             string  `json:"category"`
	RegistrationFee      float64 `json:"registration_fee"`
	Currency             string  `json:"currency"`
	NewsletterSubscribed bool    `json:"newsletter_subscribed,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := s.registration.Submit(r.Context(), registration.Request{
		Email:                req.Email,
		Password:             req.Password,
		Title:                req.Title,
		FullName:             req.FullName,
		Phone:                req.Phone,
		Affiliation:          req.Affiliation,
		Designation:          req.Designation,
		Address:              req.Address,
		Country:              req.Country,
		City:                 req.City,
		Category:             req.Category,
		RegistrationFee:      req.RegistrationFee,
		Currency:             req.Currency,
		NewsletterSubscribed: req.NewsletterSubscribed,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}
