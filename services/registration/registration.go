// Package registration implements the sign-up workflow: authentication
// identity first, then the profile row, with a compensating delete of
// the identity when the profile insert fails.
package registration

import (
	"context"
	"fmt"
	"strings"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/pkg/format"
	"github.com/ConfSphere/conference_layer/services/notify"
)

// Request carries the registration form. Fee and currency travel with
// the request explicitly; there is no ambient selection state.
type Request struct {
	Email    string
	Password string

	Title       string
	FullName    string
	Phone       string
	Affiliation string
	Designation string
	Address     string
	Country     string
	City        string

	Category             string
	RegistrationFee      float64
	Currency             string
	NewsletterSubscribed bool
}

// Service runs the registration workflow.
type Service struct {
	auth    *identity.Service
	repo    database.RepositoryInterface
	notify  *notify.Service
	logger  *logging.Logger
	metrics MetricsRecorder
}

// MetricsRecorder counts workflow outcomes.
type MetricsRecorder interface {
	RecordWorkflowOp(operation, outcome string)
}

// NewService creates a registration service.
func NewService(auth *identity.Service, repo database.RepositoryInterface, notifier *notify.Service, logger *logging.Logger, metrics MetricsRecorder) *Service {
	return &Service{auth: auth, repo: repo, notify: notifier, logger: logger, metrics: metrics}
}

// NormalizeCategory maps form category values onto the persisted enum.
// listener_* variants collapse to listener, scholar maps to student,
// expert maps to scientist; anything else passes through unchanged.
func NormalizeCategory(category string) string {
	switch {
	case strings.HasPrefix(category, "listener_"):
		return database.CategoryListener
	case category == "scholar":
		return database.CategoryStudent
	case category == "expert":
		return database.CategoryScientist
	default:
		return category
	}
}

func (r Request) validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return svcerr.Validation("full name is required")
	}
	if !format.ValidEmail(r.Email) {
		return svcerr.Validation("invalid email address")
	}
	if r.Password == "" {
		return svcerr.Validation("password is required")
	}
	if r.Phone != "" && !format.ValidPhone(r.Phone) {
		return svcerr.Validation("invalid phone number")
	}
	if r.RegistrationFee < 0 {
		return svcerr.Validation("registration fee cannot be negative")
	}
	return nil
}

// Submit creates the authentication identity, then the profile row. If
// the profile insert fails the identity is deleted again so a retry
// with the same email succeeds.
func (s *Service) Submit(ctx context.Context, req Request) (*database.User, error) {
	if err := req.validate(); err != nil {
		s.record("registration", "validation_error")
		return nil, err
	}

	authID, err := s.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		s.record("registration", "auth_error")
		return nil, err
	}

	create := database.UserCreate{
		AuthID:               authID,
		Title:                req.Title,
		FullName:             strings.TrimSpace(req.FullName),
		Email:                strings.TrimSpace(strings.ToLower(req.Email)),
		Phone:                req.Phone,
		Affiliation:          req.Affiliation,
		Designation:          req.Designation,
		Address:              req.Address,
		Country:              req.Country,
		City:                 req.City,
		Category:             NormalizeCategory(req.Category),
		RegistrationFee:      req.RegistrationFee,
		Currency:             req.Currency,
		NewsletterSubscribed: req.NewsletterSubscribed,
	}

	user, err := s.repo.CreateUser(ctx, create)
	if err != nil {
		s.compensate(ctx, authID)
		s.record("registration", "profile_error")
		if database.IsInvalidInput(err) {
			return nil, svcerr.Validation(err.Error())
		}
		return nil, svcerr.Upstream("create registration profile", err)
	}

	s.auth.Invalidate(authID)
	s.record("registration", "success")
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"category": user.Category,
	}).Info("registration completed")

	s.notify.Send(ctx, notify.Notification{
		RecipientEmail: user.Email,
		RecipientName:  user.FullName,
		Subject:        "Registration confirmed",
		Body: fmt.Sprintf("Dear %s, your registration as %s is confirmed. Fee: %s.",
			user.FullName, user.Category, format.Currency(user.RegistrationFee, user.Currency)),
		Type: notify.TypeRegistrationConfirmation,
	})

	return user, nil
}

// compensate removes the orphaned auth identity after a failed profile
// insert. Failure here is logged; the original error still surfaces.
func (s *Service) compensate(ctx context.Context, authID string) {
	if err := s.auth.DeleteAuthIdentity(ctx, authID); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("auth_id", authID).
			Error("compensating identity delete failed, orphaned auth identity remains")
	}
}

func (s *Service) record(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordWorkflowOp(operation, outcome)
	}
}
