// Package payment implements the two-phase checkout flow: a pending
// intent is created first, then confirmed with a signature from the
// checkout provider. A cron sweep expires intents that never confirm.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
)

// Intent is a pending checkout returned to the client.
type Intent struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ConfirmRequest carries the checkout provider's success callback.
type ConfirmRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Service runs the payment workflow.
type Service struct {
	repo    database.RepositoryInterface
	logger  *logging.Logger
	metrics MetricsRecorder
	secret  string
}

// MetricsRecorder counts workflow outcomes.
type MetricsRecorder interface {
	RecordWorkflowOp(operation, outcome string)
}

// NewService creates a payment service. secret is the checkout
// provider's signing key.
func NewService(repo database.RepositoryInterface, logger *logging.Logger, metrics MetricsRecorder, secret string) *Service {
	return &Service{repo: repo, logger: logger, metrics: metrics, secret: secret}
}

// Sign computes the checkout signature over an order/payment pair.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateIntent persists a pending payment for the caller's registration
// fee and returns the order handle the checkout widget needs.
func (s *Service) CreateIntent(ctx context.Context, ident identity.Identity, amount float64, currency string) (*Intent, error) {
	profile, err := identity.RequireProfile(ident)
	if err != nil {
		s.record("payment_intent", "unauthorized")
		return nil, err
	}
	if amount <= 0 {
		s.record("payment_intent", "validation_error")
		return nil, svcerr.Validation("amount must be positive")
	}
	if currency == "" {
		s.record("payment_intent", "validation_error")
		return nil, svcerr.Validation("currency is required")
	}
	if profile.PaymentCompleted {
		s.record("payment_intent", "invalid_state")
		return nil, svcerr.InvalidState("registration fee already paid")
	}

	orderID := "order_" + uuid.New().String()
	payment, err := s.repo.CreatePayment(ctx, database.PaymentCreate{
		UserID:             profile.ID,
		UserEmail:          profile.Email,
		Amount:             amount,
		Currency:           currency,
		Category:           profile.Category,
		PaymentMethod:      "checkout",
		TransactionOrderID: orderID,
		Status:             database.PaymentStatusPending,
		PaymentDate:        time.Now(),
	})
	if err != nil {
		s.record("payment_intent", "record_error")
		return nil, svcerr.Upstream("create payment intent", err)
	}

	s.record("payment_intent", "success")
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"order_id": payment.TransactionOrderID,
		"user_id":  profile.ID,
	}).Info("payment intent created")

	return &Intent{
		OrderID:  payment.TransactionOrderID,
		Amount:   payment.Amount,
		Currency: payment.Currency,
	}, nil
}

// Confirm verifies the checkout signature, marks the payment captured
// and flips the user's payment_completed flag.
func (s *Service) Confirm(ctx context.Context, ident identity.Identity, req ConfirmRequest) (*database.Payment, error) {
	profile, err := identity.RequireProfile(ident)
	if err != nil {
		s.record("payment_confirm", "unauthorized")
		return nil, err
	}

	payment, err := s.intentFor(ctx, profile, req.OrderID)
	if err != nil {
		s.record("payment_confirm", "not_found")
		return nil, err
	}
	if payment.Status != database.PaymentStatusPending {
		s.record("payment_confirm", "invalid_state")
		return nil, svcerr.InvalidState(fmt.Sprintf("payment is %s, not pending", payment.Status))
	}

	expected := Sign(req.OrderID, req.PaymentID, s.secret)
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		s.record("payment_confirm", "bad_signature")
		s.logger.LogSecurityEvent(ctx, "payment_signature_mismatch", map[string]interface{}{
			"order_id": req.OrderID,
			"user_id":  profile.ID,
		})
		return nil, svcerr.Validation("payment signature verification failed")
	}

	captured := database.PaymentStatusCaptured
	now := time.Now()
	updated, err := s.repo.UpdatePayment(ctx, payment.ID, database.PaymentUpdate{
		Status:               &captured,
		TransactionPaymentID: &req.PaymentID,
		TransactionSignature: &req.Signature,
		PaymentDate:          &now,
	})
	if err != nil {
		s.record("payment_confirm", "record_error")
		return nil, svcerr.Upstream("mark payment captured", err)
	}

	done := true
	method := updated.PaymentMethod
	if _, err := s.repo.UpdateUser(ctx, profile.ID, database.UserUpdate{
		PaymentCompleted: &done,
		PaymentMethod:    &method,
	}); err != nil {
		// The payment is captured; the flag flip failed. Logged loudly
		// so the reconciliation sweep or an operator can repair it.
		s.record("payment_confirm", "flag_error")
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"order_id": updated.TransactionOrderID,
			"user_id":  profile.ID,
		}).Error("payment captured but user flag not updated")
		return nil, svcerr.Upstream("update payment flag", err)
	}

	s.record("payment_confirm", "success")
	s.logger.WithContext(ctx).WithField("order_id", updated.TransactionOrderID).Info("payment captured")
	return updated, nil
}

// Cancel marks the intent cancelled and surfaces the cancellation to
// the caller.
func (s *Service) Cancel(ctx context.Context, ident identity.Identity, orderID string) error {
	profile, err := identity.RequireProfile(ident)
	if err != nil {
		return err
	}

	payment, err := s.intentFor(ctx, profile, orderID)
	if err != nil {
		return err
	}
	if payment.Status == database.PaymentStatusPending {
		cancelled := database.PaymentStatusCancelled
		if _, err := s.repo.UpdatePayment(ctx, payment.ID, database.PaymentUpdate{Status: &cancelled}); err != nil {
			return svcerr.Upstream("mark payment cancelled", err)
		}
	}

	s.record("payment_cancel", "cancelled")
	return svcerr.PaymentCancelled("checkout was cancelled")
}

func (s *Service) intentFor(ctx context.Context, profile *database.User, orderID string) (*database.Payment, error) {
	if orderID == "" {
		return nil, svcerr.Validation("order id is required")
	}
	payment, err := s.repo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, svcerr.NotFound("payment", orderID)
		}
		return nil, svcerr.Upstream("fetch payment", err)
	}
	if payment.UserID != profile.ID {
		return nil, svcerr.Unauthorized("payment belongs to another user")
	}
	return payment, nil
}

func (s *Service) record(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordWorkflowOp(operation, outcome)
	}
}
