package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PaymentCreate carries the fields for a new payment intent row.
type PaymentCreate struct {
	UserID             string  `json:"user_id"`
	UserEmail          string  `json:"user_email"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	Category           string  `json:"category"`
	PaymentMethod      string  `json:"payment_method"`
	TransactionOrderID string  `json:"transaction_order_id"`
	Status             string  `json:"status"`
	// PaymentDate is set at intent creation so stale pending intents
	// can be found by the reconciler.
	PaymentDate time.Time `json:"payment_date"`
}

// PaymentUpdate carries optional field updates for confirmation or
// reconciliation. Captured rows are never updated again.
type PaymentUpdate struct {
	Status               *string    `json:"status,omitempty"`
	TransactionPaymentID *string    `json:"transaction_payment_id,omitempty"`
	TransactionSignature *string    `json:"transaction_signature,omitempty"`
	PaymentDate          *time.Time `json:"payment_date,omitempty"`
}

func (c PaymentCreate) validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("%w: user_id cannot be empty", ErrInvalidInput)
	}
	if c.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("%w: currency cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(c.TransactionOrderID) == "" {
		return fmt.Errorf("%w: transaction_order_id cannot be empty", ErrInvalidInput)
	}
	if err := ValidateStatus(c.Status, PaymentStatuses); err != nil {
		return err
	}
	return nil
}

func (u PaymentUpdate) validate() error {
	if u.Status != nil {
		if err := ValidateStatus(*u.Status, PaymentStatuses); err != nil {
			return err
		}
	}
	return nil
}

// CreatePayment inserts a payment row and returns the stored
// representation.
func (r *Repository) CreatePayment(ctx context.Context, create PaymentCreate) (*Payment, error) {
	if err := create.validate(); err != nil {
		return nil, err
	}

	resp, err := r.client.From("payments").ExecuteInsert(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: create payment: %v", ErrDatabaseError, err)
	}

	var rows []Payment
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payments: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: create payment returned no rows", ErrDatabaseError)
	}
	return &rows[0], nil
}

// GetPaymentByOrderID fetches a payment row by checkout order id.
func (r *Repository) GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: orderID cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("payments").
		Eq("transaction_order_id", orderID).
		Limit(1).
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get payment by order: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: get payment by order: %v", ErrDatabaseError, err)
	}

	var rows []Payment
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payments: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("payment", orderID)
	}
	return &rows[0], nil
}

// UpdatePayment applies a partial update by id and returns the stored row.
func (r *Repository) UpdatePayment(ctx context.Context, id string, update PaymentUpdate) (*Payment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}
	if err := update.validate(); err != nil {
		return nil, err
	}

	resp, err := r.client.From("payments").Eq("id", id).ExecuteUpdate(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("%w: update payment: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: update payment: %v", ErrDatabaseError, err)
	}

	var rows []Payment
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payments: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("payment", id)
	}
	return &rows[0], nil
}

// ListPayments returns all payment rows, newest first.
func (r *Repository) ListPayments(ctx context.Context) ([]Payment, error) {
	resp, err := r.client.From("payments").Order("payment_date", false).Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list payments: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: list payments: %v", ErrDatabaseError, err)
	}

	var rows []Payment
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payments: %v", ErrDatabaseError, err)
	}
	return rows, nil
}

// ListStalePendingPayments returns pending intents created before the
// cutoff, used by the reconciliation sweep.
func (r *Repository) ListStalePendingPayments(ctx context.Context, cutoff time.Time) ([]Payment, error) {
	resp, err := r.client.From("payments").
		Eq("status", PaymentStatusPending).
		Lt("payment_date", cutoff.UTC().Format(time.RFC3339)).
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list stale payments: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: list stale payments: %v", ErrDatabaseError, err)
	}

	var rows []Payment
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payments: %v", ErrDatabaseError, err)
	}
	return rows, nil
}
