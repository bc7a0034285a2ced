package database

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestPayments_CreatePayment_Validation(t *testing.T) {
	repo := NewRepository(nil)

	_, err := repo.CreatePayment(context.Background(), PaymentCreate{
		UserID:             "u-1",
		Amount:             0,
		Currency:           "USD",
		TransactionOrderID: "order-1",
		Status:             PaymentStatusPending,
	})
	if err == nil {
		t.Fatal("expected zero amount to be rejected")
	}
}

func TestPayments_GetPaymentByOrderID(t *testing.T) {
	c := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("transaction_order_id") != "eq.order-7" {
			t.Fatalf("unexpected order id query: %q", q.Get("transaction_order_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode([]Payment{{
			ID:                 "pay-1",
			TransactionOrderID: "order-7",
			Status:             PaymentStatusPending,
		}})
	}))
	repo := NewRepository(c)

	got, err := repo.GetPaymentByOrderID(context.Background(), "order-7")
	if err != nil {
		t.Fatalf("GetPaymentByOrderID: %v", err)
	}
	if got.ID != "pay-1" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestPayments_ListStalePendingPayments_Query(t *testing.T) {
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	c := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "eq."+PaymentStatusPending {
			t.Fatalf("unexpected status query: %q", q.Get("status"))
		}
		if q.Get("payment_date") != "lt."+cutoff.Format(time.RFC3339) {
			t.Fatalf("unexpected payment_date query: %q", q.Get("payment_date"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	repo := NewRepository(c)

	rows, err := repo.ListStalePendingPayments(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ListStalePendingPayments: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty result, got %+v", rows)
	}
}

func TestMockRepository_PaymentLifecycle(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	created, err := repo.CreatePayment(ctx, PaymentCreate{
		UserID:             "u-1",
		Amount:             150,
		Currency:           "USD",
		TransactionOrderID: "order-1",
		Status:             PaymentStatusPending,
		PaymentDate:        time.Now().Add(-2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	stale, err := repo.ListStalePendingPayments(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListStalePendingPayments: %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("expected 1 stale intent, got %d", len(stale))
	}

	captured := PaymentStatusCaptured
	paymentID := "txn-9"
	updated, err := repo.UpdatePayment(ctx, created.ID, PaymentUpdate{
		Status:               &captured,
		TransactionPaymentID: &paymentID,
	})
	if err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	if updated.Status != PaymentStatusCaptured || updated.TransactionPaymentID != "txn-9" {
		t.Fatalf("unexpected row after update: %+v", updated)
	}

	stale, err = repo.ListStalePendingPayments(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListStalePendingPayments: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("captured payment should not be stale: %+v", stale)
	}
}
