package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
)

const testSecret = "checkout-secret"

func testService(repo database.RepositoryInterface) *Service {
	return NewService(repo, logging.New("payment-test", "error", "text"), nil, testSecret)
}

func userIdentity(t *testing.T, repo *database.MockRepository) identity.Identity {
	t.Helper()
	user, err := repo.CreateUser(context.Background(), database.UserCreate{
		AuthID:          "auth-1",
		FullName:        "Jane Doe",
		Email:           "jane@example.org",
		Category:        database.CategoryStudent,
		RegistrationFee: 150,
		Currency:        "USD",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return identity.Identity{Kind: identity.KindUser, AuthID: "auth-1", Email: user.Email, User: user}
}

func TestCreateIntent_PersistsPendingRow(t *testing.T) {
	repo := database.NewMockRepository()
	svc := testService(repo)
	ident := userIdentity(t, repo)

	intent, err := svc.CreateIntent(context.Background(), ident, 150, "USD")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.OrderID == "" || intent.Amount != 150 || intent.Currency != "USD" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	row, err := repo.GetPaymentByOrderID(context.Background(), intent.OrderID)
	if err != nil {
		t.Fatalf("GetPaymentByOrderID: %v", err)
	}
	if row.Status != database.PaymentStatusPending {
		t.Fatalf("expected pending intent, got %q", row.Status)
	}
	if row.Category != database.CategoryStudent {
		t.Fatalf("category snapshot missing, got %q", row.Category)
	}
}

func TestConfirm_CapturesAndFlipsFlag(t *testing.T) {
	repo := database.NewMockRepository()
	svc := testService(repo)
	ident := userIdentity(t, repo)

	intent, err := svc.CreateIntent(context.Background(), ident, 150, "USD")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	captured, err := svc.Confirm(context.Background(), ident, ConfirmRequest{
		OrderID:   intent.OrderID,
		PaymentID: "txn-9",
		Signature: Sign(intent.OrderID, "txn-9", testSecret),
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if captured.Status != database.PaymentStatusCaptured {
		t.Fatalf("expected captured, got %q", captured.Status)
	}
	if captured.TransactionPaymentID != "txn-9" {
		t.Fatalf("payment id not recorded: %+v", captured)
	}

	user, err := repo.GetUserByID(context.Background(), ident.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !user.PaymentCompleted {
		t.Fatal("payment_completed flag not flipped")
	}
}

func TestConfirm_RejectsBadSignature(t *testing.T) {
	repo := database.NewMockRepository()
	svc := testService(repo)
	ident := userIdentity(t, repo)

	intent, err := svc.CreateIntent(context.Background(), ident, 150, "USD")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	_, err = svc.Confirm(context.Background(), ident, ConfirmRequest{
		OrderID:   intent.OrderID,
		PaymentID: "txn-9",
		Signature: "forged",
	})
	if !svcerr.IsCode(err, svcerr.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}

	row, _ := repo.GetPaymentByOrderID(context.Background(), intent.OrderID)
	if row.Status != database.PaymentStatusPending {
		t.Fatalf("intent must stay pending on bad signature, got %q", row.Status)
	}
	user, _ := repo.GetUserByID(context.Background(), ident.User.ID)
	if user.PaymentCompleted {
		t.Fatal("flag must not flip on bad signature")
	}
}

func TestConfirm_AlreadyCaptured(t *testing.T) {
	repo := database.NewMockRepository()
	svc := testService(repo)
	ident := userIdentity(t, repo)

	intent, _ := svc.CreateIntent(context.Background(), ident, 150, "USD")
	confirm := ConfirmRequest{
		OrderID:   intent.OrderID,
		PaymentID: "txn-9",
		Signature: Sign(intent.OrderID, "txn-9", testSecret),
	}
	if _, err := svc.Confirm(context.Background(), ident, confirm); err != nil {
		t.Fatalf("first Confirm: %v", err)
	}

	_, err := svc.Confirm(context.Background(), ident, confirm)
	if !svcerr.IsCode(err, svcerr.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE on replay, got %v", err)
	}
}

func TestCancel_SurfacesPaymentCancelled(t *testing.T) {
	repo := database.NewMockRepository()
	svc := testService(repo)
	ident := userIdentity(t, repo)

	intent, _ := svc.CreateIntent(context.Background(), ident, 150, "USD")

	err := svc.Cancel(context.Background(), ident, intent.OrderID)
	if !svcerr.IsCode(err, svcerr.CodePaymentCancelled) {
		t.Fatalf("expected PAYMENT_CANCELLED, got %v", err)
	}

	row, _ := repo.GetPaymentByOrderID(context.Background(), intent.OrderID)
	if row.Status != database.PaymentStatusCancelled {
		t.Fatalf("expected cancelled row, got %q", row.Status)
	}
}

func TestCreateIntent_AlreadyPaid(t *testing.T) {
	repo := database.NewMockRepository()
	svc := testService(repo)
	ident := userIdentity(t, repo)

	done := true
	if _, err := repo.UpdateUser(context.Background(), ident.User.ID, database.UserUpdate{PaymentCompleted: &done}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	ident.User.PaymentCompleted = true

	_, err := svc.CreateIntent(context.Background(), ident, 150, "USD")
	if !svcerr.IsCode(err, svcerr.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}
}

func TestReconciler_ExpiresStaleIntents(t *testing.T) {
	repo := database.NewMockRepository()
	svc := testService(repo)
	ident := userIdentity(t, repo)

	stale, err := svc.CreateIntent(context.Background(), ident, 150, "USD")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	// Backdate the intent past the TTL.
	row, _ := repo.GetPaymentByOrderID(context.Background(), stale.OrderID)
	old := time.Now().Add(-2 * time.Hour)
	if _, err := repo.UpdatePayment(context.Background(), row.ID, database.PaymentUpdate{PaymentDate: &old}); err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}

	fresh, err := svc.CreateIntent(context.Background(), ident, 150, "USD")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	rec := NewReconciler(repo, logging.New("payment-test", "error", "text"), nil, time.Hour)
	marked, err := rec.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if marked != 1 {
		t.Fatalf("expected 1 expired intent, got %d", marked)
	}

	staleRow, _ := repo.GetPaymentByOrderID(context.Background(), stale.OrderID)
	if staleRow.Status != database.PaymentStatusExpired {
		t.Fatalf("stale intent should be expired, got %q", staleRow.Status)
	}
	freshRow, _ := repo.GetPaymentByOrderID(context.Background(), fresh.OrderID)
	if freshRow.Status != database.PaymentStatusPending {
		t.Fatalf("fresh intent must stay pending, got %q", freshRow.Status)
	}
}

type workflowRecorder struct {
	mu  sync.Mutex
	ops map[string]string
}

func (r *workflowRecorder) RecordWorkflowOp(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ops == nil {
		r.ops = make(map[string]string)
	}
	r.ops[operation] = outcome
}

func TestCancel_RecordsCancelOperation(t *testing.T) {
	repo := database.NewMockRepository()
	recorder := &workflowRecorder{}
	svc := NewService(repo, logging.New("payment-test", "error", "text"), recorder, testSecret)
	ident := userIdentity(t, repo)

	intent, err := svc.CreateIntent(context.Background(), ident, 150, "USD")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	_ = svc.Cancel(context.Background(), ident, intent.OrderID)

	if got := recorder.ops["payment_cancel"]; got != "cancelled" {
		t.Fatalf("payment_cancel outcome = %q, want cancelled", got)
	}
	if outcome, ok := recorder.ops["payment_confirm"]; ok {
		t.Fatalf("cancel leaked into payment_confirm counter: %q", outcome)
	}
}
