package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

func TestCompute_Rollup(t *testing.T) {
	repo := database.NewMockRepository()
	ctx := context.Background()

	repo.SeedAdmin(database.Admin{AuthID: "auth-adm", IsActive: true})
	ident := identity.Identity{Kind: identity.KindAdmin, AuthID: "auth-adm"}

	student, err := repo.CreateUser(ctx, database.UserCreate{
		AuthID: "a1", FullName: "Jane", Email: "jane@example.org",
		Category: database.CategoryStudent,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := repo.CreateUser(ctx, database.UserCreate{
		AuthID: "a2", FullName: "Sam", Email: "sam@example.org",
		Category: database.CategoryScientist,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	done := true
	if _, err := repo.UpdateUser(ctx, student.ID, database.UserUpdate{PaymentCompleted: &done}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	for _, status := range []string{database.PaperStatusPending, database.PaperStatusPending, database.PaperStatusAccepted} {
		if _, err := repo.CreatePaper(ctx, database.PaperCreate{
			UserID: student.ID, PaperTitle: "X", FileURL: "k", Status: status,
		}); err != nil {
			t.Fatalf("CreatePaper: %v", err)
		}
	}

	now := time.Now()
	captured := database.PaymentStatusCaptured
	pay, err := repo.CreatePayment(ctx, database.PaymentCreate{
		UserID: student.ID, Amount: 150, Currency: "USD",
		TransactionOrderID: "order-1", Status: database.PaymentStatusPending,
		PaymentDate: now,
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if _, err := repo.UpdatePayment(ctx, pay.ID, database.PaymentUpdate{Status: &captured}); err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	if _, err := repo.CreatePayment(ctx, database.PaymentCreate{
		UserID: student.ID, Amount: 90, Currency: "EUR",
		TransactionOrderID: "order-2", Status: database.PaymentStatusPending,
		PaymentDate: now,
	}); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	svc := NewService(repo, nil, logging.New("dashboard-test", "error", "text"))
	stats, err := svc.Compute(ctx, ident)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if stats.TotalUsers != 2 || stats.UsersPaid != 1 {
		t.Fatalf("unexpected user counts: %+v", stats)
	}
	if stats.UsersByCategory[database.CategoryStudent] != 1 {
		t.Fatalf("unexpected category rollup: %+v", stats.UsersByCategory)
	}
	if stats.TotalPapers != 3 || stats.PapersByStatus[database.PaperStatusPending] != 2 {
		t.Fatalf("unexpected paper rollup: %+v", stats.PapersByStatus)
	}
	if stats.PaymentsByStatus[database.PaymentStatusCaptured] != 1 {
		t.Fatalf("unexpected payment rollup: %+v", stats.PaymentsByStatus)
	}
	if stats.RevenueByCurrency["USD"] != 150 {
		t.Fatalf("revenue must count captured payments only: %+v", stats.RevenueByCurrency)
	}
	if _, ok := stats.RevenueByCurrency["EUR"]; ok {
		t.Fatalf("pending payments are not revenue: %+v", stats.RevenueByCurrency)
	}
}

func TestCompute_NonAdminRejected(t *testing.T) {
	repo := database.NewMockRepository()
	svc := NewService(repo, nil, logging.New("dashboard-test", "error", "text"))

	ident := identity.Identity{Kind: identity.KindUser, AuthID: "auth-1"}
	_, err := svc.Compute(context.Background(), ident)
	if !svcerr.IsCode(err, svcerr.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestWatchPapers_NonAdminRejected(t *testing.T) {
	repo := database.NewMockRepository()
	svc := NewService(repo, nil, logging.New("dashboard-test", "error", "text"))

	ident := identity.Identity{Kind: identity.KindUser, AuthID: "auth-1"}
	stop, err := svc.WatchPapers(context.Background(), ident, func(*client.RealtimeEvent) {})
	if !svcerr.IsCode(err, svcerr.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if stop != nil {
		t.Fatal("no stop function should be returned on failure")
	}
}

func TestWatchPapers_RequiresRealtime(t *testing.T) {
	repo := database.NewMockRepository()
	repo.SeedAdmin(database.Admin{AuthID: "auth-adm", IsActive: true})
	svc := NewService(repo, nil, logging.New("dashboard-test", "error", "text"))

	ident := identity.Identity{Kind: identity.KindAdmin, AuthID: "auth-adm"}
	_, err := svc.WatchPapers(context.Background(), ident, func(*client.RealtimeEvent) {})
	if !svcerr.IsCode(err, svcerr.CodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR without a realtime client, got %v", err)
	}
}
