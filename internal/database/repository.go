package database

import (
	"context"
	"time"
)

// RepositoryInterface is the persistence surface consumed by the
// services layer. The production implementation talks PostgREST; tests
// use MockRepository.
type RepositoryInterface interface {
	// Users
	CreateUser(ctx context.Context, create UserCreate) (*User, error)
	GetUserByAuthID(ctx context.Context, authID string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error)
	SoftDeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)

	// Admins
	GetActiveAdminByAuthID(ctx context.Context, authID string) (*Admin, error)

	// Papers
	CreatePaper(ctx context.Context, create PaperCreate) (*Paper, error)
	GetPaperByID(ctx context.Context, id string) (*Paper, error)
	ListPapersByUser(ctx context.Context, userID string) ([]Paper, error)
	ListPapers(ctx context.Context, statusFilter string) ([]Paper, error)
	ReviewPaper(ctx context.Context, id string, review PaperReview) (*Paper, error)
	DeletePaper(ctx context.Context, id string) error
	DeleteAllPapers(ctx context.Context) (int, error)

	// Payments
	CreatePayment(ctx context.Context, create PaymentCreate) (*Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error)
	UpdatePayment(ctx context.Context, id string, update PaymentUpdate) (*Payment, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	ListStalePendingPayments(ctx context.Context, cutoff time.Time) ([]Payment, error)

	// Audit and notifications
	InsertActivityLog(ctx context.Context, entry ActivityLog) error
	ListActivityLogs(ctx context.Context, limit int) ([]ActivityLog, error)
	InsertEmailNotification(ctx context.Context, entry EmailNotification) error
}

var _ RepositoryInterface = (*Repository)(nil)
