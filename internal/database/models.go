package database

import (
	"encoding/json"
	"time"
)

// Paper lifecycle statuses. Pending is the sole entry state.
const (
	PaperStatusPending          = "pending"
	PaperStatusUnderReview      = "under_review"
	PaperStatusAccepted         = "accepted"
	PaperStatusRejected         = "rejected"
	PaperStatusRevisionRequired = "revision_required"
)

// PaperStatuses is the closed status set accepted for papers.
var PaperStatuses = []string{
	PaperStatusPending,
	PaperStatusUnderReview,
	PaperStatusAccepted,
	PaperStatusRejected,
	PaperStatusRevisionRequired,
}

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCaptured  = "captured"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusExpired   = "expired"
)

var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusCaptured,
	PaymentStatusCancelled,
	PaymentStatusExpired,
}

// Registration categories enforced by the persistence layer.
const (
	CategoryStudent   = "student"
	CategoryScientist = "scientist"
	CategoryListener  = "listener"
)

var Categories = []string{CategoryStudent, CategoryScientist, CategoryListener}

// Email notification statuses.
const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// User is a registration profile row.
type User struct {
	ID                   string    `json:"id"`
	AuthID               string    `json:"auth_id"`
	Title                string    `json:"title"`
	FullName             string    `json:"full_name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	Affiliation          string    `json:"affiliation"`
	Designation          string    `json:"designation"`
	Address              string    `json:"address"`
	Country              string    `json:"country"`
	City                 string    `json:"city"`
	Category             string    `json:"category"`
	RegistrationFee      float64   `json:"registration_fee"`
	Currency             string    `json:"currency"`
	PaymentCompleted     bool      `json:"payment_completed"`
	PaymentMethod        string    `json:"payment_method"`
	NewsletterSubscribed bool      `json:"newsletter_subscribed"`
	IsDeleted            bool      `json:"is_deleted"`
	CreatedAt            time.Time `json:"created_at"`
}

// Admin is a privileged identity row. An identity is admin iff a matching
// active row exists here.
type Admin struct {
	ID       string `json:"id"`
	AuthID   string `json:"auth_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Paper is a submission row. FileURL holds the storage object key, not a
// public URL.
type Paper struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	UserName       string     `json:"user_name"`
	UserEmail      string     `json:"user_email"`
	PaperTitle     string     `json:"paper_title"`
	Abstract       string     `json:"abstract"`
	Keywords       []string   `json:"keywords"`
	FileName       string     `json:"file_name"`
	FileURL        string     `json:"file_url"`
	FileSizeBytes  int64      `json:"file_size_bytes"`
	Status         string     `json:"status"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	ReviewerName   *string    `json:"reviewer_name,omitempty"`
	ReviewDate     *time.Time `json:"review_date,omitempty"`
	ReviewComments *string    `json:"review_comments,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Payment records a checkout attempt and its outcome. Captured payments
// are immutable.
type Payment struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	UserEmail            string     `json:"user_email"`
	Amount               float64    `json:"amount"`
	Currency             string     `json:"currency"`
	Category             string     `json:"category"`
	PaymentMethod        string     `json:"payment_method"`
	TransactionOrderID   string     `json:"transaction_order_id"`
	TransactionPaymentID string     `json:"transaction_payment_id"`
	TransactionSignature string     `json:"transaction_signature"`
	Status               string     `json:"status"`
	PaymentDate          *time.Time `json:"payment_date,omitempty"`
}

// ActivityLog is an append-only audit entry written by privileged
// mutation paths.
type ActivityLog struct {
	ID                string          `json:"id,omitempty"`
	AdminID           string          `json:"admin_id"`
	ActorEmail        string          `json:"actor_email"`
	ActorRole         string          `json:"actor_role"`
	ActionType        string          `json:"action_type"`
	ActionDescription string          `json:"action_description"`
	TargetTable       string          `json:"target_table"`
	TargetID          string          `json:"target_id"`
	NewData           json.RawMessage `json:"new_data,omitempty"`
	CreatedAt         time.Time       `json:"created_at,omitempty"`
}

// EmailNotification is an append-only record of an attempted notification.
// Writing the row does not imply delivery.
type EmailNotification struct {
	ID             string    `json:"id,omitempty"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	SentAt         time.Time `json:"sent_at,omitempty"`
}
