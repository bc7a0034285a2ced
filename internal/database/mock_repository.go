package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockRepository is an in-memory implementation of RepositoryInterface
// for testing.
type MockRepository struct {
	mu sync.RWMutex

	users    map[string]*User
	admins   map[string]*Admin
	papers   map[string]*Paper
	payments map[string]*Payment

	activityLogs  []ActivityLog
	notifications []EmailNotification

	// Error injection for testing error paths.
	ErrorOnNextCall error
}

// NewMockRepository creates a mock repository for testing.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:    make(map[string]*User),
		admins:   make(map[string]*Admin),
		papers:   make(map[string]*Paper),
		payments: make(map[string]*Payment),
	}
}

// checkError returns and clears any injected error.
func (m *MockRepository) checkError() error {
	if m.ErrorOnNextCall != nil {
		err := m.ErrorOnNextCall
		m.ErrorOnNextCall = nil
		return err
	}
	return nil
}

// Reset clears all data in the mock repository.
func (m *MockRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]*User)
	m.admins = make(map[string]*Admin)
	m.papers = make(map[string]*Paper)
	m.payments = make(map[string]*Payment)
	m.activityLogs = nil
	m.notifications = nil
	m.ErrorOnNextCall = nil
}

// SeedAdmin installs a privileged identity row directly.
func (m *MockRepository) SeedAdmin(admin Admin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	m.admins[admin.ID] = &admin
}

// ActivityLogs returns a copy of the recorded audit entries.
func (m *MockRepository) ActivityLogs() []ActivityLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ActivityLog, len(m.activityLogs))
	copy(out, m.activityLogs)
	return out
}

// Notifications returns a copy of the recorded notification rows.
func (m *MockRepository) Notifications() []EmailNotification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]EmailNotification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// =============================================================================
// Users
// =============================================================================

func (m *MockRepository) CreateUser(ctx context.Context, create UserCreate) (*User, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	if err := create.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &User{
		ID:                   uuid.New().String(),
		AuthID:               create.AuthID,
		Title:                create.Title,
		FullName:             create.FullName,
		Email:                create.Email,
		Phone:                create.Phone,
		Affiliation:          create.Affiliation,
		Designation:          create.Designation,
		Address:              create.Address,
		Country:              create.Country,
		City:                 create.City,
		Category:             create.Category,
		RegistrationFee:      create.RegistrationFee,
		Currency:             create.Currency,
		PaymentCompleted:     create.PaymentCompleted,
		PaymentMethod:        create.PaymentMethod,
		NewsletterSubscribed: create.NewsletterSubscribed,
		CreatedAt:            time.Now(),
	}
	m.users[user.ID] = user
	copied := *user
	return &copied, nil
}

func (m *MockRepository) GetUserByAuthID(ctx context.Context, authID string) (*User, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.AuthID == authID && !user.IsDeleted {
			copied := *user
			return &copied, nil
		}
	}
	return nil, NewNotFoundError("user", authID)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok || user.IsDeleted {
		return nil, NewNotFoundError("user", id)
	}
	copied := *user
	return &copied, nil
}

func (m *MockRepository) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, NewNotFoundError("user", id)
	}
	if update.PaymentCompleted != nil {
		user.PaymentCompleted = *update.PaymentCompleted
	}
	if update.PaymentMethod != nil {
		user.PaymentMethod = *update.PaymentMethod
	}
	if update.RegistrationFee != nil {
		user.RegistrationFee = *update.RegistrationFee
	}
	if update.Currency != nil {
		user.Currency = *update.Currency
	}
	if update.IsDeleted != nil {
		user.IsDeleted = *update.IsDeleted
	}
	copied := *user
	return &copied, nil
}

func (m *MockRepository) SoftDeleteUser(ctx context.Context, id string) error {
	if err := m.checkError(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return NewNotFoundError("user", id)
	}
	user.IsDeleted = true
	return nil
}

func (m *MockRepository) ListUsers(ctx context.Context) ([]User, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []User
	for _, user := range m.users {
		if !user.IsDeleted {
			result = append(result, *user)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// =============================================================================
// Admins
// =============================================================================

func (m *MockRepository) GetActiveAdminByAuthID(ctx context.Context, authID string) (*Admin, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, admin := range m.admins {
		if admin.AuthID == authID && admin.IsActive {
			copied := *admin
			return &copied, nil
		}
	}
	return nil, NewNotFoundError("admin", authID)
}

// =============================================================================
// Papers
// =============================================================================

func (m *MockRepository) CreatePaper(ctx context.Context, create PaperCreate) (*Paper, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	if err := create.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	paper := &Paper{
		ID:            uuid.New().String(),
		UserID:        create.UserID,
		UserName:      create.UserName,
		UserEmail:     create.UserEmail,
		PaperTitle:    create.PaperTitle,
		Abstract:      create.Abstract,
		Keywords:      create.Keywords,
		FileName:      create.FileName,
		FileURL:       create.FileURL,
		FileSizeBytes: create.FileSizeBytes,
		Status:        create.Status,
		CreatedAt:     time.Now(),
	}
	m.papers[paper.ID] = paper
	copied := *paper
	return &copied, nil
}

func (m *MockRepository) GetPaperByID(ctx context.Context, id string) (*Paper, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	paper, ok := m.papers[id]
	if !ok {
		return nil, NewNotFoundError("paper", id)
	}
	copied := *paper
	return &copied, nil
}

func (m *MockRepository) ListPapersByUser(ctx context.Context, userID string) ([]Paper, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Paper
	for _, paper := range m.papers {
		if paper.UserID == userID {
			result = append(result, *paper)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockRepository) ListPapers(ctx context.Context, statusFilter string) ([]Paper, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	if statusFilter != "" {
		if err := ValidateStatus(statusFilter, PaperStatuses); err != nil {
			return nil, err
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Paper
	for _, paper := range m.papers {
		if statusFilter == "" || paper.Status == statusFilter {
			result = append(result, *paper)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockRepository) ReviewPaper(ctx context.Context, id string, review PaperReview) (*Paper, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	if err := review.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	paper, ok := m.papers[id]
	if !ok {
		return nil, NewNotFoundError("paper", id)
	}
	paper.Status = review.Status
	reviewedBy := review.ReviewedBy
	reviewerName := review.ReviewerName
	reviewDate := review.ReviewDate
	comments := review.ReviewComments
	paper.ReviewedBy = &reviewedBy
	paper.ReviewerName = &reviewerName
	paper.ReviewDate = &reviewDate
	paper.ReviewComments = &comments
	copied := *paper
	return &copied, nil
}

func (m *MockRepository) DeletePaper(ctx context.Context, id string) error {
	if err := m.checkError(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.papers[id]; !ok {
		return NewNotFoundError("paper", id)
	}
	delete(m.papers, id)
	return nil
}

func (m *MockRepository) DeleteAllPapers(ctx context.Context) (int, error) {
	if err := m.checkError(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := len(m.papers)
	m.papers = make(map[string]*Paper)
	return count, nil
}

// =============================================================================
// Payments
// =============================================================================

func (m *MockRepository) CreatePayment(ctx context.Context, create PaymentCreate) (*Payment, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	if err := create.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	paymentDate := create.PaymentDate
	payment := &Payment{
		ID:                 uuid.New().String(),
		UserID:             create.UserID,
		UserEmail:          create.UserEmail,
		Amount:             create.Amount,
		Currency:           create.Currency,
		Category:           create.Category,
		PaymentMethod:      create.PaymentMethod,
		TransactionOrderID: create.TransactionOrderID,
		Status:             create.Status,
		PaymentDate:        &paymentDate,
	}
	m.payments[payment.ID] = payment
	copied := *payment
	return &copied, nil
}

func (m *MockRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, payment := range m.payments {
		if payment.TransactionOrderID == orderID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, NewNotFoundError("payment", orderID)
}

func (m *MockRepository) UpdatePayment(ctx context.Context, id string, update PaymentUpdate) (*Payment, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	if err := update.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, NewNotFoundError("payment", id)
	}
	if update.Status != nil {
		payment.Status = *update.Status
	}
	if update.TransactionPaymentID != nil {
		payment.TransactionPaymentID = *update.TransactionPaymentID
	}
	if update.TransactionSignature != nil {
		payment.TransactionSignature = *update.TransactionSignature
	}
	if update.PaymentDate != nil {
		date := *update.PaymentDate
		payment.PaymentDate = &date
	}
	copied := *payment
	return &copied, nil
}

func (m *MockRepository) ListPayments(ctx context.Context) ([]Payment, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Payment
	for _, payment := range m.payments {
		result = append(result, *payment)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PaymentDate == nil || result[j].PaymentDate == nil {
			return result[i].ID < result[j].ID
		}
		return result[i].PaymentDate.After(*result[j].PaymentDate)
	})
	return result, nil
}

func (m *MockRepository) ListStalePendingPayments(ctx context.Context, cutoff time.Time) ([]Payment, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Payment
	for _, payment := range m.payments {
		if payment.Status != PaymentStatusPending {
			continue
		}
		if payment.PaymentDate != nil && payment.PaymentDate.Before(cutoff) {
			result = append(result, *payment)
		}
	}
	return result, nil
}

// =============================================================================
// Audit and notifications
// =============================================================================

func (m *MockRepository) InsertActivityLog(ctx context.Context, entry ActivityLog) error {
	if err := m.checkError(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.activityLogs = append(m.activityLogs, entry)
	return nil
}

func (m *MockRepository) ListActivityLogs(ctx context.Context, limit int) ([]ActivityLog, error) {
	if err := m.checkError(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]ActivityLog, len(m.activityLogs))
	copy(result, m.activityLogs)
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockRepository) InsertEmailNotification(ctx context.Context, entry EmailNotification) error {
	if err := m.checkError(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}
	m.notifications = append(m.notifications, entry)
	return nil
}

// Ensure MockRepository implements RepositoryInterface.
var _ RepositoryInterface = (*MockRepository)(nil)
