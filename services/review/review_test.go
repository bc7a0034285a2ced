package review

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/services/notify"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

func testService(t *testing.T, repo database.RepositoryInterface, removes *atomic.Int32) *Service {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/storage/v1/object/papers") {
			removes.Add(1)
			_, _ = w.Write([]byte(`[]`))
			return
		}
		t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	c, err := client.New(client.Config{URL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	logger := logging.New("review-test", "error", "text")
	notifier := notify.NewService(repo, logger, "", "", 0)
	return NewService(repo, c.Storage().From("papers"), notifier, logger, nil)
}

func adminIdentity(repo *database.MockRepository) identity.Identity {
	repo.SeedAdmin(database.Admin{
		AuthID:   "auth-adm",
		FullName: "Dr. Chair",
		Email:    "chair@example.org",
		Role:     "reviewer",
		IsActive: true,
	})
	return identity.Identity{Kind: identity.KindAdmin, AuthID: "auth-adm", Email: "chair@example.org"}
}

func seedPaper(t *testing.T, repo *database.MockRepository, status string) *database.Paper {
	t.Helper()
	paper, err := repo.CreatePaper(context.Background(), database.PaperCreate{
		UserID:     "u-1",
		UserName:   "Jane Doe",
		UserEmail:  "jane@example.org",
		PaperTitle: "X",
		FileURL:    "u-1/1_paper.pdf",
		Status:     status,
	})
	if err != nil {
		t.Fatalf("CreatePaper: %v", err)
	}
	return paper
}

func TestUpdateStatus_StampsReviewerNotifiesAndAudits(t *testing.T) {
	repo := database.NewMockRepository()
	var removes atomic.Int32
	svc := testService(t, repo, &removes)
	ident := adminIdentity(repo)
	paper := seedPaper(t, repo, database.PaperStatusPending)

	updated, err := svc.UpdateStatus(context.Background(), ident, paper.ID, database.PaperStatusAccepted, "Great work")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != database.PaperStatusAccepted {
		t.Fatalf("expected accepted, got %q", updated.Status)
	}
	if updated.ReviewerName == nil || *updated.ReviewerName != "Dr. Chair" {
		t.Fatalf("reviewer name not stamped: %+v", updated)
	}
	if updated.ReviewDate == nil {
		t.Fatal("review date not stamped")
	}

	notifications := repo.Notifications()
	if len(notifications) != 1 || notifications[0].Type != notify.TypePaperStatusUpdate {
		t.Fatalf("expected status-update notification, got %+v", notifications)
	}
	if notifications[0].RecipientEmail != "jane@example.org" {
		t.Fatalf("notification must go to the owner, got %q", notifications[0].RecipientEmail)
	}

	logs := repo.ActivityLogs()
	if len(logs) != 1 || logs[0].ActionType != ActionPaperStatusUpdate {
		t.Fatalf("expected one audit entry, got %+v", logs)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	repo := database.NewMockRepository()
	var removes atomic.Int32
	svc := testService(t, repo, &removes)
	ident := adminIdentity(repo)
	paper := seedPaper(t, repo, database.PaperStatusPending)

	_, err := svc.UpdateStatus(context.Background(), ident, paper.ID, "approved", "")
	if !svcerr.IsCode(err, svcerr.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}

	got, _ := repo.GetPaperByID(context.Background(), paper.ID)
	if got.Status != database.PaperStatusPending {
		t.Fatalf("paper must be unchanged, got %q", got.Status)
	}
}

func TestUpdateStatus_NonAdminRejected(t *testing.T) {
	repo := database.NewMockRepository()
	var removes atomic.Int32
	svc := testService(t, repo, &removes)
	paper := seedPaper(t, repo, database.PaperStatusPending)

	// A caller claiming admin is re-checked against the admins table.
	ident := identity.Identity{Kind: identity.KindAdmin, AuthID: "auth-impostor"}
	_, err := svc.UpdateStatus(context.Background(), ident, paper.ID, database.PaperStatusAccepted, "")
	if !svcerr.IsCode(err, svcerr.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestDelete_AnyStatus(t *testing.T) {
	repo := database.NewMockRepository()
	var removes atomic.Int32
	svc := testService(t, repo, &removes)
	ident := adminIdentity(repo)
	paper := seedPaper(t, repo, database.PaperStatusAccepted)

	if err := svc.Delete(context.Background(), ident, paper.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removes.Load() != 1 {
		t.Fatalf("expected storage removal, got %d", removes.Load())
	}
	if _, err := repo.GetPaperByID(context.Background(), paper.ID); !database.IsNotFound(err) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestDeleteAll_SingleAuditEntryWithCount(t *testing.T) {
	repo := database.NewMockRepository()
	var removes atomic.Int32
	svc := testService(t, repo, &removes)
	ident := adminIdentity(repo)

	for i := 0; i < 5; i++ {
		seedPaper(t, repo, database.PaperStatusPending)
	}

	count, err := svc.DeleteAll(context.Background(), ident)
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected count 5, got %d", count)
	}

	papers, _ := repo.ListPapers(context.Background(), "")
	if len(papers) != 0 {
		t.Fatalf("expected no remaining papers, got %d", len(papers))
	}

	logs := repo.ActivityLogs()
	if len(logs) != 1 || logs[0].ActionType != ActionPaperDeleteAll {
		t.Fatalf("expected exactly one audit entry, got %+v", logs)
	}
	if !strings.Contains(string(logs[0].NewData), `"count":5`) {
		t.Fatalf("audit entry must carry the count, got %s", logs[0].NewData)
	}
}

// auditFailingRepo injects failures into audit writes only.
type auditFailingRepo struct {
	*database.MockRepository
}

func (r *auditFailingRepo) InsertActivityLog(ctx context.Context, entry database.ActivityLog) error {
	return database.ErrDatabaseError
}

func TestAuditFailureDoesNotBlockPrimaryOp(t *testing.T) {
	mock := database.NewMockRepository()
	repo := &auditFailingRepo{MockRepository: mock}
	var removes atomic.Int32
	svc := testService(t, repo, &removes)
	ident := adminIdentity(mock)
	paper := seedPaper(t, mock, database.PaperStatusPending)

	updated, err := svc.UpdateStatus(context.Background(), ident, paper.ID, database.PaperStatusRejected, "")
	if err != nil {
		t.Fatalf("audit failure must not block the transition: %v", err)
	}
	if updated.Status != database.PaperStatusRejected {
		t.Fatalf("expected rejected, got %q", updated.Status)
	}
}

func TestListAll_JoinsOwnerProfile(t *testing.T) {
	repo := database.NewMockRepository()
	var removes atomic.Int32
	svc := testService(t, repo, &removes)
	ident := adminIdentity(repo)

	owner, err := repo.CreateUser(context.Background(), database.UserCreate{
		AuthID:   "auth-1",
		FullName: "Jane Doe",
		Email:    "jane@example.org",
		Category: database.CategoryScientist,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := repo.CreatePaper(context.Background(), database.PaperCreate{
		UserID:     owner.ID,
		PaperTitle: "X",
		FileURL:    owner.ID + "/1_paper.pdf",
		Status:     database.PaperStatusPending,
	}); err != nil {
		t.Fatalf("CreatePaper: %v", err)
	}

	joined, err := svc.ListAll(context.Background(), ident, "")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(joined) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(joined))
	}
	if joined[0].Owner == nil || joined[0].Owner.Category != database.CategoryScientist {
		t.Fatalf("owner profile not joined: %+v", joined[0].Owner)
	}
}
