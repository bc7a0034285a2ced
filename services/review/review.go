// Package review implements the admin review path: joined listings,
// status transitions with reviewer stamping, deletes, and audit logging.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/services/notify"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

// Audit action types.
const (
	ActionPaperStatusUpdate = "paper_status_update"
	ActionPaperDelete       = "paper_delete"
	ActionPaperDeleteAll    = "paper_delete_all"
)

// PaperWithOwner joins a paper with its owner's profile for display.
// Owner is nil when the profile has been soft-deleted.
type PaperWithOwner struct {
	database.Paper
	Owner *database.User `json:"owner,omitempty"`
}

// Service runs admin-side paper operations.
type Service struct {
	repo    database.RepositoryInterface
	bucket  *client.BucketClient
	notify  *notify.Service
	logger  *logging.Logger
	metrics MetricsRecorder
}

// MetricsRecorder counts workflow outcomes.
type MetricsRecorder interface {
	RecordWorkflowOp(operation, outcome string)
}

// NewService creates a review service.
func NewService(repo database.RepositoryInterface, bucket *client.BucketClient, notifier *notify.Service, logger *logging.Logger, metrics MetricsRecorder) *Service {
	return &Service{repo: repo, bucket: bucket, notify: notifier, logger: logger, metrics: metrics}
}

// requireAdmin re-checks the admin role against the admins table. The
// caller's resolved identity is not trusted for privileged mutations.
func (s *Service) requireAdmin(ctx context.Context, ident identity.Identity) (*database.Admin, error) {
	if ident.AuthID == "" {
		return nil, svcerr.NotAuthenticated("")
	}
	admin, err := s.repo.GetActiveAdminByAuthID(ctx, ident.AuthID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, svcerr.Unauthorized("operation requires admin privileges")
		}
		return nil, svcerr.Upstream("verify admin role", err)
	}
	return admin, nil
}

// ListAll returns every paper, optionally filtered by status, joined
// with the owner profile.
func (s *Service) ListAll(ctx context.Context, ident identity.Identity, statusFilter string) ([]PaperWithOwner, error) {
	if _, err := s.requireAdmin(ctx, ident); err != nil {
		return nil, err
	}

	papers, err := s.repo.ListPapers(ctx, statusFilter)
	if err != nil {
		if database.IsInvalidInput(err) {
			return nil, svcerr.Validation(err.Error())
		}
		return nil, svcerr.Upstream("list papers", err)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, svcerr.Upstream("list owners", err)
	}
	byID := make(map[string]*database.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	joined := make([]PaperWithOwner, 0, len(papers))
	for _, p := range papers {
		joined = append(joined, PaperWithOwner{Paper: p, Owner: byID[p.UserID]})
	}
	return joined, nil
}

// UpdateStatus transitions a paper to a new status. The status set is
// closed; unknown values are rejected. On success the reviewer identity
// is stamped, the owner is notified, and an audit entry is appended.
func (s *Service) UpdateStatus(ctx context.Context, ident identity.Identity, paperID, newStatus, comments string) (*database.Paper, error) {
	admin, err := s.requireAdmin(ctx, ident)
	if err != nil {
		s.record("paper_review", "unauthorized")
		return nil, err
	}

	if err := database.ValidateStatus(newStatus, database.PaperStatuses); err != nil {
		s.record("paper_review", "validation_error")
		return nil, svcerr.Validation(fmt.Sprintf("unknown paper status %q", newStatus))
	}

	paper, err := s.repo.ReviewPaper(ctx, paperID, database.PaperReview{
		Status:         newStatus,
		ReviewedBy:     admin.ID,
		ReviewerName:   admin.FullName,
		ReviewDate:     time.Now(),
		ReviewComments: comments,
	})
	if err != nil {
		s.record("paper_review", "record_error")
		if database.IsNotFound(err) {
			return nil, svcerr.NotFound("paper", paperID)
		}
		return nil, svcerr.Upstream("update paper status", err)
	}

	s.record("paper_review", "success")
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"paper_id": paper.ID,
		"status":   paper.Status,
		"admin_id": admin.ID,
	}).Info("paper status updated")

	s.notify.Send(ctx, notify.Notification{
		RecipientEmail: paper.UserEmail,
		RecipientName:  paper.UserName,
		Subject:        fmt.Sprintf("Paper status: %s", paper.Status),
		Body:           fmt.Sprintf("Your paper %q is now %s. %s", paper.PaperTitle, paper.Status, comments),
		Type:           notify.TypePaperStatusUpdate,
	})

	s.logActivity(ctx, admin, ActionPaperStatusUpdate,
		fmt.Sprintf("paper %s set to %s", paper.ID, paper.Status),
		"papers", paper.ID,
		map[string]any{"status": paper.Status, "comments": comments})

	return paper, nil
}

// Delete removes a paper regardless of its status. Storage cleanup is
// best-effort; the record delete is unconditional.
func (s *Service) Delete(ctx context.Context, ident identity.Identity, paperID string) error {
	admin, err := s.requireAdmin(ctx, ident)
	if err != nil {
		s.record("paper_admin_delete", "unauthorized")
		return err
	}

	paper, err := s.repo.GetPaperByID(ctx, paperID)
	if err != nil {
		if database.IsNotFound(err) {
			return svcerr.NotFound("paper", paperID)
		}
		return svcerr.Upstream("fetch paper", err)
	}

	s.removeObjects(ctx, []string{paper.FileURL})

	if err := s.repo.DeletePaper(ctx, paperID); err != nil {
		s.record("paper_admin_delete", "record_error")
		return svcerr.Upstream("delete paper record", err)
	}

	s.record("paper_admin_delete", "success")
	s.logActivity(ctx, admin, ActionPaperDelete,
		fmt.Sprintf("paper %s deleted", paperID),
		"papers", paperID, nil)
	return nil
}

// DeleteAll wipes every paper. Storage objects are bulk-removed
// best-effort, then the records are deleted unconditionally. Exactly
// one audit entry is written carrying the count.
func (s *Service) DeleteAll(ctx context.Context, ident identity.Identity) (int, error) {
	admin, err := s.requireAdmin(ctx, ident)
	if err != nil {
		s.record("paper_delete_all", "unauthorized")
		return 0, err
	}

	papers, err := s.repo.ListPapers(ctx, "")
	if err != nil {
		return 0, svcerr.Upstream("list papers", err)
	}
	if len(papers) > 0 {
		keys := make([]string, 0, len(papers))
		for _, p := range papers {
			keys = append(keys, p.FileURL)
		}
		s.removeObjects(ctx, keys)
	}

	count, err := s.repo.DeleteAllPapers(ctx)
	if err != nil {
		s.record("paper_delete_all", "record_error")
		return 0, svcerr.Upstream("delete all papers", err)
	}

	s.record("paper_delete_all", "success")
	s.logActivity(ctx, admin, ActionPaperDeleteAll,
		fmt.Sprintf("all papers deleted (%d)", count),
		"papers", "", map[string]any{"count": count})
	return count, nil
}

// logActivity appends an audit entry. Audit failures are logged and
// never abort the primary operation.
func (s *Service) logActivity(ctx context.Context, admin *database.Admin, actionType, description, targetTable, targetID string, payload map[string]any) {
	entry := database.ActivityLog{
		AdminID:           admin.ID,
		ActorEmail:        admin.Email,
		ActorRole:         admin.Role,
		ActionType:        actionType,
		ActionDescription: description,
		TargetTable:       targetTable,
		TargetID:          targetID,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err == nil {
			entry.NewData = raw
		}
	}
	if err := s.repo.InsertActivityLog(ctx, entry); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("action", actionType).
			Warn("audit log write failed")
	}
}

func (s *Service) removeObjects(ctx context.Context, keys []string) {
	resp, err := s.bucket.Remove(ctx, keys)
	if err == nil {
		err = resp.Error()
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("keys", keys).
			Warn("storage cleanup failed")
	}
}

func (s *Service) record(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordWorkflowOp(operation, outcome)
	}
}
