// Package submission implements the paper lifecycle for authors: upload
// with validation, owner-scoped listing, gated download, and the
// pending-only delete rule.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/pkg/format"
	"github.com/ConfSphere/conference_layer/services/notify"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

// MaxFileSize is the upload size cap, checked before any network call.
const MaxFileSize = 10 << 20

// allowedExtensions is the upload allow-list.
var allowedExtensions = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// UploadRequest carries a new submission.
type UploadRequest struct {
	Title    string
	Abstract string
	Keywords []string
	FileName string
	Data     []byte
}

// Service runs author-side paper operations.
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

// NewService creates a submission service over the papers bucket.
func NewService(repo database.RepositoryInterface, bucket *client.BucketClient, notifier *notify.Service, logger *logging.Logger, metrics MetricsRecorder) *Service {
	return &Service{repo: repo, bucket: bucket, notify: notifier, logger: logger, metrics: metrics}
}

// Upload validates and stores a new paper. Preconditions are checked in
// order: resolved profile, extension allow-list, size cap. The file is
// uploaded first; if the record insert then fails, the object is removed
// again so no orphan remains.
func (s *Service) Upload(ctx context.Context, ident identity.Identity, req UploadRequest) (*database.Paper, error) {
	profile, err := identity.RequireProfile(ident)
	if err != nil {
		s.record("paper_upload", "unauthorized")
		return nil, err
	}

	if req.Title == "" {
		s.record("paper_upload", "validation_error")
		return nil, svcerr.Validation("paper title is required")
	}

	ext := format.FileExtension(req.FileName)
	contentType, ok := allowedExtensions[ext]
	if !ok {
		s.record("paper_upload", "validation_error")
		return nil, svcerr.Validation("file type must be pdf, doc or docx").
			WithDetails("extension", ext)
	}
	if len(req.Data) > MaxFileSize {
		s.record("paper_upload", "validation_error")
		return nil, svcerr.Validation("file exceeds the 10 MiB limit").
			WithDetails("size_bytes", len(req.Data))
	}

	key := fmt.Sprintf("%s/%d_%s", profile.ID, time.Now().UnixMilli(), format.SanitizeFileName(req.FileName))

	resp, err := s.bucket.Upload(ctx, key, req.Data, contentType)
	if err != nil {
		s.record("paper_upload", "storage_error")
		return nil, svcerr.Upstream("upload paper file", err)
	}
	if err := resp.Error(); err != nil {
		s.record("paper_upload", "storage_error")
		return nil, svcerr.Upstream("upload paper file", err)
	}

	paper, err := s.repo.CreatePaper(ctx, database.PaperCreate{
		UserID:        profile.ID,
		UserName:      profile.FullName,
		UserEmail:     profile.Email,
		PaperTitle:    req.Title,
		Abstract:      req.Abstract,
		Keywords:      req.Keywords,
		FileName:      req.FileName,
		FileURL:       key,
		FileSizeBytes: int64(len(req.Data)),
		Status:        database.PaperStatusPending,
	})
	if err != nil {
		// Record insert failed after the upload succeeded; remove the
		// object again so no orphan remains.
		s.removeObjects(ctx, []string{key})
		s.record("paper_upload", "record_error")
		if database.IsInvalidInput(err) {
			return nil, svcerr.Validation(err.Error())
		}
		return nil, svcerr.Upstream("create paper record", err)
	}

	s.record("paper_upload", "success")
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"paper_id": paper.ID,
		"user_id":  profile.ID,
		"size":     format.FileSize(paper.FileSizeBytes),
	}).Info("paper uploaded")

	s.notify.Send(ctx, notify.Notification{
		RecipientEmail: profile.Email,
		RecipientName:  profile.FullName,
		Subject:        "Paper submission received",
		Body:           fmt.Sprintf("Your paper %q was received and is pending review.", paper.PaperTitle),
		Type:           notify.TypePaperSubmission,
	})

	return paper, nil
}

// ListOwn returns the caller's papers newest first. Identities without
// a profile get an empty list, never an error.
func (s *Service) ListOwn(ctx context.Context, ident identity.Identity) ([]database.Paper, error) {
	if ident.Kind != identity.KindUser {
		return []database.Paper{}, nil
	}
	papers, err := s.repo.ListPapersByUser(ctx, ident.User.ID)
	if err != nil {
		return nil, svcerr.Upstream("list papers", err)
	}
	return papers, nil
}

// DownloadOwn returns the file bytes of the caller's paper.
func (s *Service) DownloadOwn(ctx context.Context, ident identity.Identity, paperID string) ([]byte, *database.Paper, error) {
	paper, err := s.ownedPaper(ctx, ident, paperID)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.bucket.Download(ctx, paper.FileURL)
	if err != nil {
		return nil, nil, svcerr.Upstream("download paper file", err)
	}
	return data, paper, nil
}

// DeleteOwn removes the caller's paper while it is still pending. The
// storage object is removed best-effort first; the record is deleted
// regardless.
func (s *Service) DeleteOwn(ctx context.Context, ident identity.Identity, paperID string) error {
	paper, err := s.ownedPaper(ctx, ident, paperID)
	if err != nil {
		s.record("paper_delete", "unauthorized")
		return err
	}

	if paper.Status != database.PaperStatusPending {
		s.record("paper_delete", "invalid_state")
		return svcerr.InvalidState("only pending papers can be withdrawn").
			WithDetails("status", paper.Status)
	}

	s.removeObjects(ctx, []string{paper.FileURL})

	if err := s.repo.DeletePaper(ctx, paperID); err != nil {
		s.record("paper_delete", "record_error")
		return svcerr.Upstream("delete paper record", err)
	}

	s.record("paper_delete", "success")
	s.logger.WithContext(ctx).WithField("paper_id", paperID).Info("paper withdrawn")
	return nil
}

func (s *Service) ownedPaper(ctx context.Context, ident identity.Identity, paperID string) (*database.Paper, error) {
	profile, err := identity.RequireProfile(ident)
	if err != nil {
		return nil, err
	}

	paper, err := s.repo.GetPaperByID(ctx, paperID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, svcerr.NotFound("paper", paperID)
		}
		return nil, svcerr.Upstream("fetch paper", err)
	}
	if paper.UserID != profile.ID {
		return nil, svcerr.Unauthorized("paper belongs to another user")
	}
	return paper, nil
}

// removeObjects deletes storage objects best-effort; failures are
// logged and never abort the caller.
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
