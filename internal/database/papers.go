package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PaperCreate carries the fields for a new submission row. Status is
// always pending on creation.
type PaperCreate struct {
	UserID        string   `json:"user_id"`
	UserName      string   `json:"user_name"`
	UserEmail     string   `json:"user_email"`
	PaperTitle    string   `json:"paper_title"`
	Abstract      string   `json:"abstract"`
	Keywords      []string `json:"keywords"`
	FileName      string   `json:"file_name"`
	FileURL       string   `json:"file_url"`
	FileSizeBytes int64    `json:"file_size_bytes"`
	Status        string   `json:"status"`
}

// PaperReview carries the review stamp applied on a status transition.
type PaperReview struct {
	Status         string    `json:"status"`
	ReviewedBy     string    `json:"reviewed_by"`
	ReviewerName   string    `json:"reviewer_name"`
	ReviewDate     time.Time `json:"review_date"`
	ReviewComments string    `json:"review_comments"`
}

func (c PaperCreate) validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("%w: user_id cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(c.PaperTitle) == "" {
		return fmt.Errorf("%w: paper_title cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(c.FileURL) == "" {
		return fmt.Errorf("%w: file_url cannot be empty", ErrInvalidInput)
	}
	if err := ValidateStatus(c.Status, PaperStatuses); err != nil {
		return err
	}
	return nil
}

func (rv PaperReview) validate() error {
	if err := ValidateStatus(rv.Status, PaperStatuses); err != nil {
		return err
	}
	if strings.TrimSpace(rv.ReviewedBy) == "" {
		return fmt.Errorf("%w: reviewed_by cannot be empty", ErrInvalidInput)
	}
	return nil
}

// CreatePaper inserts a submission row and returns the stored
// representation.
func (r *Repository) CreatePaper(ctx context.Context, create PaperCreate) (*Paper, error) {
	if err := create.validate(); err != nil {
		return nil, err
	}

	resp, err := r.client.From("papers").ExecuteInsert(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("%w: create paper: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: create paper: %v", ErrDatabaseError, err)
	}

	var rows []Paper
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal papers: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: create paper returned no rows", ErrDatabaseError)
	}
	return &rows[0], nil
}

// GetPaperByID fetches a submission row.
func (r *Repository) GetPaperByID(ctx context.Context, id string) (*Paper, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("papers").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get paper: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: get paper: %v", ErrDatabaseError, err)
	}

	var rows []Paper
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal papers: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("paper", id)
	}
	return &rows[0], nil
}

// ListPapersByUser returns a user's submissions, newest first.
func (r *Repository) ListPapersByUser(ctx context.Context, userID string) ([]Paper, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userID cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("papers").
		Eq("user_id", userID).
		Order("created_at", false).
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list papers by user: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: list papers by user: %v", ErrDatabaseError, err)
	}

	var rows []Paper
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal papers: %v", ErrDatabaseError, err)
	}
	return rows, nil
}

// ListPapers returns all submissions, optionally filtered by status,
// newest first.
func (r *Repository) ListPapers(ctx context.Context, statusFilter string) ([]Paper, error) {
	q := r.client.From("papers").Order("created_at", false)
	if statusFilter != "" {
		if err := ValidateStatus(statusFilter, PaperStatuses); err != nil {
			return nil, err
		}
		q = q.Eq("status", statusFilter)
	}

	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list papers: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: list papers: %v", ErrDatabaseError, err)
	}

	var rows []Paper
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal papers: %v", ErrDatabaseError, err)
	}
	return rows, nil
}

// ReviewPaper applies a status transition with its review stamp and
// returns the stored row.
func (r *Repository) ReviewPaper(ctx context.Context, id string, review PaperReview) (*Paper, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}
	if err := review.validate(); err != nil {
		return nil, err
	}

	resp, err := r.client.From("papers").Eq("id", id).ExecuteUpdate(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("%w: review paper: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%w: review paper: %v", ErrDatabaseError, err)
	}

	var rows []Paper
	if err := resp.JSON(&rows); err != nil {
		return nil, fmt.Errorf("%w: unmarshal papers: %v", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return nil, NewNotFoundError("paper", id)
	}
	return &rows[0], nil
}

// DeletePaper removes a submission row.
func (r *Repository) DeletePaper(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}

	resp, err := r.client.From("papers").Eq("id", id).ExecuteDelete(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete paper: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return fmt.Errorf("%w: delete paper: %v", ErrDatabaseError, err)
	}
	return nil
}

// DeleteAllPapers removes every submission row and returns the number
// deleted.
func (r *Repository) DeleteAllPapers(ctx context.Context) (int, error) {
	// PostgREST refuses unfiltered deletes; neq on an impossible id
	// matches all rows.
	resp, err := r.client.From("papers").
		Neq("id", "00000000-0000-0000-0000-000000000000").
		ExecuteDelete(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: delete all papers: %v", ErrDatabaseError, err)
	}
	if err := resp.Error(); err != nil {
		return 0, fmt.Errorf("%w: delete all papers: %v", ErrDatabaseError, err)
	}

	var rows []Paper
	if err := resp.JSON(&rows); err != nil {
		return 0, fmt.Errorf("%w: unmarshal papers: %v", ErrDatabaseError, err)
	}
	return len(rows), nil
}
