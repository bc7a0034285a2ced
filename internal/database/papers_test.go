package database

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestPapers_ListPapers_StatusFilter(t *testing.T) {
	c := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "eq."+PaperStatusUnderReview {
			t.Fatalf("unexpected status query: %q", q.Get("status"))
		}
		if q.Get("order") != "created_at.desc" {
			t.Fatalf("unexpected order query: %q", q.Get("order"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode([]Paper{{ID: "p-1", Status: PaperStatusUnderReview}})
	}))
	repo := NewRepository(c)

	papers, err := repo.ListPapers(context.Background(), PaperStatusUnderReview)
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(papers) != 1 || papers[0].ID != "p-1" {
		t.Fatalf("unexpected result: %+v", papers)
	}
}

func TestPapers_ListPapers_RejectsUnknownStatus(t *testing.T) {
	repo := NewRepository(nil)
	if _, err := repo.ListPapers(context.Background(), "approved"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestPapers_ReviewPaper_StampsReviewer(t *testing.T) {
	reviewDate := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newClientWithHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Query().Get("id") != "eq.p-1" {
			t.Fatalf("unexpected id query: %q", r.URL.Query().Get("id"))
		}
		var body PaperReview
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode review body: %v", err)
		}
		if body.Status != PaperStatusAccepted || body.ReviewedBy != "admin-1" {
			t.Fatalf("unexpected review body: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		reviewer := body.ReviewedBy
		name := body.ReviewerName
		date := body.ReviewDate
		comments := body.ReviewComments
		_ = json.NewEncoder(w).Encode([]Paper{{
			ID:             "p-1",
			Status:         body.Status,
			ReviewedBy:     &reviewer,
			ReviewerName:   &name,
			ReviewDate:     &date,
			ReviewComments: &comments,
		}})
	}))
	repo := NewRepository(c)

	got, err := repo.ReviewPaper(context.Background(), "p-1", PaperReview{
		Status:         PaperStatusAccepted,
		ReviewedBy:     "admin-1",
		ReviewerName:   "Dr. Chair",
		ReviewDate:     reviewDate,
		ReviewComments: "solid work",
	})
	if err != nil {
		t.Fatalf("ReviewPaper: %v", err)
	}
	if got.Status != PaperStatusAccepted {
		t.Fatalf("expected accepted, got %q", got.Status)
	}
	if got.ReviewerName == nil || *got.ReviewerName != "Dr. Chair" {
		t.Fatalf("reviewer name not stamped: %+v", got)
	}
}

func TestPapers_ReviewPaper_RejectsUnknownStatus(t *testing.T) {
	repo := NewRepository(nil)
	_, err := repo.ReviewPaper(context.Background(), "p-1", PaperReview{
		Status:     "approved",
		ReviewedBy: "admin-1",
	})
	if err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestMockRepository_PaperLifecycle(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	created, err := repo.CreatePaper(ctx, PaperCreate{
		UserID:     "u-1",
		PaperTitle: "Distributed Consensus",
		FileURL:    "u-1/1700000000000_paper.pdf",
		Status:     PaperStatusPending,
	})
	if err != nil {
		t.Fatalf("CreatePaper: %v", err)
	}

	reviewed, err := repo.ReviewPaper(ctx, created.ID, PaperReview{
		Status:     PaperStatusRevisionRequired,
		ReviewedBy: "admin-1",
		ReviewDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("ReviewPaper: %v", err)
	}
	if reviewed.Status != PaperStatusRevisionRequired {
		t.Fatalf("expected revision_required, got %q", reviewed.Status)
	}

	count, err := repo.DeleteAllPapers(ctx)
	if err != nil {
		t.Fatalf("DeleteAllPapers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deleted, got %d", count)
	}
	if _, err := repo.GetPaperByID(ctx, created.ID); !IsNotFound(err) {
		t.Fatalf("expected not found after delete-all, got %v", err)
	}
}
