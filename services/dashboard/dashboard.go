// Package dashboard aggregates admin-facing statistics and the live
// paper-change feed.
package dashboard

import (
	"context"

	"github.com/ConfSphere/conference_layer/internal/database"
	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

// Stats is the dashboard rollup.
type Stats struct {
	TotalUsers        int                `json:"total_users"`
	UsersByCategory   map[string]int     `json:"users_by_category"`
	UsersPaid         int                `json:"users_paid"`
	TotalPapers       int                `json:"total_papers"`
	PapersByStatus    map[string]int     `json:"papers_by_status"`
	PaymentsByStatus  map[string]int     `json:"payments_by_status"`
	RevenueByCurrency map[string]float64 `json:"revenue_by_currency"`
}

// Service computes stats and relays realtime paper changes.
type Service struct {
	repo     database.RepositoryInterface
	realtime *client.RealtimeClient
	logger   *logging.Logger
}

// NewService creates a dashboard service. realtime may be nil; the
// stats rollup works without it.
func NewService(repo database.RepositoryInterface, realtime *client.RealtimeClient, logger *logging.Logger) *Service {
	return &Service{repo: repo, realtime: realtime, logger: logger}
}

func (s *Service) requireAdmin(ctx context.Context, ident identity.Identity) error {
	if ident.AuthID == "" {
		return svcerr.NotAuthenticated("")
	}
	if _, err := s.repo.GetActiveAdminByAuthID(ctx, ident.AuthID); err != nil {
		if database.IsNotFound(err) {
			return svcerr.Unauthorized("operation requires admin privileges")
		}
		return svcerr.Upstream("verify admin role", err)
	}
	return nil
}

// Compute builds the stats rollup across users, papers and payments.
func (s *Service) Compute(ctx context.Context, ident identity.Identity) (*Stats, error) {
	if err := s.requireAdmin(ctx, ident); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, svcerr.Upstream("list users", err)
	}
	papers, err := s.repo.ListPapers(ctx, "")
	if err != nil {
		return nil, svcerr.Upstream("list papers", err)
	}
	payments, err := s.repo.ListPayments(ctx)
	if err != nil {
		return nil, svcerr.Upstream("list payments", err)
	}

	stats := &Stats{
		TotalUsers:        len(users),
		UsersByCategory:   make(map[string]int),
		TotalPapers:       len(papers),
		PapersByStatus:    make(map[string]int),
		PaymentsByStatus:  make(map[string]int),
		RevenueByCurrency: make(map[string]float64),
	}
	for _, u := range users {
		stats.UsersByCategory[u.Category]++
		if u.PaymentCompleted {
			stats.UsersPaid++
		}
	}
	for _, p := range papers {
		stats.PapersByStatus[p.Status]++
	}
	for _, p := range payments {
		stats.PaymentsByStatus[p.Status]++
		if p.Status == database.PaymentStatusCaptured {
			stats.RevenueByCurrency[p.Currency] += p.Amount
		}
	}
	return stats, nil
}

// WatchPapers subscribes to the papers table change feed and invokes
// handler for every event. It returns a stop function that unsubscribes
// the channel. Requires admin privileges and a realtime connection.
func (s *Service) WatchPapers(ctx context.Context, ident identity.Identity, handler client.EventHandler) (func(), error) {
	if err := s.requireAdmin(ctx, ident); err != nil {
		return nil, err
	}
	if s.realtime == nil {
		return nil, svcerr.Internal("realtime feed not configured", nil)
	}
	if err := s.realtime.Connect(ctx); err != nil {
		return nil, svcerr.Upstream("connect realtime feed", err)
	}

	ch := s.realtime.TableChannel("papers").OnAll(handler)
	if err := ch.Subscribe(ctx); err != nil {
		return nil, svcerr.Upstream("subscribe paper feed", err)
	}
	s.logger.WithContext(ctx).Info("paper change feed subscribed")

	stop := func() {
		if err := ch.Unsubscribe(context.Background()); err != nil {
			s.logger.WithError(err).Warn("paper feed unsubscribe failed")
		}
	}
	return stop, nil
}
