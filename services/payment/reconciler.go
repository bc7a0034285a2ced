package payment

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ConfSphere/conference_layer/internal/database"
	"github.com/ConfSphere/conference_layer/internal/logging"
)

// Reconciler sweeps pending intents that never confirmed and marks
// them expired. It repairs nothing on its own; expiry plus logging is
// the whole contract, user actions are never retried automatically.
type Reconciler struct {
	repo    database.RepositoryInterface
	logger  *logging.Logger
	metrics MetricsRecorder
	ttl     time.Duration
	cron    *cron.Cron
}

// NewReconciler creates a reconciler that expires intents older than ttl.
func NewReconciler(repo database.RepositoryInterface, logger *logging.Logger, metrics MetricsRecorder, ttl time.Duration) *Reconciler {
	return &Reconciler{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		ttl:     ttl,
		cron:    cron.New(),
	}
}

// Start schedules the sweep. schedule uses cron syntax, including the
// "@every 15m" shorthand.
func (r *Reconciler) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := r.Sweep(ctx); err != nil {
			r.logger.WithError(err).Error("payment reconciliation sweep failed")
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.WithField("schedule", schedule).Info("payment reconciler started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// Sweep expires stale pending intents and returns how many were marked.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.ttl)
	stale, err := r.repo.ListStalePendingPayments(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := database.PaymentStatusExpired
	marked := 0
	for _, p := range stale {
		if _, err := r.repo.UpdatePayment(ctx, p.ID, database.PaymentUpdate{Status: &expired}); err != nil {
			r.logger.WithError(err).WithField("order_id", p.TransactionOrderID).
				Warn("failed to expire stale payment intent")
			continue
		}
		marked++
		r.logger.WithFields(map[string]interface{}{
			"order_id": p.TransactionOrderID,
			"user_id":  p.UserID,
			"amount":   p.Amount,
		}).Info("stale payment intent expired")
	}

	if r.metrics != nil && marked > 0 {
		r.metrics.RecordWorkflowOp("payment_reconcile", "expired")
	}
	return marked, nil
}
