// Package main runs the conference management API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ConfSphere/conference_layer/applications/httpapi"
	"github.com/ConfSphere/conference_layer/internal/config"
	"github.com/ConfSphere/conference_layer/internal/database"
	"github.com/ConfSphere/conference_layer/internal/identity"
	"github.com/ConfSphere/conference_layer/internal/logging"
	"github.com/ConfSphere/conference_layer/internal/metrics"
	"github.com/ConfSphere/conference_layer/internal/middleware"
	"github.com/ConfSphere/conference_layer/services/dashboard"
	"github.com/ConfSphere/conference_layer/services/notify"
	"github.com/ConfSphere/conference_layer/services/payment"
	"github.com/ConfSphere/conference_layer/services/registration"
	"github.com/ConfSphere/conference_layer/services/review"
	"github.com/ConfSphere/conference_layer/services/submission"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New("conference-api", cfg.Logging.Level, cfg.Logging.Format)
	m := metrics.New("conference")

	sb, err := client.NewResilient(client.Config{
		URL:    cfg.Supabase.URL,
		APIKey: cfg.Supabase.ServiceKey,
	}, client.DefaultRetryConfig(), client.DefaultCircuitBreakerConfig())
	if err != nil {
		logger.Fatal("supabase client: ", err)
	}

	repo := database.NewRepository(sb)
	bucket := sb.Storage().From(cfg.Supabase.PaperBucket)

	ids := identity.NewService(sb, repo, logger)
	notifier := notify.NewService(repo, logger, cfg.Mailer.RelayURL, cfg.Mailer.APIKey, cfg.Mailer.Timeout)

	server := httpapi.NewServer(httpapi.Config{
		Identity:     ids,
		Registration: registration.NewService(ids, repo, notifier, logger, m),
		Submission:   submission.NewService(repo, bucket, notifier, logger, m),
		Review:       review.NewService(repo, bucket, notifier, logger, m),
		Payment:      payment.NewService(repo, logger, m, cfg.Checkout.KeySecret),
		Dashboard:    dashboard.NewService(repo, client.NewRealtimeClient(cfg.Supabase.URL, cfg.Supabase.AnonKey), logger),
		Logger:       logger,
	})

	reconciler := payment.NewReconciler(repo, logger, m, cfg.Checkout.IntentTTL)
	if err := reconciler.Start(cfg.Checkout.ReconcileSchedule); err != nil {
		logger.Fatal("start payment reconciler: ", err)
	}
	defer reconciler.Stop()

	auth := middleware.NewAuthMiddleware(cfg.Supabase.JWTSecret, ids, logger, httpapi.PublicPaths)
	cors := middleware.NewCORSMiddleware(cfg.Server.AllowedOrigins)
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst, logger)
	limiter.StartCleanup(10 * time.Minute)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Router(auth, cors, limiter, m),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server: ", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
		}
	}

	logger.Info("server stopped")
}
