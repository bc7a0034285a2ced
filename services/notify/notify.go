// Package notify records notification attempts and forwards them to an
// optional HTTP mail relay. Delivery is best-effort by contract; no
// workflow may depend on a notification going out.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ConfSphere/conference_layer/internal/database"
	"github.com/ConfSphere/conference_layer/internal/logging"
)

// Notification types written to the log.
const (
	TypeRegistrationConfirmation = "registration_confirmation"
	TypePaperSubmission          = "paper_submission"
	TypePaperStatusUpdate        = "paper_status_update"
)

// Notification is a single outbound message.
type Notification struct {
	RecipientEmail string
	RecipientName  string
	Subject        string
	Body           string
	Type           string
}

// Service writes the notification log and relays messages.
type Service struct {
	repo     database.RepositoryInterface
	logger   *logging.Logger
	relayURL string
	apiKey   string
	client   *http.Client
}

// NewService creates a notify service. An empty relayURL disables the
// relay; notifications are then recorded only. A non-positive timeout
// falls back to 10 seconds.
func NewService(repo database.RepositoryInterface, logger *logging.Logger, relayURL, apiKey string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		relayURL: relayURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send relays the notification and records the attempt. It never
// returns an error; failures are logged and reflected in the recorded
// status.
func (s *Service) Send(ctx context.Context, n Notification) {
	status := database.NotificationStatusSent
	if err := s.relay(ctx, n); err != nil {
		status = database.NotificationStatusFailed
		s.logger.WithContext(ctx).WithError(err).WithField("type", n.Type).Warn("notification relay failed")
	}

	entry := database.EmailNotification{
		RecipientEmail: n.RecipientEmail,
		RecipientName:  n.RecipientName,
		Subject:        n.Subject,
		Body:           n.Body,
		Type:           n.Type,
		Status:         status,
		SentAt:         time.Now(),
	}
	if err := s.repo.InsertEmailNotification(ctx, entry); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("notification log write failed")
	}
}

func (s *Service) relay(ctx context.Context, n Notification) error {
	if s.relayURL == "" {
		return nil
	}

	payload, _ := json.Marshal(map[string]string{
		"to":      n.RecipientEmail,
		"to_name": n.RecipientName,
		"subject": n.Subject,
		"body":    n.Body,
		"type":    n.Type,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.relayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}
	return nil
}
