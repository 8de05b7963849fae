package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"internship-backend/internal/queue"
	"internship-backend/internal/shared/metrics"
	"internship-backend/internal/shared/telemetry"
)

type Service struct {
	Repo Repo
	// Queue, when set, receives one envelope per Notify call for out-of-app delivery.
	Queue queue.Client
	now   func() time.Time
}

func NewService(repo Repo, q queue.Client) *Service {
	return &Service{Repo: repo, Queue: q, now: time.Now}
}

// Notify stores one in-app message per distinct recipient. Empty recipient
// lists are a no-op. Queue publication failures are logged, not returned.
func (s *Service) Notify(ctx context.Context, userIDs []string, title, message string) error {
	if s == nil || s.Repo == nil {
		return errors.New("notification service not configured")
	}
	recipients := dedupe(userIDs)
	if len(recipients) == 0 {
		return nil
	}
	if _, err := s.Repo.CreateMany(ctx, recipients, title, message); err != nil {
		metrics.IncNotification("failed")
		return err
	}
	metrics.IncNotification("sent")

	if s.Queue != nil {
		msg := queue.Message{
			RecipientIDs: recipients,
			Title:        title,
			Body:         message,
			EnqueuedAt:   s.clock().UTC().Format(time.RFC3339),
			Version:      queue.MessageVersion,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			telemetry.Warn("notification.publish_failed", map[string]any{
				"recipients": len(recipients),
				"error":      err.Error(),
			})
		} else {
			metrics.IncNotification("published")
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, int, error) {
	items, err := s.Repo.List(ctx, userID, opts)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.Repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

func (s *Service) MarkRead(ctx context.Context, userID string, id int64) error {
	return s.Repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.Repo.MarkAllRead(ctx, userID)
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
