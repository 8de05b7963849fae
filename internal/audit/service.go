package audit

import (
	"context"
	"errors"
	"strings"

	"internship-backend/internal/shared/auth"
)

type Service struct {
	Repo   Repo
	Access AccessChecker
}

func NewService(repo Repo, access AccessChecker) *Service {
	return &Service{Repo: repo, Access: access}
}

// ByApplication returns the application's transitions, newest first.
func (s *Service) ByApplication(ctx context.Context, actor auth.Actor, applicationID int64, page Page) ([]Record, error) {
	if s == nil || s.Repo == nil || s.Access == nil {
		return nil, errors.New("audit service not configured")
	}
	if err := s.Access.CanViewApplication(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	return s.Repo.ListByApplication(ctx, applicationID, page)
}

// ByActor returns the transitions the actor performed, newest first.
func (s *Service) ByActor(ctx context.Context, actor auth.Actor, page Page) ([]Record, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("audit service not configured")
	}
	return s.Repo.ListByActor(ctx, actor.UserID, page)
}

// StaffActions lists admin and owner decisions for staff readers, optionally
// narrowed to one staff member.
func (s *Service) StaffActions(ctx context.Context, actor auth.Actor, userID string, page Page) ([]StaffAction, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("audit service not configured")
	}
	if !actor.IsAdmin() && !actor.IsOwner() {
		return nil, ErrForbidden
	}
	return s.Repo.ListStaffActions(ctx, strings.TrimSpace(userID), page)
}
