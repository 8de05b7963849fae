package audit

import (
	"context"
	"errors"
	"time"

	"internship-backend/internal/shared/auth"
)

var (
	ErrNotFound  = errors.New("application not found")
	ErrForbidden = errors.New("forbidden")
)

// Record is one application status transition. Records are never updated or deleted.
type Record struct {
	ID            int64     `db:"id" json:"id"`
	ApplicationID int64     `db:"application_id" json:"applicationId"`
	ActorID       string    `db:"actor_id" json:"actorId"`
	OldStatus     *string   `db:"old_status" json:"oldStatus"`
	NewStatus     string    `db:"new_status" json:"newStatus"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Staff action kinds. The action text starts with one of these.
const (
	ActionApproveInterview = "APPROVE_INTERVIEW"
	ActionConfirmAccept    = "CONFIRM_ACCEPT"
	ActionReviewDocument   = "REVIEW_DOCUMENT"
	ActionStatusChange     = "APPLICATION_STATUS_CHANGE"
	ActionCancelByOwner    = "CANCEL_BY_OWNER"
)

// StaffAction is one admin or owner decision. It is written even when the
// decision leaves the application status unchanged, and never updated.
type StaffAction struct {
	ID            int64     `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	ApplicationID *int64    `db:"application_id" json:"applicationId"`
	Action        string    `db:"action" json:"action"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Page bounds a history query.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Repo is the read side of the trail. Writes happen through Append inside the
// transaction that performs the transition.
type Repo interface {
	ListByApplication(ctx context.Context, applicationID int64, page Page) ([]Record, error)
	ListByActor(ctx context.Context, actorID string, page Page) ([]Record, error)
	// ListStaffActions returns staff actions newest first. An empty userID
	// lists every staff member.
	ListStaffActions(ctx context.Context, userID string, page Page) ([]StaffAction, error)
}

// AccessChecker decides whether an actor may read an application's history.
// It returns ErrNotFound or ErrForbidden.
type AccessChecker interface {
	CanViewApplication(ctx context.Context, actor auth.Actor, applicationID int64) error
}
