package applications

import (
	"context"

	"internship-backend/internal/audit"
)

// Store persists applications and the rows that hang off them. Every
// workflow decision is made inside InTx against locked rows; the plain
// reads serve queries and the pre-lock snapshot only.
type Store interface {
	// GetApplication reads the application without locking it.
	GetApplication(ctx context.Context, id int64) (Application, error)
	// InTx runs fn in one serializable transaction. fn may be re-run after a
	// serialization failure, so it must not keep state across attempts.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetDetail(ctx context.Context, id int64) (Detail, error)
	ListByStudent(ctx context.Context, studentID string, includeCanceled bool) ([]Application, error)
	List(ctx context.Context, filter ListFilter) ([]Application, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error)
	GetDocument(ctx context.Context, applicationID int64, docType DocType) (Document, error)
}

// Tx is the write side, valid only inside Store.InTx.
type Tx interface {
	// LockApplication reads and locks the application row until commit.
	LockApplication(ctx context.Context, id int64) (Application, error)
	// LockStudent locks the student profile and returns its lifecycle.
	LockStudent(ctx context.Context, studentID string) (Lifecycle, error)
	GetPosition(ctx context.Context, id int64) (Position, error)
	NextRound(ctx context.Context, studentID string) (int, error)
	InsertApplication(ctx context.Context, app Application) (Application, error)
	// UpdateApplicationStatus writes status, note and the active marker.
	UpdateApplicationStatus(ctx context.Context, app Application) error
	SetLifecycle(ctx context.Context, studentID string, l Lifecycle) error
	SetStudentDepartment(ctx context.Context, studentID string, departmentID int64) error
	UpsertInformation(ctx context.Context, info Information) (Information, error)
	ListDocuments(ctx context.Context, applicationID int64) ([]Document, error)
	UpsertDocument(ctx context.Context, doc Document) (Document, error)
	UpdateDocumentReview(ctx context.Context, applicationID int64, docType DocType, v Validation, note *string) (Document, error)
	// LinkMentors copies the position's mentor pool onto the application and
	// returns how many links were added.
	LinkMentors(ctx context.Context, applicationID, positionID int64) (int, error)
	AppendAudit(ctx context.Context, rec audit.Record) error
	AppendStaffAction(ctx context.Context, a audit.StaffAction) error
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListFilter narrows the staff listing. DepartmentID is forced for owners.
type ListFilter struct {
	DepartmentID    *int64
	PositionID      *int64
	StudentID       string
	Status          Status
	IncludeCanceled bool
	Limit           int
	Offset          int
}

type DocumentFilter struct {
	ApplicationID *int64
	DocType       DocType
	Validation    Validation
	Limit         int
	Offset        int
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
