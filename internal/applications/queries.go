package applications

import (
	"context"
	"errors"
	"fmt"

	"internship-backend/internal/audit"
	"internship-backend/internal/shared/auth"
	"internship-backend/internal/shared/storage/object"
)

// Get returns the application with its information, documents and mentors.
func (e *Engine) Get(ctx context.Context, actor auth.Actor, applicationID int64) (Detail, error) {
	d, err := e.Store.GetDetail(ctx, applicationID)
	if err != nil {
		return Detail{}, err
	}
	if err := authorizeView(actor, d.Application); err != nil {
		return Detail{}, err
	}
	return d, nil
}

// ListMine is the caller's own application history, newest first.
func (e *Engine) ListMine(ctx context.Context, actor auth.Actor, includeCanceled bool) ([]Application, error) {
	if !actor.IsStudent() {
		return nil, fmt.Errorf("%w: students only", ErrForbidden)
	}
	return e.Store.ListByStudent(ctx, actor.UserID, includeCanceled)
}

// ListForStaff lists applications for admins, or an owner's own department.
func (e *Engine) ListForStaff(ctx context.Context, actor auth.Actor, filter ListFilter) ([]Application, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsOwner():
		if actor.DepartmentID == nil {
			return nil, fmt.Errorf("%w: owner has no department", ErrForbidden)
		}
		dept := *actor.DepartmentID
		filter.DepartmentID = &dept
	default:
		return nil, fmt.Errorf("%w: staff only", ErrForbidden)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	return e.Store.List(ctx, filter)
}

// ListDocuments is the admin review queue.
func (e *Engine) ListDocuments(ctx context.Context, actor auth.Actor, filter DocumentFilter) ([]Document, error) {
	if err := authorizeAdmin(actor); err != nil {
		return nil, err
	}
	if filter.Validation != "" && !filter.Validation.Valid() {
		return nil, fmt.Errorf("%w: unknown validation status %q", ErrInvalidInput, filter.Validation)
	}
	if filter.DocType != 0 && !filter.DocType.Valid() {
		return nil, fmt.Errorf("%w: unknown document type", ErrInvalidInput)
	}
	return e.Store.ListDocuments(ctx, filter)
}

// OpenDocument streams a stored document. The caller closes the body.
func (e *Engine) OpenDocument(ctx context.Context, actor auth.Actor, applicationID int64, docType DocType) (Document, *object.Object, error) {
	app, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return Document{}, nil, err
	}
	if err := authorizeView(actor, app); err != nil {
		return Document{}, nil, err
	}
	doc, err := e.Store.GetDocument(ctx, applicationID, docType)
	if err != nil {
		return Document{}, nil, err
	}
	obj, err := e.Objects.Get(ctx, doc.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return Document{}, nil, fmt.Errorf("%w: stored file for %s", ErrNotFound, docType)
	}
	if err != nil {
		return Document{}, nil, fmt.Errorf("%w: open document: %v", ErrInternal, err)
	}
	return doc, obj, nil
}

// AuditAccess applies the application read rule to audit history.
func (e *Engine) AuditAccess() audit.AccessChecker {
	return auditAccess{e: e}
}

type auditAccess struct {
	e *Engine
}

func (a auditAccess) CanViewApplication(ctx context.Context, actor auth.Actor, applicationID int64) error {
	app, err := a.e.Store.GetApplication(ctx, applicationID)
	if errors.Is(err, ErrNotFound) {
		return audit.ErrNotFound
	}
	if err != nil {
		return err
	}
	if authorizeView(actor, app) != nil {
		return audit.ErrForbidden
	}
	return nil
}
