package applications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"internship-backend/internal/audit"
	"internship-backend/internal/docscan"
	"internship-backend/internal/shared/auth"
	"internship-backend/internal/shared/metrics"
	"internship-backend/internal/shared/storage/object"
	"internship-backend/internal/shared/telemetry"
)

// Notifier delivers in-app messages. *notifications.Service satisfies it.
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, title, message string) error
}

// Directory resolves notification recipients. *users.Service satisfies it.
type Directory interface {
	OwnerIDs(ctx context.Context, departmentID int64) ([]string, error)
	AdminIDs(ctx context.Context) ([]string, error)
}

// Engine runs workflow transitions. Each operation locks the application
// row, checks the actor and the current status, writes the new status with
// its lifecycle mirror and audit record in one transaction, and notifies
// after commit.
type Engine struct {
	Store     Store
	Objects   object.ObjectStore
	Notifier  Notifier
	Directory Directory
	NewName   func() string
}

func NewEngine(store Store, objects object.ObjectStore, notifier Notifier, directory Directory) *Engine {
	return &Engine{
		Store:     store,
		Objects:   objects,
		Notifier:  notifier,
		Directory: directory,
		NewName:   uuid.NewString,
	}
}

// Upload is a document file as received from the caller.
type Upload struct {
	FileName string
	Data     []byte
}

// InformationInput is the student's application form.
type InformationInput struct {
	Skill       string
	Expectation string
	StartDate   time.Time
	EndDate     time.Time
	Hours       int
}

type recipient int

const (
	toStudent recipient = iota
	toOwners
	toAdmins
)

type notice struct {
	to      recipient
	title   string
	message string
}

// outcome collects what a transaction did. It is reset on every attempt.
type outcome struct {
	app      Application
	from     *Status
	changed  bool
	mentors  int
	document *Document
	notices  []notice
}

func (o *outcome) notify(to recipient, title, message string) {
	o.notices = append(o.notices, notice{to: to, title: title, message: message})
}

func (o *outcome) result() Result {
	res := Result{
		ApplicationID: o.app.ID,
		Status:        o.app.Status,
		MentorsLinked: o.mentors,
		Document:      o.document,
	}
	if o.changed {
		from := "none"
		if o.from != nil {
			from = string(*o.from)
		}
		res.Transition = from + "->" + string(o.app.Status)
	}
	return res
}

func (e *Engine) execute(ctx context.Context, op string, actor auth.Actor, fn func(ctx context.Context, tx Tx, out *outcome) error) (Result, error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(op, time.Since(start)) }()

	var out outcome
	err := e.Store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		out = outcome{}
		return fn(ctx, tx, &out)
	})
	if err != nil {
		metrics.IncError(op, errorKind(err))
		return Result{}, err
	}

	res := out.result()
	if out.changed {
		from := ""
		if out.from != nil {
			from = string(*out.from)
		}
		metrics.IncTransition(op, from, string(out.app.Status))
		telemetry.Info("application.transition", map[string]any{
			"application_id":    out.app.ID,
			"actor_id":          actor.UserID,
			"operation":         op,
			"status_transition": res.Transition,
		})
	}
	e.dispatch(ctx, out.app, out.notices)
	return res, nil
}

// transition moves app to next, mirrors the lifecycle and appends the audit
// record, all on tx.
func transition(ctx context.Context, tx Tx, out *outcome, actor auth.Actor, app Application, next Status) (Application, error) {
	return transitionWith(ctx, tx, out, actor, app, next, lifecycleFor(next))
}

// transitionWith is transition with an explicit lifecycle mirror.
func transitionWith(ctx context.Context, tx Tx, out *outcome, actor auth.Actor, app Application, next Status, lifecycle Lifecycle) (Application, error) {
	prev := app.Status
	old := string(prev)
	app.setStatus(next)
	if err := tx.UpdateApplicationStatus(ctx, app); err != nil {
		return Application{}, fmt.Errorf("update status: %w", err)
	}
	if err := tx.SetLifecycle(ctx, app.StudentID, lifecycle); err != nil {
		return Application{}, fmt.Errorf("set lifecycle: %w", err)
	}
	if err := tx.AppendAudit(ctx, audit.Record{
		ApplicationID: app.ID,
		ActorID:       actor.UserID,
		OldStatus:     &old,
		NewStatus:     string(next),
	}); err != nil {
		return Application{}, err
	}
	out.app = app
	out.from = &prev
	out.changed = true
	return app, nil
}

// recordStaffAction logs an admin or owner decision on tx, whether or not it
// moved the application.
func recordStaffAction(ctx context.Context, tx Tx, actor auth.Actor, applicationID int64, kind, detail string) error {
	action := fmt.Sprintf("%s applicationId=%d", kind, applicationID)
	if detail != "" {
		action += " " + detail
	}
	id := applicationID
	return tx.AppendStaffAction(ctx, audit.StaffAction{UserID: actor.UserID, ApplicationID: &id, Action: action})
}

func invalidState(app Application, action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, action, app.Status)
}

// CreateApplication opens a new round for the student against an open position.
func (e *Engine) CreateApplication(ctx context.Context, actor auth.Actor, positionID int64) (Result, error) {
	if !actor.IsStudent() {
		return Result{}, fmt.Errorf("%w: only students apply", ErrForbidden)
	}
	return e.execute(ctx, "create_application", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		lifecycle, err := tx.LockStudent(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if !lifecycle.canApply() {
			return fmt.Errorf("%w: student is %s", ErrInvalidState, lifecycle)
		}
		pos, err := tx.GetPosition(ctx, positionID)
		if err != nil {
			return err
		}
		if pos.RecruitmentStatus != RecruitmentOpen {
			return fmt.Errorf("%w: position %d is not recruiting", ErrInvalidState, pos.ID)
		}
		round, err := tx.NextRound(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("next round: %w", err)
		}

		app := Application{
			StudentID:    actor.UserID,
			DepartmentID: pos.DepartmentID,
			PositionID:   pos.ID,
			Round:        round,
		}
		app.setStatus(StatusPendingDocument)
		app, err = tx.InsertApplication(ctx, app)
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		if err := tx.SetLifecycle(ctx, actor.UserID, lifecycleFor(app.Status)); err != nil {
			return fmt.Errorf("set lifecycle: %w", err)
		}
		if err := tx.AppendAudit(ctx, audit.Record{
			ApplicationID: app.ID,
			ActorID:       actor.UserID,
			NewStatus:     string(app.Status),
		}); err != nil {
			return err
		}
		out.app = app
		out.changed = true
		return nil
	})
}

// SubmitInformation stores the application form. It does not change status.
func (e *Engine) SubmitInformation(ctx context.Context, actor auth.Actor, applicationID int64, in InformationInput) (Result, error) {
	if err := validateInformation(in); err != nil {
		return Result{}, err
	}
	return e.execute(ctx, "submit_information", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := authorizeStudent(actor, app); err != nil {
			return err
		}
		if app.Status != StatusPendingDocument {
			return invalidState(app, "submit information")
		}
		if _, err := tx.UpsertInformation(ctx, Information{
			ApplicationID: app.ID,
			Skill:         strings.TrimSpace(in.Skill),
			Expectation:   strings.TrimSpace(in.Expectation),
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			Hours:         in.Hours,
		}); err != nil {
			return fmt.Errorf("upsert information: %w", err)
		}
		out.app = app
		return nil
	})
}

func validateInformation(in InformationInput) error {
	switch {
	case in.Hours <= 0:
		return fmt.Errorf("%w: hours must be positive", ErrInvalidInput)
	case in.StartDate.IsZero() || in.EndDate.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	case in.EndDate.Before(in.StartDate):
		return fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}
	return nil
}

func scanUpload(u Upload) (docscan.Result, error) {
	res, err := docscan.Inspect(u.Data)
	if err != nil {
		return docscan.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return res, nil
}

// storeDocument puts the blob and upserts the document row for its slot.
func (e *Engine) storeDocument(ctx context.Context, tx Tx, app Application, docType DocType, u Upload, scan docscan.Result, v Validation) (Document, error) {
	key := fmt.Sprintf("applications/%d/%d/%s%s", app.ID, docType, e.NewName(), scan.Extension)
	size, err := e.Objects.Put(ctx, key, scan.ContentType, bytes.NewReader(u.Data))
	if err != nil {
		return Document{}, fmt.Errorf("%w: store document: %v", ErrInternal, err)
	}
	doc, err := tx.UpsertDocument(ctx, Document{
		ApplicationID: app.ID,
		DocType:       docType,
		StorageKey:    key,
		FileName:      strings.TrimSpace(u.FileName),
		ContentType:   scan.ContentType,
		SizeBytes:     size,
		Validation:    v,
	})
	if err != nil {
		return Document{}, fmt.Errorf("upsert document: %w", err)
	}
	return doc, nil
}

// UploadDocument fills a transcript, resume or portfolio slot. Completing the
// position's required set while PENDING_DOCUMENT moves the application to
// PENDING_INTERVIEW.
func (e *Engine) UploadDocument(ctx context.Context, actor auth.Actor, applicationID int64, docType DocType, u Upload) (Result, error) {
	if docType == DocRequestLetter {
		return e.UploadRequestLetter(ctx, actor, applicationID, u)
	}
	if !docType.Valid() {
		return Result{}, fmt.Errorf("%w: unknown document type", ErrInvalidInput)
	}
	scan, err := scanUpload(u)
	if err != nil {
		return Result{}, err
	}
	snapshot, err := e.Store.GetApplication(ctx, applicationID)
	if err != nil {
		return Result{}, err
	}

	return e.execute(ctx, "upload_document", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := authorizeStudent(actor, app); err != nil {
			return err
		}
		pos, err := tx.GetPosition(ctx, app.PositionID)
		if err != nil {
			return err
		}
		if !isRequired(pos, docType) {
			return fmt.Errorf("%w: position %d does not take a %s", ErrInvalidState, pos.ID, docType)
		}
		out.app = app

		switch {
		case app.Status == StatusPendingRequest:
			doc, err := e.storeDocument(ctx, tx, app, docType, u, scan, ValidationPending)
			if err != nil {
				return err
			}
			out.document = &doc
			return nil

		case app.Status == StatusPendingInterview && snapshot.Status == StatusPendingDocument:
			// A concurrent upload completed the set first; keep this file, nothing else.
			doc, err := e.storeDocument(ctx, tx, app, docType, u, scan, ValidationVerified)
			if err != nil {
				return err
			}
			out.document = &doc
			return nil

		case app.Status != StatusPendingDocument:
			return invalidState(app, "upload documents")
		}

		doc, err := e.storeDocument(ctx, tx, app, docType, u, scan, ValidationVerified)
		if err != nil {
			return err
		}
		out.document = &doc

		docs, err := tx.ListDocuments(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if !IsComplete(RequiredTypes(pos), uploadedTypes(docs)) {
			return nil
		}
		if _, err := transition(ctx, tx, out, actor, app, StatusPendingInterview); err != nil {
			return err
		}
		out.notify(toOwners, "New applicant awaiting interview",
			fmt.Sprintf("Application #%d has submitted all required documents.", app.ID))
		return nil
	})
}

// UploadRequestLetter stores the request letter and hands the application to
// the admins for final review.
func (e *Engine) UploadRequestLetter(ctx context.Context, actor auth.Actor, applicationID int64, u Upload) (Result, error) {
	scan, err := scanUpload(u)
	if err != nil {
		return Result{}, err
	}
	return e.execute(ctx, "upload_request_letter", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := authorizeStudent(actor, app); err != nil {
			return err
		}
		if app.Status != StatusPendingRequest {
			return invalidState(app, "upload a request letter")
		}
		doc, err := e.storeDocument(ctx, tx, app, DocRequestLetter, u, scan, ValidationPending)
		if err != nil {
			return err
		}
		out.document = &doc
		if _, err := transition(ctx, tx, out, actor, app, StatusPendingReview); err != nil {
			return err
		}
		out.notify(toAdmins, "Documents awaiting review",
			fmt.Sprintf("Application #%d has submitted a request letter.", app.ID))
		return nil
	})
}

// ApproveInterview moves a PENDING_INTERVIEW application to PENDING_CONFIRMATION.
func (e *Engine) ApproveInterview(ctx context.Context, actor auth.Actor, applicationID int64) (Result, error) {
	return e.execute(ctx, "approve_interview", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := authorizeOwner(actor, app); err != nil {
			return err
		}
		if app.Status != StatusPendingInterview {
			return invalidState(app, "approve the interview")
		}
		if _, err := transition(ctx, tx, out, actor, app, StatusPendingConfirmation); err != nil {
			return err
		}
		if err := recordStaffAction(ctx, tx, actor, app.ID, audit.ActionApproveInterview, ""); err != nil {
			return err
		}
		out.notify(toStudent, "Interview approved",
			fmt.Sprintf("Your application #%d passed the interview stage.", app.ID))
		return nil
	})
}

// ConfirmAccept accepts the student into the position's department and
// assigns the position's mentors.
func (e *Engine) ConfirmAccept(ctx context.Context, actor auth.Actor, applicationID int64) (Result, error) {
	return e.execute(ctx, "confirm_accept", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := authorizeOwner(actor, app); err != nil {
			return err
		}
		if app.Status != StatusPendingConfirmation {
			return invalidState(app, "confirm acceptance")
		}
		pos, err := tx.GetPosition(ctx, app.PositionID)
		if err != nil {
			return err
		}
		if _, err := transition(ctx, tx, out, actor, app, StatusPendingRequest); err != nil {
			return err
		}
		if err := tx.SetStudentDepartment(ctx, app.StudentID, pos.DepartmentID); err != nil {
			return fmt.Errorf("set department: %w", err)
		}
		n, err := tx.LinkMentors(ctx, app.ID, pos.ID)
		if err != nil {
			return fmt.Errorf("link mentors: %w", err)
		}
		out.mentors = n
		if err := recordStaffAction(ctx, tx, actor, app.ID, audit.ActionConfirmAccept, fmt.Sprintf("mentors=%d", n)); err != nil {
			return err
		}
		out.notify(toStudent, "Application accepted",
			fmt.Sprintf("Application #%d was accepted. Please upload your request letter.", app.ID))
		return nil
	})
}

// ReviewDocument records an admin verdict. It needs at least one document
// awaiting review. A rejection sends the application back to PENDING_REQUEST;
// the verification that leaves every document VERIFIED completes it.
func (e *Engine) ReviewDocument(ctx context.Context, actor auth.Actor, applicationID int64, docType DocType, verdict Validation, note string) (Result, error) {
	if !docType.Valid() {
		return Result{}, fmt.Errorf("%w: unknown document type", ErrInvalidInput)
	}
	if verdict != ValidationVerified && verdict != ValidationInvalid {
		return Result{}, fmt.Errorf("%w: verdict must be VERIFIED or INVALID", ErrInvalidInput)
	}
	return e.execute(ctx, "review_document", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := authorizeAdmin(actor); err != nil {
			return err
		}
		if app.Status != StatusPendingRequest && app.Status != StatusPendingReview {
			return invalidState(app, "review documents")
		}
		out.app = app

		docs, err := tx.ListDocuments(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if !hasDocument(docs, docType) {
			return fmt.Errorf("%w: %s document for application %d", ErrNotFound, docType, app.ID)
		}
		if !awaitingReview(docs) {
			return fmt.Errorf("%w: no document of application %d is awaiting review", ErrInvalidState, app.ID)
		}

		var notePtr *string
		if trimmed := strings.TrimSpace(note); verdict == ValidationInvalid && trimmed != "" {
			notePtr = &trimmed
		}
		doc, err := tx.UpdateDocumentReview(ctx, app.ID, docType, verdict, notePtr)
		if err != nil {
			return err
		}
		out.document = &doc
		detail := fmt.Sprintf("docType=%s status=%s", docType, verdict)
		if err := recordStaffAction(ctx, tx, actor, app.ID, audit.ActionReviewDocument, detail); err != nil {
			return err
		}

		if verdict == ValidationInvalid {
			if app.Status == StatusPendingReview {
				if _, err := transition(ctx, tx, out, actor, app, StatusPendingRequest); err != nil {
					return err
				}
				if err := recordStaffAction(ctx, tx, actor, app.ID, audit.ActionStatusChange, "to="+string(StatusPendingRequest)); err != nil {
					return err
				}
			}
			out.notify(toStudent, "Document rejected",
				fmt.Sprintf("Your %s for application #%d was rejected. Please upload it again.", docType, app.ID))
			return nil
		}

		docs, err = tx.ListDocuments(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if !allVerified(docs) {
			return nil
		}
		if _, err := transition(ctx, tx, out, actor, app, StatusComplete); err != nil {
			return err
		}
		if err := recordStaffAction(ctx, tx, actor, app.ID, audit.ActionStatusChange, "to="+string(StatusComplete)); err != nil {
			return err
		}
		out.notify(toStudent, "Application complete",
			fmt.Sprintf("All documents for application #%d are verified.", app.ID))
		return nil
	})
}

// CancelByStudent withdraws an application before any document was uploaded.
func (e *Engine) CancelByStudent(ctx context.Context, actor auth.Actor, applicationID int64) (Result, error) {
	return e.execute(ctx, "cancel_by_student", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := authorizeStudent(actor, app); err != nil {
			return err
		}
		if app.Status != StatusPendingDocument {
			return invalidState(app, "cancel")
		}
		docs, err := tx.ListDocuments(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if len(docs) > 0 {
			return fmt.Errorf("%w: documents already uploaded", ErrInvalidState)
		}
		_, err = transition(ctx, tx, out, actor, app, StatusCancel)
		return err
	})
}

// CancelByOwner rejects an application during the interview or confirmation
// stage and frees the student to apply again.
func (e *Engine) CancelByOwner(ctx context.Context, actor auth.Actor, applicationID int64, reason string) (Result, error) {
	reason = strings.TrimSpace(reason)
	return e.execute(ctx, "cancel_by_owner", actor, func(ctx context.Context, tx Tx, out *outcome) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := authorizeOwner(actor, app); err != nil {
			return err
		}
		if app.Status != StatusPendingInterview && app.Status != StatusPendingConfirmation {
			return invalidState(app, "cancel")
		}
		if reason == "" {
			return fmt.Errorf("%w: a cancellation reason is required", ErrInvalidState)
		}
		app.StatusNote = &reason
		if _, err := transitionWith(ctx, tx, out, actor, app, StatusCancel, LifecycleIdle); err != nil {
			return err
		}
		if err := recordStaffAction(ctx, tx, actor, app.ID, audit.ActionCancelByOwner, ""); err != nil {
			return err
		}
		out.notify(toStudent, "Application cancelled",
			fmt.Sprintf("Application #%d was cancelled: %s", app.ID, reason))
		return nil
	})
}

// dispatch is best effort; the transition is already committed.
func (e *Engine) dispatch(ctx context.Context, app Application, notices []notice) {
	if e.Notifier == nil {
		return
	}
	for _, n := range notices {
		ids, err := e.recipients(ctx, app, n.to)
		if err == nil && len(ids) > 0 {
			err = e.Notifier.Notify(ctx, ids, n.title, n.message)
		}
		if err != nil {
			telemetry.Warn("notification.dispatch_failed", map[string]any{
				"application_id": app.ID,
				"title":          n.title,
				"error":          err.Error(),
			})
		}
	}
}

func (e *Engine) recipients(ctx context.Context, app Application, to recipient) ([]string, error) {
	switch to {
	case toStudent:
		return []string{app.StudentID}, nil
	case toOwners:
		if e.Directory == nil {
			return nil, errors.New("no recipient directory")
		}
		return e.Directory.OwnerIDs(ctx, app.DepartmentID)
	case toAdmins:
		if e.Directory == nil {
			return nil, errors.New("no recipient directory")
		}
		return e.Directory.AdminIDs(ctx)
	}
	return nil, nil
}
