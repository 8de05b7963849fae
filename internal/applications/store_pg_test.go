package applications

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-backend/internal/shared/auth"
)

var applicationCols = []string{"id", "student_id", "department_id", "position_id", "round", "status", "is_active", "active_key", "status_note", "created_at", "updated_at"}

func TestPGApproveInterviewLocksAndWritesOneTransaction(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM applications WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow(int64(7), "student-1", int64(10), int64(1), 1, "PENDING_INTERVIEW", true, "ACTIVE", nil, now, now))
	mock.ExpectExec(`UPDATE applications`).
		WithArgs(int64(7), "PENDING_CONFIRMATION", nil, true, "ACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE student_profiles SET internship_status`).
		WithArgs("student-1", "REVIEW").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_records`).
		WithArgs(int64(7), "owner-a", "PENDING_INTERVIEW", "PENDING_CONFIRMATION").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO staff_actions`).
		WithArgs("owner-a", int64(7), "APPROVE_INTERVIEW applicationId=7").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	notifier := &fakeNotifier{}
	engine := NewEngine(NewPGStore(database), nil, notifier, nil)
	dept := int64(10)
	res, err := engine.ApproveInterview(context.Background(), auth.Actor{UserID: "owner-a", Role: auth.RoleOwner, DepartmentID: &dept}, 7)
	require.NoError(t, err)

	assert.Equal(t, StatusPendingConfirmation, res.Status)
	assert.Equal(t, "PENDING_INTERVIEW->PENDING_CONFIRMATION", res.Transition)
	assert.Equal(t, []string{"Interview approved"}, notifier.titlesFor("student-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGForbiddenRollsBack(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow(int64(7), "student-1", int64(10), int64(1), 1, "PENDING_INTERVIEW", true, "ACTIVE", nil, now, now))
	mock.ExpectRollback()

	engine := NewEngine(NewPGStore(database), nil, nil, nil)
	dept := int64(20)
	_, err = engine.ApproveInterview(context.Background(), auth.Actor{UserID: "owner-b", Role: auth.RoleOwner, DepartmentID: &dept}, 7)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGUniqueViolationIsConflict(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO applications`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "applications_active_key"})
	mock.ExpectRollback()

	store := NewPGStore(database)
	err = store.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		app := Application{StudentID: "student-1", DepartmentID: 10, PositionID: 1, Round: 2}
		app.setStatus(StatusPendingDocument)
		_, err := tx.InsertApplication(ctx, app)
		return err
	})
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "applications_active_key")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGSerializationFailureRetriesThenConflicts(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&pgconn.PgError{Code: "40001"})
		mock.ExpectRollback()
	}

	attempts := 0
	err = NewPGStore(database).InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		attempts++
		_, err := tx.LockApplication(ctx, 7)
		return err
	})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 3, attempts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGLockApplicationNotFound(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(404)).WillReturnRows(sqlmock.NewRows(applicationCols))
	mock.ExpectRollback()

	err = NewPGStore(database).InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		_, err := tx.LockApplication(ctx, 404)
		return err
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGLinkMentorsCopiesPositionPool(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO application_mentors`).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	var linked int
	err = NewPGStore(database).InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		var err error
		linked, err = tx.LinkMentors(ctx, 7, 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, linked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGListScopesToDepartmentAndHidesCanceled(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM applications WHERE department_id = \$1 AND status <> 'CANCEL' ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(10), DefaultListLimit, 0).
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow(int64(8), "student-2", int64(10), int64(1), 1, "PENDING_DOCUMENT", true, "ACTIVE", nil, now, now).
			AddRow(int64(3), "student-1", int64(10), int64(1), 2, "COMPLETE", false, nil, nil, now, now))

	dept := int64(10)
	apps, err := NewPGStore(database).List(context.Background(), ListFilter{DepartmentID: &dept})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, StatusPendingDocument, apps[0].Status)
	require.NotNil(t, apps[0].ActiveKey)
	assert.Nil(t, apps[1].ActiveKey)
	assert.False(t, apps[1].IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGGetDocumentNotFound(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectQuery(`FROM application_documents WHERE application_id = \$1 AND doc_type_id = \$2`).
		WithArgs(int64(7), int64(DocResume)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPGStore(database).GetDocument(context.Background(), 7, DocResume)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

var documentCols = []string{"id", "application_id", "doc_type_id", "storage_key", "file_name", "content_type", "size_bytes", "validation_status", "note", "created_at", "updated_at"}

func TestPGReviewWithNothingPendingRollsBack(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(applicationCols).
			AddRow(int64(7), "student-1", int64(10), int64(1), 1, "PENDING_REQUEST", true, "ACTIVE", nil, now, now))
	mock.ExpectQuery(`FROM application_documents WHERE application_id = \$1 ORDER BY doc_type_id`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(documentCols).
			AddRow(int64(1), int64(7), int64(DocTranscript), "applications/7/1/a.png", "t.png", "image/png", int64(72), "VERIFIED", nil, now, now))
	mock.ExpectRollback()

	engine := NewEngine(NewPGStore(database), nil, nil, nil)
	_, err = engine.ReviewDocument(context.Background(), auth.Actor{UserID: "admin-1", Role: auth.RoleAdmin}, 7, DocTranscript, ValidationVerified, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	require.NoError(t, mock.ExpectationsWereMet())
}
