package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendWritesNullOldStatusOnCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_records").
		WithArgs(int64(9), "student-1", nil, "PENDING_DOCUMENT").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, Append(context.Background(), tx, Record{ApplicationID: 9, ActorID: "student-1", NewStatus: "PENDING_DOCUMENT"}))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoListByApplicationNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	old := "PENDING_DOCUMENT"
	t1 := time.Date(2026, time.February, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "application_id", "actor_id", "old_status", "new_status", "created_at"}).
		AddRow(int64(2), int64(9), "student-1", old, "PENDING_INTERVIEW", t1.Add(time.Minute)).
		AddRow(int64(1), int64(9), "student-1", nil, "PENDING_DOCUMENT", t1)
	mock.ExpectQuery("SELECT id, application_id, actor_id, old_status, new_status, created_at FROM audit_records WHERE application_id").
		WithArgs(int64(9), DefaultLimit, 0).
		WillReturnRows(rows)

	repo := NewPGRepo(db)
	records, err := repo.ListByApplication(context.Background(), 9, Page{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "PENDING_INTERVIEW", records[0].NewStatus)
	require.NotNil(t, records[0].OldStatus)
	assert.Equal(t, old, *records[0].OldStatus)
	assert.Nil(t, records[1].OldStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendStaffActionKeepsApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO staff_actions").
		WithArgs("admin-1", int64(9), "REVIEW_DOCUMENT applicationId=9 docType=transcript status=INVALID").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	appID := int64(9)
	require.NoError(t, AppendStaffAction(context.Background(), tx, StaffAction{
		UserID:        "admin-1",
		ApplicationID: &appID,
		Action:        "REVIEW_DOCUMENT applicationId=9 docType=transcript status=INVALID",
	}))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoListStaffActionsFiltersByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t1 := time.Date(2026, time.February, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "application_id", "action", "created_at"}).
		AddRow(int64(4), "owner-1", int64(9), "CANCEL_BY_OWNER applicationId=9", t1.Add(time.Minute)).
		AddRow(int64(2), "owner-1", nil, "APPROVE_INTERVIEW applicationId=3", t1)
	mock.ExpectQuery("SELECT id, user_id, application_id, action, created_at FROM staff_actions").
		WithArgs("owner-1", 10, 0).
		WillReturnRows(rows)

	repo := NewPGRepo(db)
	actions, err := repo.ListStaffActions(context.Background(), "owner-1", Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "CANCEL_BY_OWNER applicationId=9", actions[0].Action)
	require.NotNil(t, actions[0].ApplicationID)
	assert.Equal(t, int64(9), *actions[0].ApplicationID)
	assert.Nil(t, actions[1].ApplicationID)
	require.NoError(t, mock.ExpectationsWereMet())
}
