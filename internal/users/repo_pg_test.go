package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"internship-backend/internal/shared/auth"
)

func TestPGRepoCreateStudentWritesUserAndProfileInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	inst := int64(3)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("u-1", int(auth.RoleStudent), nil, "s@example.com", "Som", "Chai").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(fixedTime, fixedTime))
	mock.ExpectExec("INSERT INTO student_profiles").
		WithArgs("u-1", int64(3), "IDLE").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	user, err := repo.CreateStudent(context.Background(), User{ID: "u-1", Email: "s@example.com", FirstName: "Som", LastName: "Chai"}, StudentProfile{InstitutionID: &inst})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if user.Role != auth.RoleStudent {
		t.Fatalf("expected student role, got %v", user.Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGRepoCreateStudentRollsBackOnProfileFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(fixedTime, fixedTime))
	mock.ExpectExec("INSERT INTO student_profiles").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	_, err = repo.CreateStudent(context.Background(), User{ID: "u-1", Email: "s@example.com"}, StudentProfile{})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

var fixedTime = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
