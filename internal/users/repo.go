package users

import (
	"context"
	"errors"

	"internship-backend/internal/shared/auth"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("user already exists")
)

type Repo interface {
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetStudentProfile(ctx context.Context, userID string) (StudentProfile, error)
	// CreateStudent stores the user and its student profile atomically.
	CreateStudent(ctx context.Context, user User, profile StudentProfile) (User, error)
	// CreateStaff stores an admin or owner account.
	CreateStaff(ctx context.Context, user User) (User, error)
	// ListIDsByRole lists user ids with the role, optionally limited to one department.
	ListIDsByRole(ctx context.Context, role auth.Role, departmentID *int64) ([]string, error)
}
