package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"internship-backend/internal/shared/auth"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// ExternalIdentity is what an identity provider tells us about a person.
type ExternalIdentity struct {
	Email     string
	FirstName string
	LastName  string
}

// SignIn returns the user for the identity, registering a new student (user and
// profile in one write) when the email is unknown. created reports registration.
func (s *Service) SignIn(ctx context.Context, ident ExternalIdentity, institutionID *int64) (user User, created bool, err error) {
	if s == nil || s.Repo == nil {
		return User{}, false, errors.New("users service not configured")
	}
	email := strings.TrimSpace(ident.Email)
	if email == "" {
		return User{}, false, errors.New("email is required")
	}

	user, err = s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, false, fmt.Errorf("lookup user: %w", err)
	}

	user, err = s.Repo.CreateStudent(ctx, User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: strings.TrimSpace(ident.FirstName),
		LastName:  strings.TrimSpace(ident.LastName),
	}, StudentProfile{InstitutionID: institutionID})
	if errors.Is(err, ErrConflict) {
		// Lost a race with a concurrent first sign-in for the same email.
		user, err = s.Repo.GetByEmail(ctx, email)
		return user, false, err
	}
	if err != nil {
		return User{}, false, fmt.Errorf("register student: %w", err)
	}
	return user, true, nil
}

// Me bundles a user with its student profile, if any.
type Me struct {
	User    User
	Profile *StudentProfile
}

func (s *Service) Me(ctx context.Context, userID string) (Me, error) {
	if s == nil || s.Repo == nil {
		return Me{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return Me{}, errors.New("user id is required")
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return Me{}, err
	}
	out := Me{User: user}
	if user.Role == auth.RoleStudent {
		profile, err := s.Repo.GetStudentProfile(ctx, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Me{}, err
		}
		if err == nil {
			out.Profile = &profile
		}
	}
	return out, nil
}

// OwnerIDs lists the owners of a department.
func (s *Service) OwnerIDs(ctx context.Context, departmentID int64) ([]string, error) {
	return s.Repo.ListIDsByRole(ctx, auth.RoleOwner, &departmentID)
}

// AdminIDs lists every platform admin.
func (s *Service) AdminIDs(ctx context.Context) ([]string, error) {
	return s.Repo.ListIDsByRole(ctx, auth.RoleAdmin, nil)
}
