package users

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"internship-backend/internal/shared/auth"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	users    map[string]User
	profiles map[string]StudentProfile
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:    make(map[string]User),
		profiles: make(map[string]StudentProfile),
	}
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) GetStudentProfile(ctx context.Context, userID string) (StudentProfile, error) {
	if err := ctx.Err(); err != nil {
		return StudentProfile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return StudentProfile{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) CreateStudent(ctx context.Context, user User, profile StudentProfile) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUniqueLocked(user); err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	user.Role = auth.RoleStudent
	user.CreatedAt, user.UpdatedAt = now, now
	profile.UserID = user.ID
	if profile.InternshipStatus == "" {
		profile.InternshipStatus = InitialInternshipStatus
	}
	profile.UpdatedAt = now
	r.users[user.ID] = user
	r.profiles[user.ID] = profile
	return user, nil
}

func (r *MemoryRepo) CreateStaff(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUniqueLocked(user); err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryRepo) ListIDsByRole(ctx context.Context, role auth.Role, departmentID *int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, u := range r.users {
		if u.Role != role {
			continue
		}
		if departmentID != nil && (u.DepartmentID == nil || *u.DepartmentID != *departmentID) {
			continue
		}
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// ProfileChange is one student's pending lifecycle and department write.
// Empty fields are left untouched.
type ProfileChange struct {
	UserID           string
	InternshipStatus string
	DepartmentID     *int64
}

// ApplyProfileChanges writes every change or none of them. Used by the
// in-memory workflow store when a transition commits.
func (r *MemoryRepo) ApplyProfileChanges(changes []ProfileChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range changes {
		if _, ok := r.users[c.UserID]; !ok {
			return fmt.Errorf("%w: user %s", ErrNotFound, c.UserID)
		}
		if _, ok := r.profiles[c.UserID]; !ok && c.InternshipStatus != "" {
			return fmt.Errorf("%w: student profile %s", ErrNotFound, c.UserID)
		}
	}
	now := time.Now().UTC()
	for _, c := range changes {
		if c.InternshipStatus != "" {
			p := r.profiles[c.UserID]
			p.InternshipStatus = c.InternshipStatus
			p.UpdatedAt = now
			r.profiles[c.UserID] = p
		}
		if c.DepartmentID != nil {
			u := r.users[c.UserID]
			dept := *c.DepartmentID
			u.DepartmentID = &dept
			u.UpdatedAt = now
			r.users[c.UserID] = u
		}
	}
	return nil
}

func (r *MemoryRepo) checkUniqueLocked(user User) error {
	if _, ok := r.users[user.ID]; ok {
		return ErrConflict
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrConflict
		}
	}
	return nil
}
