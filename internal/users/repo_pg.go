package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"internship-backend/internal/shared/auth"
	"internship-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const selectUser = `
SELECT id, role_id, department_id, email, first_name, last_name, created_at, updated_at
FROM users`

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1 LIMIT 1`, userID)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, selectUser+` WHERE lower(email) = lower($1) LIMIT 1`, email)
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg any) (User, error) {
	var user User
	var role int
	var dept sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&role,
		&dept,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Role = auth.Role(role)
	if dept.Valid {
		v := dept.Int64
		user.DepartmentID = &v
	}
	return user, nil
}

func (r *PGRepo) GetStudentProfile(ctx context.Context, userID string) (StudentProfile, error) {
	const query = `
SELECT user_id, institution_id, internship_status, updated_at
FROM student_profiles
WHERE user_id = $1`
	var p StudentProfile
	var inst sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &inst, &p.InternshipStatus, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StudentProfile{}, ErrNotFound
		}
		return StudentProfile{}, err
	}
	if inst.Valid {
		v := inst.Int64
		p.InstitutionID = &v
	}
	return p, nil
}

func (r *PGRepo) CreateStudent(ctx context.Context, user User, profile StudentProfile) (User, error) {
	user.Role = auth.RoleStudent
	if profile.InternshipStatus == "" {
		profile.InternshipStatus = InitialInternshipStatus
	}
	err := db.InTx(ctx, r.DB, nil, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, &user); err != nil {
			return err
		}
		const query = `
INSERT INTO student_profiles (user_id, institution_id, internship_status, updated_at)
VALUES ($1, $2, $3, now())`
		_, err := tx.ExecContext(ctx, query, user.ID, nullableInt64(profile.InstitutionID), profile.InternshipStatus)
		if err != nil {
			return fmt.Errorf("insert student profile: %w", err)
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) CreateStaff(ctx context.Context, user User) (User, error) {
	if err := insertUser(ctx, r.DB, &user); err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return user, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertUser(ctx context.Context, q queryRower, user *User) error {
	const query = `
INSERT INTO users (id, role_id, department_id, email, first_name, last_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
RETURNING created_at, updated_at`
	err := q.QueryRowContext(ctx, query,
		user.ID,
		int(user.Role),
		nullableInt64(user.DepartmentID),
		user.Email,
		user.FirstName,
		user.LastName,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PGRepo) ListIDsByRole(ctx context.Context, role auth.Role, departmentID *int64) ([]string, error) {
	query := `SELECT id FROM users WHERE role_id = $1`
	args := []any{int(role)}
	if departmentID != nil {
		query += ` AND department_id = $2`
		args = append(args, *departmentID)
	}
	query += ` ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
