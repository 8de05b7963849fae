package audit

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type PGRepo struct {
	DB *sqlx.DB
}

// NewPGRepo wraps an existing pgx-backed *sql.DB.
func NewPGRepo(database *sql.DB) *PGRepo {
	return &PGRepo{DB: sqlx.NewDb(database, "pgx")}
}

func (r *PGRepo) ListByApplication(ctx context.Context, applicationID int64, page Page) ([]Record, error) {
	page = page.normalize()
	const query = `
SELECT id, application_id, actor_id, old_status, new_status, created_at
FROM audit_records
WHERE application_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	records := []Record{}
	if err := r.DB.SelectContext(ctx, &records, query, applicationID, page.Limit, page.Offset); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PGRepo) ListByActor(ctx context.Context, actorID string, page Page) ([]Record, error) {
	page = page.normalize()
	const query = `
SELECT id, application_id, actor_id, old_status, new_status, created_at
FROM audit_records
WHERE actor_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	records := []Record{}
	if err := r.DB.SelectContext(ctx, &records, query, actorID, page.Limit, page.Offset); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PGRepo) ListStaffActions(ctx context.Context, userID string, page Page) ([]StaffAction, error) {
	page = page.normalize()
	const query = `
SELECT id, user_id, application_id, action, created_at
FROM staff_actions
WHERE ($1 = '' OR user_id = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	actions := []StaffAction{}
	if err := r.DB.SelectContext(ctx, &actions, query, userID, page.Limit, page.Offset); err != nil {
		return nil, err
	}
	return actions, nil
}
