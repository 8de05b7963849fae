package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// Execer is satisfied by *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append inserts rec using the caller's transaction.
func Append(ctx context.Context, tx Execer, rec Record) error {
	const query = `
INSERT INTO audit_records (application_id, actor_id, old_status, new_status, created_at)
VALUES ($1, $2, $3, $4, now())`
	var old any
	if rec.OldStatus != nil {
		old = *rec.OldStatus
	}
	if _, err := tx.ExecContext(ctx, query, rec.ApplicationID, rec.ActorID, old, rec.NewStatus); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// AppendStaffAction inserts a using the caller's transaction.
func AppendStaffAction(ctx context.Context, tx Execer, a StaffAction) error {
	const query = `
INSERT INTO staff_actions (user_id, application_id, action, created_at)
VALUES ($1, $2, $3, now())`
	var appID any
	if a.ApplicationID != nil {
		appID = *a.ApplicationID
	}
	if _, err := tx.ExecContext(ctx, query, a.UserID, appID, a.Action); err != nil {
		return fmt.Errorf("append staff action: %w", err)
	}
	return nil
}
