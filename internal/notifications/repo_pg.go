package notifications

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) CreateMany(ctx context.Context, userIDs []string, title, message string) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO notifications (user_id, title, message, is_read, created_at) VALUES ")
	args := make([]any, 0, len(userIDs)+2)
	args = append(args, title, message)
	for i, id := range userIDs {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, id)
		b.WriteString("($")
		b.WriteString(strconv.Itoa(len(args)))
		b.WriteString(", $1, $2, false, now())")
	}
	res, err := r.DB.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *PGRepo) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	opts = opts.normalize()
	query := `
SELECT id, user_id, title, message, is_read, created_at
FROM notifications
WHERE user_id = $1`
	if opts.UnreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&n)
	return n, err
}

func (r *PGRepo) MarkRead(ctx context.Context, userID string, id int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
