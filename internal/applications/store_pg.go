package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"internship-backend/internal/audit"
	"internship-backend/internal/shared/storage/db"
)

// PGStore implements Store on Postgres. Transactions run at SERIALIZABLE and
// lock the application row with SELECT ... FOR UPDATE.
type PGStore struct {
	DB *sql.DB
	X  *sqlx.DB
}

func NewPGStore(database *sql.DB) *PGStore {
	return &PGStore{DB: database, X: sqlx.NewDb(database, "pgx")}
}

const applicationColumns = `id, student_id, department_id, position_id, round, status, is_active, active_key, status_note, created_at, updated_at`

const documentColumns = `id, application_id, doc_type_id, storage_key, file_name, content_type, size_bytes, validation_status, note, created_at, updated_at`

// InTx must stay SERIALIZABLE. Two uploads of different final document types
// each insert their own row, and the row lock alone does not make the second
// transaction see the first one's document: its snapshot is taken before the
// first commits. SSI aborts one of them with 40001, and the retry re-evaluates
// the required set against the committed rows.
func (s *PGStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := db.InTx(ctx, s.DB, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *sql.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
	return mapPGError(err)
}

func mapPGError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", ErrConflict, db.ConstraintName(err))
	case db.IsRetryable(err):
		return fmt.Errorf("%w: concurrent update: %v", ErrConflict, err)
	}
	return err
}

func (s *PGStore) GetApplication(ctx context.Context, id int64) (Application, error) {
	var app Application
	err := s.X.GetContext(ctx, &app, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, fmt.Errorf("%w: application %d", ErrNotFound, id)
	}
	return app, err
}

func (s *PGStore) GetDetail(ctx context.Context, id int64) (Detail, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Application: app}

	var info Information
	err = s.X.GetContext(ctx, &info, `
SELECT application_id, skill, expectation, start_date, end_date, hours, created_at, updated_at
FROM application_informations
WHERE application_id = $1`, id)
	switch {
	case err == nil:
		d.Information = &info
	case !errors.Is(err, sql.ErrNoRows):
		return Detail{}, fmt.Errorf("load information: %w", err)
	}

	d.Documents = []Document{}
	if err := s.X.SelectContext(ctx, &d.Documents, `SELECT `+documentColumns+` FROM application_documents WHERE application_id = $1 ORDER BY doc_type_id`, id); err != nil {
		return Detail{}, fmt.Errorf("load documents: %w", err)
	}
	d.Mentors = []string{}
	if err := s.X.SelectContext(ctx, &d.Mentors, `SELECT mentor_id FROM application_mentors WHERE application_id = $1 ORDER BY mentor_id`, id); err != nil {
		return Detail{}, fmt.Errorf("load mentors: %w", err)
	}
	return d, nil
}

func (s *PGStore) ListByStudent(ctx context.Context, studentID string, includeCanceled bool) ([]Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE student_id = $1`
	if !includeCanceled {
		query += ` AND status <> 'CANCEL'`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	out := []Application{}
	if err := s.X.SelectContext(ctx, &out, query, studentID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PGStore) List(ctx context.Context, f ListFilter) ([]Application, error) {
	limit, offset := normalizePage(f.Limit, f.Offset)
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.DepartmentID != nil {
		add("department_id = $%d", *f.DepartmentID)
	}
	if f.PositionID != nil {
		add("position_id = $%d", *f.PositionID)
	}
	if f.StudentID != "" {
		add("student_id = $%d", f.StudentID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	} else if !f.IncludeCanceled {
		where = append(where, "status <> 'CANCEL'")
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	out := []Application{}
	if err := s.X.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PGStore) ListDocuments(ctx context.Context, f DocumentFilter) ([]Document, error) {
	limit, offset := normalizePage(f.Limit, f.Offset)
	var where []string
	var args []any
	if f.ApplicationID != nil {
		args = append(args, *f.ApplicationID)
		where = append(where, fmt.Sprintf("application_id = $%d", len(args)))
	}
	if f.DocType != 0 {
		args = append(args, int16(f.DocType))
		where = append(where, fmt.Sprintf("doc_type_id = $%d", len(args)))
	}
	if f.Validation != "" {
		args = append(args, string(f.Validation))
		where = append(where, fmt.Sprintf("validation_status = $%d", len(args)))
	}
	query := `SELECT ` + documentColumns + ` FROM application_documents`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY updated_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	out := []Document{}
	if err := s.X.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PGStore) GetDocument(ctx context.Context, applicationID int64, docType DocType) (Document, error) {
	var doc Document
	err := s.X.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM application_documents WHERE application_id = $1 AND doc_type_id = $2`, applicationID, int16(docType))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s document for application %d", ErrNotFound, docType, applicationID)
	}
	return doc, err
}

type pgTx struct {
	tx *sql.Tx
}

func scanApplication(row interface{ Scan(...any) error }) (Application, error) {
	var app Application
	var activeKey, note sql.NullString
	var status string
	err := row.Scan(&app.ID, &app.StudentID, &app.DepartmentID, &app.PositionID, &app.Round, &status,
		&app.IsActive, &activeKey, &note, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return Application{}, err
	}
	app.Status = Status(status)
	if activeKey.Valid {
		app.ActiveKey = &activeKey.String
	}
	if note.Valid {
		app.StatusNote = &note.String
	}
	return app, nil
}

func scanDocument(row interface{ Scan(...any) error }) (Document, error) {
	var doc Document
	var docType int16
	var validation string
	var note sql.NullString
	err := row.Scan(&doc.ID, &doc.ApplicationID, &docType, &doc.StorageKey, &doc.FileName, &doc.ContentType,
		&doc.SizeBytes, &validation, &note, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return Document{}, err
	}
	doc.DocType = DocType(docType)
	doc.Validation = Validation(validation)
	if note.Valid {
		doc.Note = &note.String
	}
	return doc, nil
}

func (t *pgTx) LockApplication(ctx context.Context, id int64) (Application, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, fmt.Errorf("%w: application %d", ErrNotFound, id)
	}
	return app, err
}

func (t *pgTx) LockStudent(ctx context.Context, studentID string) (Lifecycle, error) {
	var status string
	err := t.tx.QueryRowContext(ctx, `SELECT internship_status FROM student_profiles WHERE user_id = $1 FOR UPDATE`, studentID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: student profile %s", ErrNotFound, studentID)
	}
	return Lifecycle(status), err
}

func (t *pgTx) GetPosition(ctx context.Context, id int64) (Position, error) {
	var p Position
	err := t.tx.QueryRowContext(ctx, `
SELECT id, department_id, name, recruitment_status, resume_required, portfolio_required
FROM internship_positions
WHERE id = $1`, id).Scan(&p.ID, &p.DepartmentID, &p.Name, &p.RecruitmentStatus, &p.ResumeRequired, &p.PortfolioRequired)
	if errors.Is(err, sql.ErrNoRows) {
		return Position{}, fmt.Errorf("%w: position %d", ErrNotFound, id)
	}
	return p, err
}

func (t *pgTx) NextRound(ctx context.Context, studentID string) (int, error) {
	var round int
	err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(round), 0) + 1 FROM applications WHERE student_id = $1`, studentID).Scan(&round)
	return round, err
}

func (t *pgTx) InsertApplication(ctx context.Context, app Application) (Application, error) {
	row := t.tx.QueryRowContext(ctx, `
INSERT INTO applications (student_id, department_id, position_id, round, status, is_active, active_key, status_note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+applicationColumns,
		app.StudentID, app.DepartmentID, app.PositionID, app.Round, string(app.Status), app.IsActive,
		nullableString(app.ActiveKey), nullableString(app.StatusNote))
	return scanApplication(row)
}

func (t *pgTx) UpdateApplicationStatus(ctx context.Context, app Application) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE applications
SET status = $2, status_note = $3, is_active = $4, active_key = $5, updated_at = now()
WHERE id = $1`, app.ID, string(app.Status), nullableString(app.StatusNote), app.IsActive, nullableString(app.ActiveKey))
	if err != nil {
		return err
	}
	return expectOne(res, fmt.Errorf("%w: application %d", ErrNotFound, app.ID))
}

func (t *pgTx) SetLifecycle(ctx context.Context, studentID string, l Lifecycle) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE student_profiles SET internship_status = $2, updated_at = now() WHERE user_id = $1`, studentID, string(l))
	if err != nil {
		return err
	}
	return expectOne(res, fmt.Errorf("%w: student profile %s", ErrNotFound, studentID))
}

func (t *pgTx) SetStudentDepartment(ctx context.Context, studentID string, departmentID int64) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE users SET department_id = $2, updated_at = now() WHERE id = $1`, studentID, departmentID)
	if err != nil {
		return err
	}
	return expectOne(res, fmt.Errorf("%w: user %s", ErrNotFound, studentID))
}

func (t *pgTx) UpsertInformation(ctx context.Context, info Information) (Information, error) {
	err := t.tx.QueryRowContext(ctx, `
INSERT INTO application_informations (application_id, skill, expectation, start_date, end_date, hours)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (application_id) DO UPDATE
SET skill = EXCLUDED.skill,
    expectation = EXCLUDED.expectation,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    hours = EXCLUDED.hours,
    updated_at = now()
RETURNING created_at, updated_at`,
		info.ApplicationID, info.Skill, info.Expectation, info.StartDate, info.EndDate, info.Hours,
	).Scan(&info.CreatedAt, &info.UpdatedAt)
	return info, err
}

func (t *pgTx) ListDocuments(ctx context.Context, applicationID int64) ([]Document, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+documentColumns+` FROM application_documents WHERE application_id = $1 ORDER BY doc_type_id`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (t *pgTx) UpsertDocument(ctx context.Context, doc Document) (Document, error) {
	row := t.tx.QueryRowContext(ctx, `
INSERT INTO application_documents (application_id, doc_type_id, storage_key, file_name, content_type, size_bytes, validation_status, note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT ON CONSTRAINT application_documents_type_key DO UPDATE
SET storage_key = EXCLUDED.storage_key,
    file_name = EXCLUDED.file_name,
    content_type = EXCLUDED.content_type,
    size_bytes = EXCLUDED.size_bytes,
    validation_status = EXCLUDED.validation_status,
    note = EXCLUDED.note,
    updated_at = now()
RETURNING `+documentColumns,
		doc.ApplicationID, int16(doc.DocType), doc.StorageKey, doc.FileName, doc.ContentType, doc.SizeBytes,
		string(doc.Validation), nullableString(doc.Note))
	return scanDocument(row)
}

func (t *pgTx) UpdateDocumentReview(ctx context.Context, applicationID int64, docType DocType, v Validation, note *string) (Document, error) {
	row := t.tx.QueryRowContext(ctx, `
UPDATE application_documents
SET validation_status = $3, note = $4, updated_at = now()
WHERE application_id = $1 AND doc_type_id = $2
RETURNING `+documentColumns, applicationID, int16(docType), string(v), nullableString(note))
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s document for application %d", ErrNotFound, docType, applicationID)
	}
	return doc, err
}

func (t *pgTx) LinkMentors(ctx context.Context, applicationID, positionID int64) (int, error) {
	res, err := t.tx.ExecContext(ctx, `
INSERT INTO application_mentors (application_id, mentor_id)
SELECT $1, mentor_id FROM position_mentors WHERE position_id = $2
ON CONFLICT DO NOTHING`, applicationID, positionID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (t *pgTx) AppendAudit(ctx context.Context, rec audit.Record) error {
	return audit.Append(ctx, t.tx, rec)
}

func (t *pgTx) AppendStaffAction(ctx context.Context, a audit.StaffAction) error {
	return audit.AppendStaffAction(ctx, t.tx, a)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
