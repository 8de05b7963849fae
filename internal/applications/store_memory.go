package applications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"internship-backend/internal/audit"
	"internship-backend/internal/users"
)

// ProfileStore is the student-profile side the in-memory store writes to on
// commit. *users.MemoryRepo satisfies it.
type ProfileStore interface {
	GetStudentProfile(ctx context.Context, userID string) (users.StudentProfile, error)
	// ApplyProfileChanges must write all changes or none.
	ApplyProfileChanges(changes []users.ProfileChange) error
}

// AuditSink receives the audit rows and staff actions of a committed
// in-memory transaction. *audit.MemoryRepo satisfies it.
type AuditSink interface {
	AppendAll(recs []audit.Record)
	AppendStaffActions(actions []audit.StaffAction)
}

type memState struct {
	apps            map[int64]Application
	infos           map[int64]Information
	docs            map[int64]map[DocType]Document
	mentors         map[int64][]string
	positions       map[int64]Position
	positionMentors map[int64][]string
	nextAppID       int64
	nextDocID       int64
}

func newMemState() *memState {
	return &memState{
		apps:            make(map[int64]Application),
		infos:           make(map[int64]Information),
		docs:            make(map[int64]map[DocType]Document),
		mentors:         make(map[int64][]string),
		positions:       make(map[int64]Position),
		positionMentors: make(map[int64][]string),
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	for k, v := range s.apps {
		out.apps[k] = v
	}
	for k, v := range s.infos {
		out.infos[k] = v
	}
	for k, m := range s.docs {
		cp := make(map[DocType]Document, len(m))
		for t, d := range m {
			cp[t] = d
		}
		out.docs[k] = cp
	}
	for k, v := range s.mentors {
		out.mentors[k] = append([]string(nil), v...)
	}
	for k, v := range s.positions {
		out.positions[k] = v
	}
	for k, v := range s.positionMentors {
		out.positionMentors[k] = append([]string(nil), v...)
	}
	out.nextAppID, out.nextDocID = s.nextAppID, s.nextDocID
	return out
}

// MemoryStore keeps applications in process. Transactions are fully
// serialized and work on a copy that replaces the live state on commit.
type MemoryStore struct {
	txMu     sync.Mutex
	mu       sync.RWMutex
	st       *memState
	profiles ProfileStore
	audits   AuditSink
	now      func() time.Time
}

func NewMemoryStore(profiles ProfileStore, audits AuditSink) *MemoryStore {
	return &MemoryStore{
		st:       newMemState(),
		profiles: profiles,
		audits:   audits,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SeedPosition registers a position and its mentor pool.
func (s *MemoryStore) SeedPosition(p Position, mentorIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.positions[p.ID] = p
	s.st.positionMentors[p.ID] = append([]string(nil), mentorIDs...)
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	tx := &memTx{store: s, st: s.st.clone(), lifecycle: map[string]Lifecycle{}, departments: map[string]int64{}}
	s.mu.RUnlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	// Profiles are the only write that can fail; nothing is published before it.
	if changes := tx.profileChanges(); len(changes) > 0 {
		if err := s.profiles.ApplyProfileChanges(changes); err != nil {
			return fmt.Errorf("apply profile changes: %w", err)
		}
	}
	s.mu.Lock()
	s.st = tx.st
	s.mu.Unlock()
	if s.audits != nil {
		s.audits.AppendAll(tx.audits)
		s.audits.AppendStaffActions(tx.staff)
	}
	return nil
}

func (s *MemoryStore) GetApplication(ctx context.Context, id int64) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.st.apps[id]
	if !ok {
		return Application{}, fmt.Errorf("%w: application %d", ErrNotFound, id)
	}
	return app, nil
}

func (s *MemoryStore) GetDetail(ctx context.Context, id int64) (Detail, error) {
	if err := ctx.Err(); err != nil {
		return Detail{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.st.apps[id]
	if !ok {
		return Detail{}, fmt.Errorf("%w: application %d", ErrNotFound, id)
	}
	d := Detail{Application: app, Documents: sortedDocs(s.st.docs[id]), Mentors: append([]string{}, s.st.mentors[id]...)}
	if info, ok := s.st.infos[id]; ok {
		d.Information = &info
	}
	sort.Strings(d.Mentors)
	return d, nil
}

func (s *MemoryStore) ListByStudent(ctx context.Context, studentID string, includeCanceled bool) ([]Application, error) {
	return s.filter(ctx, func(a Application) bool {
		return a.StudentID == studentID && (includeCanceled || a.Status != StatusCancel)
	}, 0, 0, false)
}

func (s *MemoryStore) List(ctx context.Context, f ListFilter) ([]Application, error) {
	limit, offset := normalizePage(f.Limit, f.Offset)
	return s.filter(ctx, func(a Application) bool {
		switch {
		case f.DepartmentID != nil && a.DepartmentID != *f.DepartmentID:
			return false
		case f.PositionID != nil && a.PositionID != *f.PositionID:
			return false
		case f.StudentID != "" && a.StudentID != f.StudentID:
			return false
		case f.Status != "" && a.Status != f.Status:
			return false
		case !f.IncludeCanceled && f.Status != StatusCancel && a.Status == StatusCancel:
			return false
		}
		return true
	}, limit, offset, true)
}

func (s *MemoryStore) filter(ctx context.Context, match func(Application) bool, limit, offset int, paged bool) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := []Application{}
	for _, a := range s.st.apps {
		if match(a) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()
	// newest first; ids are assigned in creation order
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if !paged {
		return out, nil
	}
	return pageOf(out, limit, offset), nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, f DocumentFilter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset := normalizePage(f.Limit, f.Offset)
	s.mu.RLock()
	out := []Document{}
	for appID, docs := range s.st.docs {
		if f.ApplicationID != nil && appID != *f.ApplicationID {
			continue
		}
		for _, d := range docs {
			if f.DocType != 0 && d.DocType != f.DocType {
				continue
			}
			if f.Validation != "" && d.Validation != f.Validation {
				continue
			}
			out = append(out, d)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return pageOf(out, limit, offset), nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, applicationID int64, docType DocType) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.st.docs[applicationID][docType]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s document for application %d", ErrNotFound, docType, applicationID)
	}
	return d, nil
}

func pageOf[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func sortedDocs(m map[DocType]Document) []Document {
	out := make([]Document, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocType < out[j].DocType })
	return out
}

// memTx buffers profile and audit writes until the store commits.
type memTx struct {
	store       *MemoryStore
	st          *memState
	lifecycle   map[string]Lifecycle
	departments map[string]int64
	audits      []audit.Record
	staff       []audit.StaffAction
}

func (t *memTx) profileChanges() []users.ProfileChange {
	byID := make(map[string]*users.ProfileChange)
	get := func(id string) *users.ProfileChange {
		c, ok := byID[id]
		if !ok {
			c = &users.ProfileChange{UserID: id}
			byID[id] = c
		}
		return c
	}
	for id, l := range t.lifecycle {
		get(id).InternshipStatus = string(l)
	}
	for id, dept := range t.departments {
		d := dept
		get(id).DepartmentID = &d
	}
	out := make([]users.ProfileChange, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (t *memTx) LockApplication(_ context.Context, id int64) (Application, error) {
	app, ok := t.st.apps[id]
	if !ok {
		return Application{}, fmt.Errorf("%w: application %d", ErrNotFound, id)
	}
	return app, nil
}

func (t *memTx) LockStudent(ctx context.Context, studentID string) (Lifecycle, error) {
	if l, ok := t.lifecycle[studentID]; ok {
		return l, nil
	}
	p, err := t.store.profiles.GetStudentProfile(ctx, studentID)
	if errors.Is(err, users.ErrNotFound) {
		return "", fmt.Errorf("%w: student profile %s", ErrNotFound, studentID)
	}
	if err != nil {
		return "", err
	}
	return Lifecycle(p.InternshipStatus), nil
}

func (t *memTx) GetPosition(_ context.Context, id int64) (Position, error) {
	p, ok := t.st.positions[id]
	if !ok {
		return Position{}, fmt.Errorf("%w: position %d", ErrNotFound, id)
	}
	return p, nil
}

func (t *memTx) NextRound(_ context.Context, studentID string) (int, error) {
	last := 0
	for _, a := range t.st.apps {
		if a.StudentID == studentID && a.Round > last {
			last = a.Round
		}
	}
	return last + 1, nil
}

func (t *memTx) InsertApplication(_ context.Context, app Application) (Application, error) {
	for _, a := range t.st.apps {
		if a.StudentID != app.StudentID {
			continue
		}
		if a.Round == app.Round {
			return Application{}, fmt.Errorf("%w: round %d already exists", ErrConflict, app.Round)
		}
		if sameActiveKey(a, app) {
			return Application{}, fmt.Errorf("%w: active application for department %d exists", ErrConflict, app.DepartmentID)
		}
	}
	now := t.store.now()
	t.st.nextAppID++
	app.ID = t.st.nextAppID
	app.CreatedAt, app.UpdatedAt = now, now
	t.st.apps[app.ID] = app
	return app, nil
}

func sameActiveKey(a, b Application) bool {
	return a.DepartmentID == b.DepartmentID && a.ActiveKey != nil && b.ActiveKey != nil && *a.ActiveKey == *b.ActiveKey
}

func (t *memTx) UpdateApplicationStatus(_ context.Context, app Application) error {
	cur, ok := t.st.apps[app.ID]
	if !ok {
		return fmt.Errorf("%w: application %d", ErrNotFound, app.ID)
	}
	for id, a := range t.st.apps {
		if id != app.ID && a.StudentID == cur.StudentID && sameActiveKey(a, app) {
			return fmt.Errorf("%w: active application for department %d exists", ErrConflict, app.DepartmentID)
		}
	}
	cur.Status = app.Status
	cur.StatusNote = app.StatusNote
	cur.IsActive = app.IsActive
	cur.ActiveKey = app.ActiveKey
	cur.UpdatedAt = t.store.now()
	t.st.apps[app.ID] = cur
	return nil
}

func (t *memTx) SetLifecycle(ctx context.Context, studentID string, l Lifecycle) error {
	if _, err := t.LockStudent(ctx, studentID); err != nil {
		return err
	}
	t.lifecycle[studentID] = l
	return nil
}

func (t *memTx) SetStudentDepartment(ctx context.Context, studentID string, departmentID int64) error {
	if _, err := t.LockStudent(ctx, studentID); err != nil {
		return err
	}
	t.departments[studentID] = departmentID
	return nil
}

func (t *memTx) UpsertInformation(_ context.Context, info Information) (Information, error) {
	now := t.store.now()
	if cur, ok := t.st.infos[info.ApplicationID]; ok {
		info.CreatedAt = cur.CreatedAt
	} else {
		info.CreatedAt = now
	}
	info.UpdatedAt = now
	t.st.infos[info.ApplicationID] = info
	return info, nil
}

func (t *memTx) ListDocuments(_ context.Context, applicationID int64) ([]Document, error) {
	return sortedDocs(t.st.docs[applicationID]), nil
}

func (t *memTx) UpsertDocument(_ context.Context, doc Document) (Document, error) {
	now := t.store.now()
	slot := t.st.docs[doc.ApplicationID]
	if slot == nil {
		slot = make(map[DocType]Document)
		t.st.docs[doc.ApplicationID] = slot
	}
	if cur, ok := slot[doc.DocType]; ok {
		doc.ID = cur.ID
		doc.CreatedAt = cur.CreatedAt
	} else {
		t.st.nextDocID++
		doc.ID = t.st.nextDocID
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	slot[doc.DocType] = doc
	return doc, nil
}

func (t *memTx) UpdateDocumentReview(_ context.Context, applicationID int64, docType DocType, v Validation, note *string) (Document, error) {
	doc, ok := t.st.docs[applicationID][docType]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s document for application %d", ErrNotFound, docType, applicationID)
	}
	doc.Validation = v
	doc.Note = note
	doc.UpdatedAt = t.store.now()
	t.st.docs[applicationID][docType] = doc
	return doc, nil
}

func (t *memTx) LinkMentors(_ context.Context, applicationID, positionID int64) (int, error) {
	have := make(map[string]bool)
	for _, id := range t.st.mentors[applicationID] {
		have[id] = true
	}
	added := 0
	for _, id := range t.st.positionMentors[positionID] {
		if have[id] {
			continue
		}
		have[id] = true
		t.st.mentors[applicationID] = append(t.st.mentors[applicationID], id)
		added++
	}
	return added, nil
}

func (t *memTx) AppendAudit(_ context.Context, rec audit.Record) error {
	rec.CreatedAt = t.store.now()
	t.audits = append(t.audits, rec)
	return nil
}

func (t *memTx) AppendStaffAction(_ context.Context, a audit.StaffAction) error {
	a.CreatedAt = t.store.now()
	t.staff = append(t.staff, a)
	return nil
}
