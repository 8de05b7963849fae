package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	nextID  int64
	records []Record

	nextStaffID int64
	staff       []StaffAction
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// AppendAll stores records committed by an in-memory transaction.
func (r *MemoryRepo) AppendAll(recs []Record) {
	if len(recs) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range recs {
		r.nextID++
		rec.ID = r.nextID
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		r.records = append(r.records, rec)
	}
}

// AppendStaffActions stores staff actions committed by an in-memory transaction.
func (r *MemoryRepo) AppendStaffActions(actions []StaffAction) {
	if len(actions) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, a := range actions {
		r.nextStaffID++
		a.ID = r.nextStaffID
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		r.staff = append(r.staff, a)
	}
}

func (r *MemoryRepo) ListByApplication(ctx context.Context, applicationID int64, page Page) ([]Record, error) {
	return r.list(ctx, page, func(rec Record) bool { return rec.ApplicationID == applicationID })
}

func (r *MemoryRepo) ListByActor(ctx context.Context, actorID string, page Page) ([]Record, error) {
	return r.list(ctx, page, func(rec Record) bool { return rec.ActorID == actorID })
}

func (r *MemoryRepo) list(ctx context.Context, page Page, match func(Record) bool) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page = page.normalize()
	r.mu.RLock()
	out := []Record{}
	for _, rec := range r.records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if page.Offset >= len(out) {
		return []Record{}, nil
	}
	out = out[page.Offset:]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) ListStaffActions(ctx context.Context, userID string, page Page) ([]StaffAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page = page.normalize()
	r.mu.RLock()
	out := []StaffAction{}
	for _, a := range r.staff {
		if userID == "" || a.UserID == userID {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if page.Offset >= len(out) {
		return []StaffAction{}, nil
	}
	out = out[page.Offset:]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}
