package applications

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"internship-backend/internal/audit"
	"internship-backend/internal/shared/auth"
	"internship-backend/internal/shared/storage/object"
	"internship-backend/internal/shared/storage/object/local"
	"internship-backend/internal/users"
)

var (
	deptA int64 = 10
	deptB int64 = 20
)

const (
	posTranscriptOnly int64 = 1
	posResume         int64 = 2
	posClosed         int64 = 3
	posPortfolio      int64 = 4
)

type sentNotice struct {
	to    []string
	title string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, ids []string, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotice{to: append([]string(nil), ids...), title: title})
	return nil
}

func (n *fakeNotifier) titlesFor(userID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		for _, id := range s.to {
			if id == userID {
				out = append(out, s.title)
			}
		}
	}
	return out
}

type fixture struct {
	engine   *Engine
	store    *MemoryStore
	users    *users.MemoryRepo
	audits   *audit.MemoryRepo
	notifier *fakeNotifier

	student auth.Actor
	ownerA  auth.Actor
	ownerB  auth.Actor
	admin   auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	userRepo := users.NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	store := NewMemoryStore(userRepo, auditRepo)
	notifier := &fakeNotifier{}
	engine := NewEngine(store, local.New(t.TempDir()), notifier, users.NewService(userRepo))

	f := &fixture{engine: engine, store: store, users: userRepo, audits: auditRepo, notifier: notifier}

	student, err := userRepo.CreateStudent(ctx, users.User{ID: "student-1", Email: "s1@example.com"}, users.StudentProfile{})
	require.NoError(t, err)
	f.student = student.Actor()

	f.ownerA = f.staff(t, "owner-a", auth.RoleOwner, &deptA)
	f.ownerB = f.staff(t, "owner-b", auth.RoleOwner, &deptB)
	f.admin = f.staff(t, "admin-1", auth.RoleAdmin, nil)
	f.staff(t, "mentor-1", auth.RoleOwner, &deptA)
	f.staff(t, "mentor-2", auth.RoleOwner, &deptA)

	store.SeedPosition(Position{ID: posTranscriptOnly, DepartmentID: deptA, Name: "Backend intern", RecruitmentStatus: RecruitmentOpen}, "mentor-1", "mentor-2")
	store.SeedPosition(Position{ID: posResume, DepartmentID: deptA, Name: "Data intern", RecruitmentStatus: RecruitmentOpen, ResumeRequired: true})
	store.SeedPosition(Position{ID: posClosed, DepartmentID: deptA, Name: "Closed", RecruitmentStatus: RecruitmentClose})
	store.SeedPosition(Position{ID: posPortfolio, DepartmentID: deptB, Name: "Design intern", RecruitmentStatus: RecruitmentOpen, PortfolioRequired: true})
	return f
}

func (f *fixture) staff(t *testing.T, id string, role auth.Role, dept *int64) auth.Actor {
	t.Helper()
	u, err := f.users.CreateStaff(context.Background(), users.User{ID: id, Email: id + "@example.com", Role: role, DepartmentID: dept})
	require.NoError(t, err)
	return u.Actor()
}

func (f *fixture) lifecycle(t *testing.T) Lifecycle {
	t.Helper()
	p, err := f.users.GetStudentProfile(context.Background(), f.student.UserID)
	require.NoError(t, err)
	return Lifecycle(p.InternshipStatus)
}

func (f *fixture) status(t *testing.T, id int64) Status {
	t.Helper()
	app, err := f.store.GetApplication(context.Background(), id)
	require.NoError(t, err)
	return app.Status
}

func (f *fixture) create(t *testing.T, positionID int64) int64 {
	t.Helper()
	res, err := f.engine.CreateApplication(context.Background(), f.student, positionID)
	require.NoError(t, err)
	return res.ApplicationID
}

func (f *fixture) upload(t *testing.T, id int64, docType DocType) Result {
	t.Helper()
	res, err := f.engine.UploadDocument(context.Background(), f.student, id, docType, Upload{FileName: docType.String() + ".png", Data: pngBytes()})
	require.NoError(t, err)
	return res
}

// toRequestStage drives a transcript-only application to PENDING_REQUEST.
func (f *fixture) toRequestStage(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()
	id := f.create(t, posTranscriptOnly)
	f.upload(t, id, DocTranscript)
	_, err := f.engine.ApproveInterview(ctx, f.ownerA, id)
	require.NoError(t, err)
	_, err = f.engine.ConfirmAccept(ctx, f.ownerA, id)
	require.NoError(t, err)
	return id
}

func (f *fixture) auditTrail(t *testing.T, id int64) []string {
	t.Helper()
	recs, err := f.audits.ListByApplication(context.Background(), id, audit.Page{Limit: audit.MaxLimit})
	require.NoError(t, err)
	out := make([]string, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		old := "none"
		if recs[i].OldStatus != nil {
			old = *recs[i].OldStatus
		}
		out = append(out, old+"->"+recs[i].NewStatus)
	}
	return out
}

// staffActions returns the actions userID took, oldest first.
func (f *fixture) staffActions(t *testing.T, userID string) []string {
	t.Helper()
	actions, err := f.audits.ListStaffActions(context.Background(), userID, audit.Page{Limit: audit.MaxLimit})
	require.NoError(t, err)
	out := make([]string, 0, len(actions))
	for i := len(actions) - 1; i >= 0; i-- {
		out = append(out, actions[i].Action)
	}
	return out
}

func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
}

type failingObjects struct{}

func (failingObjects) Put(context.Context, string, string, io.Reader) (int64, error) {
	return 0, errors.New("bucket unavailable")
}

func (failingObjects) Get(context.Context, string) (*object.Object, error) {
	return nil, object.ErrNotFound
}
