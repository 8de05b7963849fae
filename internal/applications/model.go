package applications

import (
	"strconv"
	"strings"
	"time"
)

// Status is the workflow state of an application.
type Status string

const (
	StatusPendingDocument     Status = "PENDING_DOCUMENT"
	StatusPendingInterview    Status = "PENDING_INTERVIEW"
	StatusPendingConfirmation Status = "PENDING_CONFIRMATION"
	StatusPendingRequest      Status = "PENDING_REQUEST"
	StatusPendingReview       Status = "PENDING_REVIEW"
	StatusComplete            Status = "COMPLETE"
	StatusCancel              Status = "CANCEL"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingDocument, StatusPendingInterview, StatusPendingConfirmation,
		StatusPendingRequest, StatusPendingReview, StatusComplete, StatusCancel:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusCancel
}

// Lifecycle mirrors the progress of a student's current application on the
// student profile. Only the engine writes it.
type Lifecycle string

const (
	LifecycleIdle      Lifecycle = "IDLE"
	LifecyclePending   Lifecycle = "PENDING"
	LifecycleInterview Lifecycle = "INTERVIEW"
	LifecycleReview    Lifecycle = "REVIEW"
	LifecycleAccept    Lifecycle = "ACCEPT"
	LifecycleActive    Lifecycle = "ACTIVE"
	LifecycleComplete  Lifecycle = "COMPLETE"
	LifecycleCancel    Lifecycle = "CANCEL"
)

// canApply reports whether a student in lifecycle l may start a new round.
func (l Lifecycle) canApply() bool {
	return l == LifecycleIdle || l == LifecycleComplete || l == LifecycleCancel
}

// lifecycleFor is the mirror value written alongside a move into s.
// Owner cancellation overrides CANCEL with IDLE.
func lifecycleFor(s Status) Lifecycle {
	switch s {
	case StatusPendingDocument:
		return LifecyclePending
	case StatusPendingInterview:
		return LifecycleInterview
	case StatusPendingConfirmation:
		return LifecycleReview
	case StatusPendingRequest, StatusPendingReview:
		return LifecycleAccept
	case StatusComplete:
		return LifecycleActive
	default:
		return LifecycleCancel
	}
}

// DocType identifies which document slot an upload fills.
type DocType int16

const (
	DocTranscript    DocType = 1
	DocResume        DocType = 2
	DocPortfolio     DocType = 3
	DocRequestLetter DocType = 4
)

var docTypeSlugs = map[DocType]string{
	DocTranscript:    "transcript",
	DocResume:        "resume",
	DocPortfolio:     "portfolio",
	DocRequestLetter: "request-letter",
}

func (d DocType) Valid() bool {
	_, ok := docTypeSlugs[d]
	return ok
}

func (d DocType) String() string {
	if s, ok := docTypeSlugs[d]; ok {
		return s
	}
	return "unknown"
}

// ParseDocType accepts a slug ("resume") or the numeric id ("2").
func ParseDocType(raw string) (DocType, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for t, slug := range docTypeSlugs {
		if slug == s {
			return t, true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	t := DocType(n)
	return t, t.Valid()
}

// Validation is the admin verdict on an uploaded document.
type Validation string

const (
	ValidationPending  Validation = "PENDING"
	ValidationVerified Validation = "VERIFIED"
	ValidationInvalid  Validation = "INVALID"
)

func (v Validation) Valid() bool {
	return v == ValidationPending || v == ValidationVerified || v == ValidationInvalid
}

const (
	RecruitmentOpen  = "OPEN"
	RecruitmentClose = "CLOSE"
)

// Position is the reference data an application is filed against.
type Position struct {
	ID                int64  `db:"id"`
	DepartmentID      int64  `db:"department_id"`
	Name              string `db:"name"`
	RecruitmentStatus string `db:"recruitment_status"`
	ResumeRequired    bool   `db:"resume_required"`
	PortfolioRequired bool   `db:"portfolio_required"`
}

// activeKey marks the one non-terminal application per student and department.
const activeKey = "ACTIVE"

// Application is one round of a student's attempt to join a department.
type Application struct {
	ID           int64     `db:"id"`
	StudentID    string    `db:"student_id"`
	DepartmentID int64     `db:"department_id"`
	PositionID   int64     `db:"position_id"`
	Round        int       `db:"round"`
	Status       Status    `db:"status"`
	IsActive     bool      `db:"is_active"`
	ActiveKey    *string   `db:"active_key"`
	StatusNote   *string   `db:"status_note"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// setStatus moves the application to s and keeps the active marker in step.
func (a *Application) setStatus(s Status) {
	a.Status = s
	if s.Terminal() {
		a.IsActive = false
		a.ActiveKey = nil
		return
	}
	key := activeKey
	a.IsActive = true
	a.ActiveKey = &key
}

// Information is the student's skill, expectation and schedule for a round.
type Information struct {
	ApplicationID int64     `db:"application_id"`
	Skill         string    `db:"skill"`
	Expectation   string    `db:"expectation"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	Hours         int       `db:"hours"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Document is the single row for one (application, doc type) slot.
type Document struct {
	ID            int64      `db:"id"`
	ApplicationID int64      `db:"application_id"`
	DocType       DocType    `db:"doc_type_id"`
	StorageKey    string     `db:"storage_key"`
	FileName      string     `db:"file_name"`
	ContentType   string     `db:"content_type"`
	SizeBytes     int64      `db:"size_bytes"`
	Validation    Validation `db:"validation_status"`
	Note          *string    `db:"note"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// Detail is an application with everything hanging off it.
type Detail struct {
	Application
	Information *Information
	Documents   []Document
	Mentors     []string
}

// Result is what every workflow operation reports back.
type Result struct {
	ApplicationID int64
	Status        Status
	// Transition is "OLD->NEW" when the operation changed the status.
	Transition    string
	MentorsLinked int
	Document      *Document
}
