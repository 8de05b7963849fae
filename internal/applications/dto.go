package applications

import "time"

const dateLayout = "2006-01-02"

type ApplicationResponse struct {
	ID           int64     `json:"id"`
	StudentID    string    `json:"studentId"`
	DepartmentID int64     `json:"departmentId"`
	PositionID   int64     `json:"positionId"`
	Round        int       `json:"round"`
	Status       Status    `json:"status"`
	IsActive     bool      `json:"isActive"`
	StatusNote   *string   `json:"statusNote"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type InformationResponse struct {
	Skill       string `json:"skill"`
	Expectation string `json:"expectation"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Hours       int    `json:"hours"`
}

type DocumentResponse struct {
	ID               int64      `json:"id"`
	ApplicationID    int64      `json:"applicationId"`
	DocTypeID        int        `json:"docTypeId"`
	DocType          string     `json:"docType"`
	FileName         string     `json:"fileName"`
	ContentType      string     `json:"contentType"`
	SizeBytes        int64      `json:"sizeBytes"`
	ValidationStatus Validation `json:"validationStatus"`
	Note             *string    `json:"note"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type DetailResponse struct {
	ApplicationResponse
	Information *InformationResponse `json:"information"`
	Documents   []DocumentResponse   `json:"documents"`
	Mentors     []string             `json:"mentors"`
}

// ResultResponse is the body of every workflow operation.
type ResultResponse struct {
	ApplicationID     int64             `json:"applicationId"`
	ApplicationStatus Status            `json:"applicationStatus"`
	MentorsLinked     *int              `json:"mentorsLinked,omitempty"`
	Document          *DocumentResponse `json:"document,omitempty"`
}

func toApplicationResponse(a Application) ApplicationResponse {
	return ApplicationResponse{
		ID:           a.ID,
		StudentID:    a.StudentID,
		DepartmentID: a.DepartmentID,
		PositionID:   a.PositionID,
		Round:        a.Round,
		Status:       a.Status,
		IsActive:     a.IsActive,
		StatusNote:   a.StatusNote,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toApplicationList(apps []Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationResponse(a))
	}
	return out
}

func toDocumentResponse(d Document) DocumentResponse {
	return DocumentResponse{
		ID:               d.ID,
		ApplicationID:    d.ApplicationID,
		DocTypeID:        int(d.DocType),
		DocType:          d.DocType.String(),
		FileName:         d.FileName,
		ContentType:      d.ContentType,
		SizeBytes:        d.SizeBytes,
		ValidationStatus: d.Validation,
		Note:             d.Note,
		UpdatedAt:        d.UpdatedAt,
	}
}

func toDocumentList(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out
}

func toDetailResponse(d Detail) DetailResponse {
	out := DetailResponse{
		ApplicationResponse: toApplicationResponse(d.Application),
		Documents:           toDocumentList(d.Documents),
		Mentors:             d.Mentors,
	}
	if out.Mentors == nil {
		out.Mentors = []string{}
	}
	if d.Information != nil {
		out.Information = &InformationResponse{
			Skill:       d.Information.Skill,
			Expectation: d.Information.Expectation,
			StartDate:   d.Information.StartDate.Format(dateLayout),
			EndDate:     d.Information.EndDate.Format(dateLayout),
			Hours:       d.Information.Hours,
		}
	}
	return out
}

func toResultResponse(r Result) ResultResponse {
	out := ResultResponse{ApplicationID: r.ApplicationID, ApplicationStatus: r.Status}
	if r.Document != nil {
		doc := toDocumentResponse(*r.Document)
		out.Document = &doc
	}
	return out
}
