package users

import (
	"time"

	"internship-backend/internal/shared/auth"
)

type User struct {
	ID           string    `json:"id"`
	Role         auth.Role `json:"roleId"`
	DepartmentID *int64    `json:"departmentId,omitempty"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Actor returns the identity used for authorization decisions.
func (u User) Actor() auth.Actor {
	return auth.Actor{UserID: u.ID, Role: u.Role, DepartmentID: u.DepartmentID}
}

// StudentProfile extends a student user. InternshipStatus mirrors the
// student's current application and is written only by the workflow engine.
type StudentProfile struct {
	UserID           string    `json:"userId"`
	InstitutionID    *int64    `json:"institutionId,omitempty"`
	InternshipStatus string    `json:"internshipStatus"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// InitialInternshipStatus is the lifecycle status of a newly registered student.
const InitialInternshipStatus = "IDLE"
