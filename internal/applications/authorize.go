package applications

import (
	"fmt"

	"internship-backend/internal/shared/auth"
)

func authorizeStudent(actor auth.Actor, app Application) error {
	if !actor.IsStudent() || actor.UserID != app.StudentID {
		return fmt.Errorf("%w: not the applicant", ErrForbidden)
	}
	return nil
}

func authorizeOwner(actor auth.Actor, app Application) error {
	if !actor.IsOwner() || !actor.InDepartment(app.DepartmentID) {
		return fmt.Errorf("%w: not an owner of department %d", ErrForbidden, app.DepartmentID)
	}
	return nil
}

func authorizeAdmin(actor auth.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin only", ErrForbidden)
	}
	return nil
}

// authorizeView is the read rule: the applicant, any admin, or an owner of
// the application's department.
func authorizeView(actor auth.Actor, app Application) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsStudent() && actor.UserID == app.StudentID:
		return nil
	case actor.IsOwner() && actor.InDepartment(app.DepartmentID):
		return nil
	}
	return ErrForbidden
}
