package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"internship-backend/internal/shared/server/middleware"
	"internship-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	me, err := h.Svc.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	body := gin.H{
		"id":           me.User.ID,
		"email":        me.User.Email,
		"firstName":    me.User.FirstName,
		"lastName":     me.User.LastName,
		"roleId":       int(me.User.Role),
		"role":         me.User.Role.String(),
		"departmentId": me.User.DepartmentID,
	}
	if me.Profile != nil {
		body["internshipStatus"] = me.Profile.InternshipStatus
		body["institutionId"] = me.Profile.InstitutionID
	}
	respond.JSON(c, http.StatusOK, body)
}
