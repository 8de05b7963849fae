package audit

import (
	"errors"
	"net/http"
	"strconv"

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
	rg.GET("/applications/:id/audit", h.byApplication)
	rg.GET("/me/audit", h.mine)
	rg.GET("/staff-actions", h.staffActions)
}

func (h *Handler) byApplication(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid application id", nil)
		return
	}
	records, err := h.Svc.ByApplication(c.Request.Context(), actor, id, pageFromQuery(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "not allowed to view this application", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load audit trail", nil)
		}
		return
	}
	respond.OK(c, gin.H{"items": records})
}

func (h *Handler) mine(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	records, err := h.Svc.ByActor(c.Request.Context(), actor, pageFromQuery(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load audit trail", nil)
		return
	}
	respond.OK(c, gin.H{"items": records})
}

func (h *Handler) staffActions(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	actions, err := h.Svc.StaffActions(c.Request.Context(), actor, c.Query("userId"), pageFromQuery(c))
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			respond.Error(c, http.StatusForbidden, "forbidden", "staff only", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load staff actions", nil)
		return
	}
	respond.OK(c, gin.H{"items": actions})
}

func pageFromQuery(c *gin.Context) Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return Page{Limit: limit, Offset: offset}
}
