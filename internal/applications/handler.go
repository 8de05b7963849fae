package applications

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"internship-backend/internal/shared/auth"
	"internship-backend/internal/shared/server/middleware"
	"internship-backend/internal/shared/server/respond"
)

const defaultMaxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the engine.
type Handler struct {
	Engine        *Engine
	MaxUploadSize int64
}

func NewHandler(engine *Engine, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &Handler{Engine: engine, MaxUploadSize: maxUploadSize}
}

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", h.create)
	rg.GET("/applications", h.listForStaff)
	rg.GET("/applications/:id", h.get)
	rg.PUT("/applications/:id/information", h.submitInformation)
	rg.POST("/applications/:id/documents/:docType", h.upload)
	rg.PUT("/applications/:id/documents/:docType/review", h.review)
	rg.GET("/applications/:id/documents/:docType/file", h.download)
	rg.PUT("/applications/:id/interview/approve", h.approveInterview)
	rg.PUT("/applications/:id/interview/reject", h.cancelByOwner)
	rg.PUT("/applications/:id/confirm/accept", h.confirmAccept)
	rg.PUT("/applications/:id/cancel", h.cancelByStudent)
	rg.GET("/me/applications", h.listMine)
	rg.GET("/documents", h.listDocuments)
}

// writeError maps engine errors onto the shared error envelope.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, ErrInvalidState):
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}

func requireActor(c *gin.Context) (auth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
	}
	return actor, ok
}

func applicationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid application id", nil)
		return 0, false
	}
	c.Set(middleware.ApplicationIDKey, id)
	return id, true
}

func docTypeParam(c *gin.Context) (DocType, bool) {
	t, ok := ParseDocType(c.Param("docType"))
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown document type", nil)
	}
	return t, ok
}

func (h *Handler) writeResult(c *gin.Context, status int, res Result, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.ApplicationIDKey, res.ApplicationID)
	if res.Transition != "" {
		c.Set(middleware.StatusTransitionKey, res.Transition)
	}
	respond.JSON(c, status, toResultResponse(res))
}

type createRequest struct {
	PositionID int64 `json:"positionId"`
}

func (h *Handler) create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PositionID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "positionId is required", nil)
		return
	}
	res, err := h.Engine.CreateApplication(c.Request.Context(), actor, req.PositionID)
	h.writeResult(c, http.StatusCreated, res, err)
}

type informationRequest struct {
	Skill       string `json:"skill"`
	Expectation string `json:"expectation"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Hours       int    `json:"hours"`
}

func (h *Handler) submitInformation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	var req informationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	start, err1 := time.Parse(dateLayout, strings.TrimSpace(req.StartDate))
	end, err2 := time.Parse(dateLayout, strings.TrimSpace(req.EndDate))
	if err1 != nil || err2 != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "dates must be YYYY-MM-DD", nil)
		return
	}
	res, err := h.Engine.SubmitInformation(c.Request.Context(), actor, id, InformationInput{
		Skill:       req.Skill,
		Expectation: req.Expectation,
		StartDate:   start,
		EndDate:     end,
		Hours:       req.Hours,
	})
	h.writeResult(c, http.StatusOK, res, err)
}

func (h *Handler) upload(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	docType, ok := docTypeParam(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	upload := Upload{FileName: fileHeader.Filename, Data: data}
	var res Result
	if docType == DocRequestLetter {
		res, err = h.Engine.UploadRequestLetter(c.Request.Context(), actor, id, upload)
	} else {
		res, err = h.Engine.UploadDocument(c.Request.Context(), actor, id, docType, upload)
	}
	h.writeResult(c, http.StatusOK, res, err)
}

type reviewRequest struct {
	ValidationStatus string `json:"validationStatus"`
	Note             string `json:"note"`
}

func (h *Handler) review(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	docType, ok := docTypeParam(c)
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	verdict := Validation(strings.ToUpper(strings.TrimSpace(req.ValidationStatus)))
	res, err := h.Engine.ReviewDocument(c.Request.Context(), actor, id, docType, verdict, req.Note)
	h.writeResult(c, http.StatusOK, res, err)
}

func (h *Handler) download(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	docType, ok := docTypeParam(c)
	if !ok {
		return
	}
	doc, obj, err := h.Engine.OpenDocument(c.Request.Context(), actor, id, docType)
	if err != nil {
		writeError(c, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = doc.ContentType
	}
	headers := map[string]string{}
	if doc.FileName != "" {
		headers["Content-Disposition"] = `inline; filename="` + strings.ReplaceAll(doc.FileName, `"`, "") + `"`
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, headers)
}

func (h *Handler) approveInterview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	res, err := h.Engine.ApproveInterview(c.Request.Context(), actor, id)
	h.writeResult(c, http.StatusOK, res, err)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelByOwner(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	res, err := h.Engine.CancelByOwner(c.Request.Context(), actor, id, req.Reason)
	h.writeResult(c, http.StatusOK, res, err)
}

func (h *Handler) confirmAccept(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	res, err := h.Engine.ConfirmAccept(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, res.Transition)
	body := toResultResponse(res)
	n := res.MentorsLinked
	body.MentorsLinked = &n
	respond.OK(c, body)
}

func (h *Handler) cancelByStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	res, err := h.Engine.CancelByStudent(c.Request.Context(), actor, id)
	h.writeResult(c, http.StatusOK, res, err)
}

func (h *Handler) get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := applicationID(c)
	if !ok {
		return
	}
	d, err := h.Engine.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toDetailResponse(d))
}

func (h *Handler) listMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	includeCanceled := c.DefaultQuery("includeCanceled", "true") != "false"
	apps, err := h.Engine.ListMine(c.Request.Context(), actor, includeCanceled)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": toApplicationList(apps)})
}

func (h *Handler) listForStaff(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	filter := ListFilter{
		StudentID:       strings.TrimSpace(c.Query("studentId")),
		Status:          Status(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		IncludeCanceled: c.Query("includeCanceled") == "true",
	}
	if v, err := strconv.ParseInt(c.Query("positionId"), 10, 64); err == nil {
		filter.PositionID = &v
	}
	filter.Limit, filter.Offset = pageParams(c)

	apps, err := h.Engine.ListForStaff(c.Request.Context(), actor, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": toApplicationList(apps), "limit": filter.Limit, "offset": filter.Offset})
}

func (h *Handler) listDocuments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	filter := DocumentFilter{
		Validation: Validation(strings.ToUpper(strings.TrimSpace(c.Query("validationStatus")))),
	}
	if raw := c.Query("docType"); raw != "" {
		t, ok := ParseDocType(raw)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown document type", nil)
			return
		}
		filter.DocType = t
	}
	if v, err := strconv.ParseInt(c.Query("applicationId"), 10, 64); err == nil {
		filter.ApplicationID = &v
	}
	filter.Limit, filter.Offset = pageParams(c)

	docs, err := h.Engine.ListDocuments(c.Request.Context(), actor, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": toDocumentList(docs)})
}

func pageParams(c *gin.Context) (int, int) {
	limit, offset := DefaultListLimit, 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil {
		offset = v
	}
	return normalizePage(limit, offset)
}
