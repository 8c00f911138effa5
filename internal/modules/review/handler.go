package review

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"artzip/internal/api"
	"artzip/internal/middleware"
	"artzip/internal/pkg/response"
	"artzip/internal/storage"
)

// maxMultipartMemory bounds the in-memory part of a review submission.
const maxMultipartMemory = 32 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if public != nil {
		public.GET("/reviews", h.List)
		public.GET("/reviews/:id", h.Get)
	}

	if protected != nil {
		protected.POST("/reviews", h.Create)
		protected.PUT("/reviews/:id", h.Update)
		protected.DELETE("/reviews/:id", h.Delete)
		protected.PATCH("/reviews/:id/like", h.ToggleLike)
	}
}

// Create godoc
// @Summary Write a review
// @Description Multipart body: "data" holds the JSON payload, "files" the photos.
// @Tags Reviews
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} api.ReviewID
// @Failure 400,401,404 {object} map[string]interface{}
// @Router /reviews [post]
func (h *Handler) Create(c *gin.Context) {
	req, files, ok := bindSubmission(c)
	if !ok {
		return
	}

	id, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req, files)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "review created", api.ReviewID{ReviewID: id})
}

// Update godoc
// @Summary Edit a review
// @Description Same body as create; "deletedPhotos" in the payload lists photo ids to drop.
// @Tags Reviews
// @Security BearerAuth
// @Accept multipart/form-data
// @Param id path int true "review id"
// @Success 200 {object} api.ReviewID
// @Failure 400,401,403,404 {object} map[string]interface{}
// @Router /reviews/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, files, ok := bindSubmission(c)
	if !ok {
		return
	}

	if err := h.svc.Update(c.Request.Context(), middleware.UserID(c), id, req, files); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "review updated", api.ReviewID{ReviewID: id})
}

// Get godoc
// @Summary Review detail
// @Tags Reviews
// @Param id path int true "review id"
// @Success 200 {object} api.Review
// @Failure 404 {object} map[string]interface{}
// @Router /reviews/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rv, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "review detail", rv)
}

// List godoc
// @Summary Community review feed
// @Tags Reviews
// @Param exhibitionId query int false "only reviews of this exhibition"
// @Param page query int false "zero-indexed page"
// @Param size query int false "page size"
// @Param sort query string false "createdAt,desc | likeCount,desc"
// @Success 200 {object} api.Page[api.Review]
// @Router /reviews [get]
func (h *Handler) List(c *gin.Context) {
	q := ListQuery{Sort: c.Query("sort")}
	var err error
	if q.ExhibitionID, err = queryInt64(c, "exhibitionId"); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid exhibitionId")
		return
	}
	page, err1 := queryInt64(c, "page")
	size, err2 := queryInt64(c, "size")
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid paging")
		return
	}
	q.Page, q.Size = int(page), int(size)

	out, err := h.svc.List(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "review list", out)
}

// Delete godoc
// @Summary Delete a review
// @Tags Reviews
// @Security BearerAuth
// @Param id path int true "review id"
// @Success 200 {object} api.ReviewID
// @Failure 401,403,404 {object} map[string]interface{}
// @Router /reviews/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "review deleted", api.ReviewID{ReviewID: id})
}

// ToggleLike godoc
// @Summary Like or unlike a review
// @Tags Reviews
// @Security BearerAuth
// @Param id path int true "review id"
// @Success 200 {object} api.ReviewLikeState
// @Router /reviews/{id}/like [patch]
func (h *Handler) ToggleLike(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	state, err := h.svc.ToggleLike(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "review like toggled", state)
}

// bindSubmission reads the "data" JSON part and the "files" parts. The JSON
// part may arrive as a plain form value or as a file part (browsers send a
// Blob named "blob").
func bindSubmission(c *gin.Context) (api.ReviewPayload, []*multipart.FileHeader, bool) {
	var req api.ReviewPayload

	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Expected multipart/form-data body")
		return req, nil, false
	}
	form := c.Request.MultipartForm

	raw, err := dataPart(form)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing data part")
		return req, nil, false
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid data part")
		return req, nil, false
	}

	return req, form.File[api.FormFieldFiles], true
}

func dataPart(form *multipart.Form) ([]byte, error) {
	if vs := form.Value[api.FormFieldData]; len(vs) > 0 {
		return []byte(vs[0]), nil
	}
	fhs := form.File[api.FormFieldData]
	if len(fhs) == 0 {
		return nil, errors.New("data part missing")
	}
	f, err := fhs[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid id")
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, key string) (int64, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid review", verr.Fields)
	case errors.Is(err, ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid input")
	case errors.Is(err, ErrTooManyPhotos):
		response.Error(c, http.StatusBadRequest, "TOO_MANY_PHOTOS", "A review holds at most 9 photos")
	case errors.Is(err, storage.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Photo exceeds 10MB")
	case errors.Is(err, storage.ErrInvalidMimeType), errors.Is(err, storage.ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "INVALID_PHOTO", "Unsupported photo")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not the author of this review")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Review not found")
	case errors.Is(err, ErrExhibitionNotFound):
		response.Error(c, http.StatusNotFound, "EXHIBITION_NOT_FOUND", "Exhibition not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
	}
}
