package exhibition

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"artzip/internal/middleware"
	"artzip/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if public != nil {
		public.GET("/exhibitions", h.Search)
		public.GET("/exhibitions/:id", h.Get)
	}
	if protected != nil {
		protected.PATCH("/exhibitions/:id/like", h.ToggleLike)
	}
}

// Search godoc
// @Summary Search exhibitions by name
// @Tags Exhibitions
// @Param query query string false "name filter"
// @Param page query int false "zero-indexed page"
// @Param size query int false "page size"
// @Success 200 {object} api.Page[api.Exhibition]
// @Router /exhibitions [get]
func (h *Handler) Search(c *gin.Context) {
	page, err1 := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, err2 := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid paging")
		return
	}

	out, err := h.svc.Search(c.Request.Context(), middleware.UserID(c), c.Query("query"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "exhibition list", out)
}

// Get godoc
// @Summary Exhibition detail
// @Tags Exhibitions
// @Param id path int true "exhibition id"
// @Success 200 {object} api.Exhibition
// @Failure 404 {object} map[string]interface{}
// @Router /exhibitions/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid id")
		return
	}

	out, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "exhibition detail", out)
}

// ToggleLike godoc
// @Summary Like or unlike an exhibition
// @Tags Exhibitions
// @Security BearerAuth
// @Param id path int true "exhibition id"
// @Success 200 {object} api.ExhibitionLikeState
// @Router /exhibitions/{id}/like [patch]
func (h *Handler) ToggleLike(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid id")
		return
	}

	out, err := h.svc.ToggleLike(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "exhibition like toggled", out)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid input")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Exhibition not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
	}
}
