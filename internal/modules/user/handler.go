package user

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

func (h *Handler) RegisterRoutes(public *gin.RouterGroup) {
	g := public.Group("/users/:id")
	g.GET("/info", h.Info)
	g.GET("/reviews", h.Reviews)
	g.GET("/reviews/likes", h.LikedReviews)
	g.GET("/exhibitions/likes", h.LikedExhibitions)
}

// Info godoc
// @Summary Profile header with activity counters
// @Tags Users
// @Param id path int true "user id"
// @Success 200 {object} api.UserInfo
// @Failure 404 {object} map[string]interface{}
// @Router /users/{id}/info [get]
func (h *Handler) Info(c *gin.Context) {
	id, ok := userParam(c)
	if !ok {
		return
	}
	out, err := h.svc.Info(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "user info", out)
}

// Reviews godoc
// @Summary Reviews written by the user
// @Tags Users
// @Param id path int true "user id"
// @Param page query int false "zero-indexed page"
// @Param size query int false "page size"
// @Success 200 {object} api.Page[api.Review]
// @Router /users/{id}/reviews [get]
func (h *Handler) Reviews(c *gin.Context) {
	id, page, size, ok := pagedParams(c)
	if !ok {
		return
	}
	out, err := h.svc.Reviews(c.Request.Context(), middleware.UserID(c), id, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "user reviews", out)
}

// LikedReviews godoc
// @Summary Reviews the user liked
// @Tags Users
// @Param id path int true "user id"
// @Success 200 {object} api.Page[api.Review]
// @Router /users/{id}/reviews/likes [get]
func (h *Handler) LikedReviews(c *gin.Context) {
	id, page, size, ok := pagedParams(c)
	if !ok {
		return
	}
	out, err := h.svc.LikedReviews(c.Request.Context(), middleware.UserID(c), id, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "liked reviews", out)
}

// LikedExhibitions godoc
// @Summary Exhibitions the user liked
// @Tags Users
// @Param id path int true "user id"
// @Success 200 {object} api.Page[api.Exhibition]
// @Router /users/{id}/exhibitions/likes [get]
func (h *Handler) LikedExhibitions(c *gin.Context) {
	id, page, size, ok := pagedParams(c)
	if !ok {
		return
	}
	out, err := h.svc.LikedExhibitions(c.Request.Context(), middleware.UserID(c), id, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "liked exhibitions", out)
}

func userParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid user id")
		return 0, false
	}
	return id, true
}

func pagedParams(c *gin.Context) (int64, int, int, bool) {
	id, ok := userParam(c)
	if !ok {
		return 0, 0, 0, false
	}
	page, err1 := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, err2 := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid paging")
		return 0, 0, 0, false
	}
	return id, page, size, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid input")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
	}
}
