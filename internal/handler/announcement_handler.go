package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiceye/civiceye-api/internal/models"
	"github.com/civiceye/civiceye-api/internal/service"
	appErrors "github.com/civiceye/civiceye-api/pkg/errors"
	"github.com/civiceye/civiceye-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, req service.AnnouncementListRequest) (*service.AnnouncementPage, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, req service.CreateAnnouncementRequest, actorID string) (*models.Announcement, error)
	Update(ctx context.Context, id string, req service.UpdateAnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.AnnouncementStats, error)
	Export(ctx context.Context, format string) ([]byte, string, string, error)
}

// AnnouncementHandler exposes the announcement endpoints.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler builds a new handler.
func NewAnnouncementHandler(service announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

// List godoc
// @Summary List live announcements
// @Tags Announcements
// @Produce json
// @Param pincode query string false "Exact pincode filter"
// @Param category query string false "Category filter, All means no filter"
// @Param priority query string false "Priority filter, All means no filter"
// @Param search query string false "Substring match over title, description, location"
// @Param page query int false "Page number, default 1"
// @Param limit query int false "Page size, default 10"
// @Param sortBy query string false "Sort field, default createdAt"
// @Param sortOrder query string false "desc (default) or asc"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	req := service.AnnouncementListRequest{
		Pincode:   c.Query("pincode"),
		Category:  c.Query("category"),
		Priority:  c.Query("priority"),
		Search:    c.Query("search"),
		Page:      positiveIntQuery(c, "page", 1),
		Limit:     positiveIntQuery(c, "limit", 10),
		SortBy:    c.DefaultQuery("sortBy", "createdAt"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
	}
	page, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Data, &page.Pagination)
}

// Get godoc
// @Summary Fetch one announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement id"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Create godoc
// @Summary Create an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body service.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req service.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	announcement, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement id"
// @Param payload body service.UpdateAnnouncementRequest true "Partial payload"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req service.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}
	announcement, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Delete godoc
// @Summary Soft delete an announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement id"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "announcement deleted")
}

// Stats godoc
// @Summary Aggregate announcement stats
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements/stats/summary [get]
func (h *AnnouncementHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export the announcement register
// @Tags Announcements
// @Produce octet-stream
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Router /announcements/export [get]
func (h *AnnouncementHandler) Export(c *gin.Context) {
	payload, contentType, filename, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
