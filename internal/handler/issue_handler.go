package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiceye/civiceye-api/internal/models"
	"github.com/civiceye/civiceye-api/internal/service"
	appErrors "github.com/civiceye/civiceye-api/pkg/errors"
	"github.com/civiceye/civiceye-api/pkg/response"
)

type issueService interface {
	Hype(ctx context.Context, issueID, citizenID string) (*models.HypeResult, error)
	Create(ctx context.Context, req service.CreateIssueRequest, reporterID string) (*models.Issue, error)
	List(ctx context.Context, req service.IssueListRequest) (*service.IssuePage, error)
	Get(ctx context.Context, id string) (*models.Issue, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Issue, error)
}

// IssueHandler exposes the issue endpoints.
type IssueHandler struct {
	service issueService
}

// NewIssueHandler builds a new handler.
func NewIssueHandler(service issueService) *IssueHandler {
	return &IssueHandler{service: service}
}

// Hype godoc
// @Summary Hype an issue (idempotent per citizen)
// @Tags Issues
// @Produce json
// @Param id path string true "Issue id"
// @Success 200 {object} models.HypeResult
// @Router /issues/{id}/hype [post]
func (h *IssueHandler) Hype(c *gin.Context) {
	claims := claimsFromContext(c)
	citizenID := ""
	if claims != nil {
		citizenID = claims.UserID
	}
	result, err := h.service.Hype(c.Request.Context(), c.Param("id"), citizenID)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Bare payload: the hype contract predates the response envelope and
	// existing clients parse it as-is.
	c.JSON(http.StatusOK, result)
}

// Create godoc
// @Summary Report a civic issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param payload body service.CreateIssueRequest true "Issue payload"
// @Success 201 {object} response.Envelope
// @Router /issues [post]
func (h *IssueHandler) Create(c *gin.Context) {
	var req service.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid issue payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	issue, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issue)
}

// List godoc
// @Summary List issues
// @Tags Issues
// @Produce json
// @Param status query string false "Status filter, All means no filter"
// @Param category query string false "Category filter, All means no filter"
// @Param pincode query string false "Exact pincode filter"
// @Param page query int false "Page number, default 1"
// @Param limit query int false "Page size, default 10"
// @Success 200 {object} response.Envelope
// @Router /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	req := service.IssueListRequest{
		Status:     c.Query("status"),
		Category:   c.Query("category"),
		Pincode:    c.Query("pincode"),
		ReportedBy: c.Query("reportedBy"),
		Page:       positiveIntQuery(c, "page", 1),
		Limit:      positiveIntQuery(c, "limit", 10),
		SortBy:     c.DefaultQuery("sortBy", "createdAt"),
		SortOrder:  c.DefaultQuery("sortOrder", "desc"),
	}
	page, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Data, &page.Pagination)
}

// Get godoc
// @Summary Fetch one issue
// @Tags Issues
// @Produce json
// @Param id path string true "Issue id"
// @Success 200 {object} response.Envelope
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	issue, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

type updateIssueStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus godoc
// @Summary Update issue triage status
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue id"
// @Param payload body updateIssueStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/status [patch]
func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	var req updateIssueStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	issue, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}
