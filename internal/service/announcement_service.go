package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/civiceye/civiceye-api/internal/models"
	appErrors "github.com/civiceye/civiceye-api/pkg/errors"
	"github.com/civiceye/civiceye-api/pkg/export"
)

// filterAll is the sentinel clients send to mean "no filter". It must never
// reach the repository as a literal match value.
const filterAll = "All"

// maxPageSize caps the list page size. The repositories enforce the same cap,
// so the pagination envelope always describes the limit actually queried.
const maxPageSize = 100

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	SoftDelete(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (*models.AnnouncementStats, error)
	All(ctx context.Context) ([]models.Announcement, error)
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AnnouncementService{repo: repo, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})
	svc.validator.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.ValidCategory(fl.Field().String())
	})
	svc.validator.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return models.ValidPriority(fl.Field().String())
	})
	return svc
}

// AnnouncementListRequest describes filters for the public feed.
type AnnouncementListRequest struct {
	Pincode   string
	Category  string
	Priority  string
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// AnnouncementPage is the list result shape, also used as the cache payload.
type AnnouncementPage struct {
	Data       []models.Announcement `json:"data"`
	Pagination models.Pagination     `json:"pagination"`
}

// CreateAnnouncementRequest describes the create payload.
type CreateAnnouncementRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description" validate:"required,max=2000"`
	Location      string     `json:"location" validate:"required,max=100"`
	Pincode       string     `json:"pincode" validate:"required,pincode"`
	Category      string     `json:"category" validate:"omitempty,category"`
	Priority      string     `json:"priority" validate:"omitempty,priority"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	ExpiryDate    *time.Time `json:"expiryDate"`
}

// UpdateAnnouncementRequest describes the partial update payload. Empty text
// fields mean "leave unchanged"; the date fields distinguish an absent key
// from an explicit null so they can be cleared.
type UpdateAnnouncementRequest struct {
	Title         string              `json:"title" validate:"omitempty,max=200"`
	Description   string              `json:"description" validate:"omitempty,max=2000"`
	Location      string              `json:"location" validate:"omitempty,max=100"`
	Pincode       string              `json:"pincode" validate:"omitempty,pincode"`
	Category      string              `json:"category" validate:"omitempty,category"`
	Priority      string              `json:"priority" validate:"omitempty,priority"`
	ScheduledDate models.NullableTime `json:"scheduledDate"`
	ExpiryDate    models.NullableTime `json:"expiryDate"`
	IsActive      *bool               `json:"isActive"`
}

// List returns the live announcement feed with pagination metadata.
func (s *AnnouncementService) List(ctx context.Context, req AnnouncementListRequest) (*AnnouncementPage, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 10
	}
	if req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}
	if req.SortBy == "" {
		req.SortBy = "createdAt"
	}
	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}
	if req.Category == filterAll {
		req.Category = ""
	}
	if req.Priority == filterAll {
		req.Priority = ""
	}

	cacheKey := s.listCacheKey(req)
	if s.cache.Enabled() {
		var cached AnnouncementPage
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	filter := models.AnnouncementFilter{
		Pincode:   req.Pincode,
		Category:  req.Category,
		Priority:  req.Priority,
		Search:    req.Search,
		Now:       time.Now().UTC(),
		Page:      req.Page,
		Limit:     req.Limit,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("announcement list failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while fetching announcements")
	}
	if rows == nil {
		rows = []models.Announcement{}
	}

	page := &AnnouncementPage{
		Data:       rows,
		Pagination: models.NewPagination(req.Page, req.Limit, total),
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, page, feedCacheTTL(rows, filter.Now)); err != nil {
			s.logger.Warn("announcement cache store failed", zap.Error(err))
		}
	}
	return page, nil
}

// Get returns a single announcement by id. Expired or soft-deleted rows are
// still reachable here: only the feed applies the liveness window.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		s.logger.Error("announcement fetch failed", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while fetching announcement")
	}
	return announcement, nil
}

// Create registers a new announcement authored by the acting admin.
func (s *AnnouncementService) Create(ctx context.Context, req CreateAnnouncementRequest, actorID string) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	category := models.AnnouncementCategory(req.Category)
	if req.Category == "" {
		category = models.CategoryGeneral
	}
	priority := models.AnnouncementPriority(req.Priority)
	if req.Priority == "" {
		priority = models.PriorityMedium
	}
	announcement := &models.Announcement{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		Pincode:       req.Pincode,
		Category:      category,
		Priority:      priority,
		ScheduledDate: req.ScheduledDate,
		ExpiryDate:    req.ExpiryDate,
		IsActive:      true,
		CreatedByID:   actorID,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		s.logger.Error("announcement create failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while creating announcement")
	}
	s.invalidateFeed(ctx)
	return announcement, nil
}

// Update applies a partial update. Text fields with falsy values are
// ignored; clearing a title to empty is intentionally impossible because
// existing clients rely on that behaviour.
func (s *AnnouncementService) Update(ctx context.Context, id string, req UpdateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		s.logger.Error("announcement load failed", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while updating announcement")
	}

	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.Description != "" {
		existing.Description = req.Description
	}
	if req.Location != "" {
		existing.Location = req.Location
	}
	if req.Pincode != "" {
		existing.Pincode = req.Pincode
	}
	if req.Category != "" {
		existing.Category = models.AnnouncementCategory(req.Category)
	}
	if req.Priority != "" {
		existing.Priority = models.AnnouncementPriority(req.Priority)
	}
	if req.ScheduledDate.Set {
		existing.ScheduledDate = req.ScheduledDate.Value
	}
	if req.ExpiryDate.Set {
		existing.ExpiryDate = req.ExpiryDate.Value
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		s.logger.Error("announcement update failed", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while updating announcement")
	}
	s.invalidateFeed(ctx)
	return existing, nil
}

// Delete soft-deletes an announcement. Deleting one that is already
// inactive succeeds silently.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	found, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		s.logger.Error("announcement delete failed", zap.String("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while deleting announcement")
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	s.invalidateFeed(ctx)
	return nil
}

// Stats aggregates counts over every announcement, active or not.
func (s *AnnouncementService) Stats(ctx context.Context) (*models.AnnouncementStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("announcement stats failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while fetching announcement stats")
	}
	if stats.ByCategory == nil {
		stats.ByCategory = []models.CategoryTally{}
	}
	if stats.ByPriority == nil {
		stats.ByPriority = []models.PriorityTally{}
	}
	return stats, nil
}

// Export renders the full announcement register, inactive rows included,
// as CSV or PDF for offline admin use.
func (s *AnnouncementService) Export(ctx context.Context, format string) ([]byte, string, string, error) {
	rows, err := s.repo.All(ctx)
	if err != nil {
		s.logger.Error("announcement export failed", zap.Error(err))
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while exporting announcements")
	}

	dataset := export.Dataset{
		Headers: []string{"Title", "Category", "Priority", "Pincode", "Location", "Active", "Expires"},
	}
	for _, a := range rows {
		expires := ""
		if a.ExpiryDate != nil {
			expires = a.ExpiryDate.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Title":    a.Title,
			"Category": string(a.Category),
			"Priority": string(a.Priority),
			"Pincode":  a.Pincode,
			"Location": a.Location,
			"Active":   strconv.FormatBool(a.IsActive),
			"Expires":  expires,
		})
	}

	switch format {
	case "pdf":
		payload, err := export.NewPDFExporter().Render(dataset, "Announcements")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while exporting announcements")
		}
		return payload, "application/pdf", "announcements.pdf", nil
	case "", "csv":
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while exporting announcements")
		}
		return payload, "text/csv", "announcements.csv", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// feedCacheTTL bounds a cached page's lifetime by the soonest expiry among
// its rows, so an expired announcement cannot keep serving from cache. Zero
// means no row expires and the default TTL applies.
func feedCacheTTL(rows []models.Announcement, now time.Time) time.Duration {
	var ttl time.Duration
	for _, a := range rows {
		if a.ExpiryDate == nil {
			continue
		}
		until := a.ExpiryDate.Sub(now)
		if until > 0 && (ttl == 0 || until < ttl) {
			ttl = until
		}
	}
	return ttl
}

func (s *AnnouncementService) listCacheKey(req AnnouncementListRequest) string {
	return fmt.Sprintf("announcements:list:%s:%s:%s:%s:%d:%d:%s:%s",
		req.Pincode, req.Category, req.Priority, req.Search, req.Page, req.Limit, req.SortBy, req.SortOrder)
}

func (s *AnnouncementService) invalidateFeed(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "announcements:list:*"); err != nil {
		s.logger.Warn("announcement cache invalidation failed", zap.Error(err))
	}
}

// validationMessage surfaces the first failing field so the caller knows
// what to fix without leaking validator internals.
func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		field := errs[0]
		switch field.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", field.Field())
		case "pincode":
			return "pincode must be 6 digits and cannot start with 0"
		case "category":
			return "unknown category"
		case "priority":
			return "unknown priority"
		case "max":
			return fmt.Sprintf("%s is too long", field.Field())
		}
		return fmt.Sprintf("%s is invalid", field.Field())
	}
	return "invalid payload"
}
