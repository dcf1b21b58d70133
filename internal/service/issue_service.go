package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/civiceye/civiceye-api/internal/models"
	appErrors "github.com/civiceye/civiceye-api/pkg/errors"
)

type issueRepository interface {
	AddHype(ctx context.Context, issueID, citizenID string) (int, error)
	GetByID(ctx context.Context, id string) (*models.Issue, error)
	Create(ctx context.Context, issue *models.Issue) error
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
	UpdateStatus(ctx context.Context, id string, status models.IssueStatus) (bool, error)
	EnsureHypeFields(ctx context.Context) error
}

// IssueService handles issue reporting, triage and the hype counter.
type IssueService struct {
	repo      issueRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIssueService constructs the service.
func NewIssueService(repo issueRepository, validate *validator.Validate, logger *zap.Logger) *IssueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &IssueService{repo: repo, validator: validate, logger: logger}
	svc.validator.RegisterValidation("issuecategory", func(fl validator.FieldLevel) bool {
		return models.ValidIssueCategory(fl.Field().String())
	})
	svc.validator.RegisterValidation("issuestatus", func(fl validator.FieldLevel) bool {
		return models.ValidIssueStatus(fl.Field().String())
	})
	// pincode may already be registered by the announcement service when
	// both share one validator instance; registering twice is harmless.
	svc.validator.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})
	return svc
}

// CreateIssueRequest describes the citizen report payload.
type CreateIssueRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Category    string `json:"category" validate:"required,issuecategory"`
	Location    string `json:"location" validate:"required,max=100"`
	Pincode     string `json:"pincode" validate:"required,pincode"`
}

// IssueListRequest describes filters for listing issues.
type IssueListRequest struct {
	Status     string
	Category   string
	Pincode    string
	ReportedBy string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// IssuePage is the paginated list result.
type IssuePage struct {
	Data       []models.Issue    `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

// Hype records at most one hype per (issue, citizen) pair. The repository
// runs the membership check and the increment as a single conditional
// update, so duplicate requests (sequential or racing) land on the
// idempotent "Already hyped" path instead of double counting.
func (s *IssueService) Hype(ctx context.Context, issueID, citizenID string) (*models.HypeResult, error) {
	if citizenID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required to hype an issue")
	}

	points, err := s.repo.AddHype(ctx, issueID, citizenID)
	if err == nil {
		return &models.HypeResult{Message: "Hype added", HypePoints: points, UserHasHyped: true}, nil
	}
	if err != sql.ErrNoRows {
		s.logger.Error("hype update failed", zap.String("issue_id", issueID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while hyping issue")
	}

	// No row matched: either the issue is gone or this citizen already
	// hyped it. Re-read to tell the two apart.
	issue, err := s.repo.GetByID(ctx, issueID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		s.logger.Error("hype re-read failed", zap.String("issue_id", issueID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while hyping issue")
	}
	return &models.HypeResult{Message: "Already hyped", HypePoints: issue.HypePoints, UserHasHyped: true}, nil
}

// Create registers a new civic issue reported by the acting citizen.
func (s *IssueService) Create(ctx context.Context, req CreateIssueRequest, reporterID string) (*models.Issue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	issue := &models.Issue{
		Title:       req.Title,
		Description: req.Description,
		Category:    models.IssueCategory(req.Category),
		Location:    req.Location,
		Pincode:     req.Pincode,
		Status:      models.IssueStatusPending,
		ReportedBy:  reporterID,
	}
	if err := s.repo.Create(ctx, issue); err != nil {
		s.logger.Error("issue create failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while creating issue")
	}
	return issue, nil
}

// List returns issues with pagination.
func (s *IssueService) List(ctx context.Context, req IssueListRequest) (*IssuePage, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 10
	}
	if req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}
	if req.Status == filterAll {
		req.Status = ""
	}
	if req.Category == filterAll {
		req.Category = ""
	}
	filter := models.IssueFilter{
		Status:     req.Status,
		Category:   req.Category,
		Pincode:    req.Pincode,
		ReportedBy: req.ReportedBy,
		Page:       req.Page,
		Limit:      req.Limit,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("issue list failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while fetching issues")
	}
	if rows == nil {
		rows = []models.Issue{}
	}
	return &IssuePage{Data: rows, Pagination: models.NewPagination(req.Page, req.Limit, total)}, nil
}

// Get returns a single issue by id.
func (s *IssueService) Get(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		s.logger.Error("issue fetch failed", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while fetching issue")
	}
	return issue, nil
}

// UpdateStatus moves an issue through triage.
func (s *IssueService) UpdateStatus(ctx context.Context, id, status string) (*models.Issue, error) {
	if !models.ValidIssueStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	found, err := s.repo.UpdateStatus(ctx, id, models.IssueStatus(status))
	if err != nil {
		s.logger.Error("issue status update failed", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Server error while updating issue")
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
	}
	return s.Get(ctx, id)
}

// EnsureHypeFields runs the idempotent hype-column backfill. It is launched
// once at startup and must never take the process down.
func (s *IssueService) EnsureHypeFields(ctx context.Context) {
	if err := s.repo.EnsureHypeFields(ctx); err != nil {
		s.logger.Error("hype field backfill failed", zap.Error(err))
		return
	}
	s.logger.Info("hype field backfill complete")
}
