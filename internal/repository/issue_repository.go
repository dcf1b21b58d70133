package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/civiceye/civiceye-api/internal/models"
)

const issueColumns = `id, title, description, category, location, pincode, status, hype_points, hyped_by, reported_by, created_at, updated_at`

// IssueRepository provides persistence for civic issues.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository creates the repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// AddHype records a hype for the citizen and returns the new counter value.
// The predicate and the mutation run as one statement, so two racing
// requests from the same citizen resolve to exactly one increment; the loser
// gets sql.ErrNoRows and the caller falls back to the idempotent path.
func (r *IssueRepository) AddHype(ctx context.Context, issueID, citizenID string) (int, error) {
	const query = `UPDATE issues
SET hyped_by = array_append(hyped_by, $2), hype_points = hype_points + 1, updated_at = $3
WHERE id = $1 AND NOT ($2 = ANY(hyped_by))
RETURNING hype_points`
	var points int
	if err := r.db.GetContext(ctx, &points, query, issueID, citizenID, time.Now().UTC()); err != nil {
		return 0, err
	}
	return points, nil
}

// GetByID returns an issue by identifier.
func (r *IssueRepository) GetByID(ctx context.Context, id string) (*models.Issue, error) {
	query := fmt.Sprintf("SELECT %s FROM issues WHERE id = $1", issueColumns)
	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, query, id); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Create inserts a newly reported issue.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = now
	if issue.HypedBy == nil {
		issue.HypedBy = pq.StringArray{}
	}
	const query = `INSERT INTO issues (id, title, description, category, location, pincode, status, hype_points, hyped_by, reported_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(ctx, query,
		issue.ID, issue.Title, issue.Description, issue.Category, issue.Location, issue.Pincode,
		issue.Status, issue.HypePoints, issue.HypedBy, issue.ReportedBy, issue.CreatedAt, issue.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// List returns issues matching the filter with the total match count.
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Pincode != "" {
		where = append(where, fmt.Sprintf("pincode = $%d", len(args)+1))
		args = append(args, filter.Pincode)
	}
	if filter.ReportedBy != "" {
		where = append(where, fmt.Sprintf("reported_by = $%d", len(args)+1))
		args = append(args, filter.ReportedBy)
	}
	whereClause := strings.Join(where, " AND ")

	sortBy := issueSortColumn(filter.SortBy)
	sortOrder := "DESC"
	if filter.SortOrder != "" && !strings.EqualFold(filter.SortOrder, "desc") {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf("SELECT %s FROM issues WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		issueColumns, whereClause, sortBy, sortOrder, limit, offset)

	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM issues WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}
	return issues, total, nil
}

// UpdateStatus moves an issue through its triage lifecycle.
func (r *IssueRepository) UpdateStatus(ctx context.Context, id string, status models.IssueStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE issues SET status = $2, updated_at = $3 WHERE id = $1", id, status, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update issue status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update issue status: %w", err)
	}
	return affected > 0, nil
}

// EnsureHypeFields backfills hype columns for rows created before the
// counter existed. Idempotent: it only touches rows missing a value, so it
// is safe to run on every startup.
func (r *IssueRepository) EnsureHypeFields(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE issues SET hype_points = 0 WHERE hype_points IS NULL"); err != nil {
		return fmt.Errorf("backfill hype_points: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE issues SET hyped_by = '{}' WHERE hyped_by IS NULL"); err != nil {
		return fmt.Errorf("backfill hyped_by: %w", err)
	}
	return nil
}

func issueSortColumn(sortBy string) string {
	allowed := map[string]string{
		"createdAt":  "created_at",
		"updatedAt":  "updated_at",
		"hypePoints": "hype_points",
		"status":     "status",
	}
	if column, ok := allowed[sortBy]; ok {
		return column
	}
	return "created_at"
}
