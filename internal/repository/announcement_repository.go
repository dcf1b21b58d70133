package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/civiceye/civiceye-api/internal/models"
)

const announcementColumns = `a.id, a.title, a.description, a.location, a.pincode, a.category, a.priority,
a.scheduled_date, a.expiry_date, a.is_active, a.created_by, a.created_at, a.updated_at,
u.name AS creator_name, u.email AS creator_email`

// announcementRow carries the creator projection alongside the row itself.
type announcementRow struct {
	models.Announcement
	CreatorName  string `db:"creator_name"`
	CreatorEmail string `db:"creator_email"`
}

func (r announcementRow) toModel() models.Announcement {
	a := r.Announcement
	a.CreatedBy = models.Creator{Name: r.CreatorName, Email: r.CreatorEmail}
	return a
}

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns live announcements matching the filter plus the total count of
// matches ignoring pagination. Only active rows inside the liveness window
// are visible here; direct-by-id lookups deliberately skip both checks.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	where := []string{"a.is_active = TRUE"}
	args := []interface{}{}

	where = append(where, fmt.Sprintf("(a.expiry_date IS NULL OR a.expiry_date > $%d)", len(args)+1))
	args = append(args, now)

	if filter.Pincode != "" {
		where = append(where, fmt.Sprintf("a.pincode = $%d", len(args)+1))
		args = append(args, filter.Pincode)
	}
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("a.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Priority != "" {
		where = append(where, fmt.Sprintf("a.priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.Search != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf("(a.title ILIKE $%d OR a.description ILIKE $%d OR a.location ILIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}

	whereClause := strings.Join(where, " AND ")

	sortBy := announcementSortColumn(filter.SortBy)
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

	query := fmt.Sprintf(`SELECT %s
FROM announcements a JOIN users u ON u.id = a.created_by
WHERE %s
ORDER BY a.%s %s
LIMIT %d OFFSET %d`, announcementColumns, whereClause, sortBy, sortOrder, limit, offset)

	var rows []announcementRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM announcements a WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}

	announcements := make([]models.Announcement, 0, len(rows))
	for _, row := range rows {
		announcements = append(announcements, row.toModel())
	}
	return announcements, total, nil
}

// GetByID returns an announcement regardless of its active or expiry state.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := fmt.Sprintf(`SELECT %s
FROM announcements a JOIN users u ON u.id = a.created_by
WHERE a.id = $1`, announcementColumns)
	var row announcementRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	announcement := row.toModel()
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	announcement.UpdatedAt = now
	query := `INSERT INTO announcements (id, title, description, location, pincode, category, priority, scheduled_date, expiry_date, is_active, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :location, :pincode, :category, :priority, :scheduled_date, :expiry_date, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing announcement. Partial
// update semantics are resolved by the service before this runs.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now().UTC()
	query := `UPDATE announcements SET title = :title, description = :description, location = :location, pincode = :pincode,
category = :category, priority = :priority, scheduled_date = :scheduled_date, expiry_date = :expiry_date,
is_active = :is_active, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return nil
}

// SoftDelete flips is_active off and reports whether the row exists. Already
// inactive rows still count as found, which keeps the operation idempotent.
func (r *AnnouncementRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE announcements SET is_active = FALSE, updated_at = $2 WHERE id = $1", id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("soft delete announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete announcement: %w", err)
	}
	return affected > 0, nil
}

// All returns every announcement, newest first, for admin export.
func (r *AnnouncementRepository) All(ctx context.Context) ([]models.Announcement, error) {
	query := fmt.Sprintf(`SELECT %s
FROM announcements a JOIN users u ON u.id = a.created_by
ORDER BY a.created_at DESC`, announcementColumns)
	var rows []announcementRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load all announcements: %w", err)
	}
	announcements := make([]models.Announcement, 0, len(rows))
	for _, row := range rows {
		announcements = append(announcements, row.toModel())
	}
	return announcements, nil
}

// Stats aggregates over every announcement, expired and inactive included.
func (r *AnnouncementRepository) Stats(ctx context.Context) (*models.AnnouncementStats, error) {
	var counts struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	if err := r.db.GetContext(ctx, &counts, "SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active FROM announcements"); err != nil {
		return nil, fmt.Errorf("count announcement stats: %w", err)
	}

	// One row per document, not a grouped histogram: downstream consumers
	// rely on len(byCategory) == total.
	var byCategory []models.CategoryTally
	if err := r.db.SelectContext(ctx, &byCategory, "SELECT category, 1 AS count FROM announcements"); err != nil {
		return nil, fmt.Errorf("tally announcement categories: %w", err)
	}
	var byPriority []models.PriorityTally
	if err := r.db.SelectContext(ctx, &byPriority, "SELECT priority, 1 AS count FROM announcements"); err != nil {
		return nil, fmt.Errorf("tally announcement priorities: %w", err)
	}

	return &models.AnnouncementStats{
		Total:      counts.Total,
		Active:     counts.Active,
		ByCategory: byCategory,
		ByPriority: byPriority,
	}, nil
}

func announcementSortColumn(sortBy string) string {
	allowed := map[string]string{
		"createdAt":     "created_at",
		"updatedAt":     "updated_at",
		"title":         "title",
		"priority":      "priority",
		"scheduledDate": "scheduled_date",
		"expiryDate":    "expiry_date",
	}
	if column, ok := allowed[sortBy]; ok {
		return column
	}
	return "created_at"
}
