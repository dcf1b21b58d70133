package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiceye/civiceye-api/internal/models"
	appErrors "github.com/civiceye/civiceye-api/pkg/errors"
)

type announcementRepoStub struct {
	items      map[string]*models.Announcement
	total      int
	lastFilter models.AnnouncementFilter
	listErr    error
}

func newAnnouncementRepoStub() *announcementRepoStub {
	return &announcementRepoStub{items: map[string]*models.Announcement{}}
}

func (r *announcementRepoStub) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	r.lastFilter = filter
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var out []models.Announcement
	for _, a := range r.items {
		out = append(out, *a)
	}
	total := r.total
	if total == 0 {
		total = len(out)
	}
	return out, total, nil
}

func (r *announcementRepoStub) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (r *announcementRepoStub) Create(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	clone := *a
	r.items[a.ID] = &clone
	return nil
}

func (r *announcementRepoStub) Update(ctx context.Context, a *models.Announcement) error {
	clone := *a
	r.items[a.ID] = &clone
	return nil
}

func (r *announcementRepoStub) SoftDelete(ctx context.Context, id string) (bool, error) {
	a, ok := r.items[id]
	if !ok {
		return false, nil
	}
	a.IsActive = false
	return true, nil
}

func (r *announcementRepoStub) Stats(ctx context.Context) (*models.AnnouncementStats, error) {
	return &models.AnnouncementStats{Total: len(r.items)}, nil
}

func (r *announcementRepoStub) All(ctx context.Context) ([]models.Announcement, error) {
	var out []models.Announcement
	for _, a := range r.items {
		out = append(out, *a)
	}
	return out, nil
}

func TestAnnouncementListPagination(t *testing.T) {
	repo := newAnnouncementRepoStub()
	repo.total = 23
	svc := NewAnnouncementService(repo, nil, nil, nil)

	page, err := svc.List(context.Background(), AnnouncementListRequest{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Current)
	assert.Equal(t, 3, page.Pagination.Pages)
	assert.Equal(t, 23, page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
}

func TestAnnouncementListStripsAllSentinel(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)

	_, err := svc.List(context.Background(), AnnouncementListRequest{Category: "All", Priority: "All"})
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter.Category)
	assert.Empty(t, repo.lastFilter.Priority)
	assert.False(t, repo.lastFilter.Now.IsZero())
}

func TestAnnouncementListClampsOversizeLimit(t *testing.T) {
	repo := newAnnouncementRepoStub()
	repo.total = 230
	svc := NewAnnouncementService(repo, nil, nil, nil)

	page, err := svc.List(context.Background(), AnnouncementListRequest{Page: 1, Limit: 150})
	require.NoError(t, err)
	// the envelope is computed from the same limit the repository queried
	assert.Equal(t, 100, repo.lastFilter.Limit)
	assert.Equal(t, 3, page.Pagination.Pages)
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, 230, page.Pagination.Total)
}

func TestAnnouncementListEmpty(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)

	page, err := svc.List(context.Background(), AnnouncementListRequest{})
	require.NoError(t, err)
	// empty page still serialises as [] rather than null
	assert.NotNil(t, page.Data)
	assert.Equal(t, 0, page.Pagination.Pages)
	assert.False(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
}

func TestAnnouncementCreateDefaults(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)

	created, err := svc.Create(context.Background(), CreateAnnouncementRequest{
		Title:       "Water maintenance",
		Description: "Supply interrupted",
		Location:    "Ward 12",
		Pincode:     "560021",
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGeneral, created.Category)
	assert.Equal(t, models.PriorityMedium, created.Priority)
	assert.True(t, created.IsActive)
	assert.Equal(t, "admin-1", created.CreatedByID)
}

func TestAnnouncementCreateRejectsLeadingZeroPincode(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateAnnouncementRequest{
		Title:       "Bad pincode",
		Description: "x",
		Location:    "Ward 12",
		Pincode:     "012345",
	}, "admin-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "pincode must be 6 digits and cannot start with 0", appErr.Message)
}

func TestAnnouncementUpdatePartial(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)

	expiry := time.Now().Add(24 * time.Hour)
	repo.items["a1"] = &models.Announcement{
		ID: "a1", Title: "Original", Description: "Body", Location: "Ward 12",
		Pincode: "560021", Category: models.CategoryUtility, Priority: models.PriorityHigh,
		ExpiryDate: &expiry, IsActive: true,
	}

	inactive := false
	updated, err := svc.Update(context.Background(), "a1", UpdateAnnouncementRequest{
		Description: "New body",
		ExpiryDate:  models.NullableTime{Set: true, Value: nil},
		IsActive:    &inactive,
	})
	require.NoError(t, err)
	// empty title means "leave unchanged", not "clear"
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "New body", updated.Description)
	assert.Nil(t, updated.ExpiryDate)
	assert.False(t, updated.IsActive)
}

func TestAnnouncementUpdateMissing(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)

	_, err := svc.Update(context.Background(), "missing", UpdateAnnouncementRequest{Title: "x"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestAnnouncementDelete(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)
	repo.items["a1"] = &models.Announcement{ID: "a1", IsActive: true}

	require.NoError(t, svc.Delete(context.Background(), "a1"))
	assert.False(t, repo.items["a1"].IsActive)

	// still "found" once inactive, so a repeat delete succeeds
	require.NoError(t, svc.Delete(context.Background(), "a1"))

	err := svc.Delete(context.Background(), "gone")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestAnnouncementStatsNeverNil(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, stats.ByCategory)
	assert.NotNil(t, stats.ByPriority)
}

func TestAnnouncementExportCSV(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)
	repo.items["a1"] = &models.Announcement{
		ID: "a1", Title: "Water cut", Category: models.CategoryUtility,
		Priority: models.PriorityHigh, Pincode: "560021", Location: "Ward 12", IsActive: true,
	}

	payload, contentType, filename, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "announcements.csv", filename)
	assert.True(t, strings.HasPrefix(string(payload), "Title,Category,Priority"))
	assert.Contains(t, string(payload), "Water cut")
}

func TestAnnouncementExportUnknownFormat(t *testing.T) {
	repo := newAnnouncementRepoStub()
	svc := NewAnnouncementService(repo, nil, nil, nil)

	_, _, _, err := svc.Export(context.Background(), "xlsx")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestAnnouncementListRepoFailure(t *testing.T) {
	repo := newAnnouncementRepoStub()
	repo.listErr = errors.New("boom")
	svc := NewAnnouncementService(repo, nil, nil, nil)

	_, err := svc.List(context.Background(), AnnouncementListRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}
