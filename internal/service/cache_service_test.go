package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiceye/civiceye-api/internal/models"
	appErrors "github.com/civiceye/civiceye-api/pkg/errors"
)

type cacheRepoStub struct {
	entries map[string][]byte
	setTTL  time.Duration
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: map[string][]byte{}}
}

func (r *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	r.setTTL = ttl
	return nil
}

func (r *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	r.entries = map[string][]byte{}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Equal(t, time.Minute, repo.setTTL)

	hit, err = svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", out)

	require.NoError(t, svc.Invalidate(context.Background(), "k*"))
	hit, err = svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(newCacheRepoStub(), nil, time.Minute, nil, false)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))

	// a nil service behaves like a disabled one
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServiceSetCapsTTLAtDefault(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "k", "v", time.Hour))
	assert.Equal(t, time.Minute, repo.setTTL)
}

func TestAnnouncementListCacheBoundedByExpiry(t *testing.T) {
	repo := newAnnouncementRepoStub()
	expiry := time.Now().UTC().Add(30 * time.Second)
	repo.items["a1"] = &models.Announcement{ID: "a1", Title: "Closing soon", IsActive: true, ExpiryDate: &expiry}
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewAnnouncementService(repo, cache, nil, nil)

	_, err := svc.List(context.Background(), AnnouncementListRequest{})
	require.NoError(t, err)
	// the cached page must not outlive the announcement's window
	assert.Greater(t, cacheRepo.setTTL, time.Duration(0))
	assert.LessOrEqual(t, cacheRepo.setTTL, 30*time.Second)
}

func TestAnnouncementListUsesCache(t *testing.T) {
	repo := newAnnouncementRepoStub()
	repo.total = 5
	cache := NewCacheService(newCacheRepoStub(), nil, time.Minute, nil, true)
	svc := NewAnnouncementService(repo, cache, nil, nil)

	first, err := svc.List(context.Background(), AnnouncementListRequest{})
	require.NoError(t, err)

	// second call is served from cache and never reaches the repository
	repo.listErr = assert.AnError
	second, err := svc.List(context.Background(), AnnouncementListRequest{})
	require.NoError(t, err)
	assert.Equal(t, first.Pagination, second.Pagination)
}
