package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/civiceye/civiceye-api/internal/models"
	appErrors "github.com/civiceye/civiceye-api/pkg/errors"
)

type userRepoStub struct {
	byEmail map[string]*models.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{byEmail: map[string]*models.User{}}
}

func (r *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.byEmail[user.Email] = user
	return nil
}

func newTestAuthService(repo authUserRepository) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "civiceye-test",
	})
}

func seedUser(t *testing.T, repo *userRepoStub, email, password string, role models.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash), Name: "Test User", Role: role, Active: active}
	repo.byEmail[email] = user
	return user
}

func TestRegisterCreatesCitizen(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestAuthService(repo)

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "New Citizen", Email: "new@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCitizen, info.Role)
	assert.NotEmpty(t, info.ID)
	// password hash never leaves the service
	assert.NotEmpty(t, repo.byEmail["new@example.com"].PasswordHash)
	assert.NotEqual(t, "secret1", repo.byEmail["new@example.com"].PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(t, repo, "taken@example.com", "secret1", models.RoleCitizen, true)
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Someone", Email: "taken@example.com", Password: "secret1",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestLoginRoundTrip(t *testing.T) {
	repo := newUserRepoStub()
	user := seedUser(t, repo, "citizen@example.com", "secret1", models.RoleCitizen, true)
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "citizen@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleCitizen, claims.Role)
	assert.Equal(t, "civiceye-test", claims.Issuer)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(t, repo, "citizen@example.com", "secret1", models.RoleCitizen, true)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "citizen@example.com", Password: "wrong"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(newUserRepoStub())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(t, repo, "gone@example.com", "secret1", models.RoleCitizen, false)
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "gone@example.com", Password: "secret1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(t, repo, "citizen@example.com", "secret1", models.RoleCitizen, true)
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "citizen@example.com", Password: "secret1"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "other-secret", AccessTokenExpiry: time.Hour, Issuer: "civiceye-test"})
	_, err = other.ValidateToken(resp.AccessToken)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}
