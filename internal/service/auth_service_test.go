package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/canopyhq/canopy-api/internal/models"
	"github.com/canopyhq/canopy-api/pkg/config"
	appErrors "github.com/canopyhq/canopy-api/pkg/errors"
)

type authRepoStub struct {
	users      map[string]*models.User
	lastLogins []string
	auditLogs  []*models.AuditLog
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogins = append(s.lastLogins, id)
	return nil
}

func (s *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.auditLogs = append(s.auditLogs, log)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "canopy-api"}
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		FullName:     "Alice",
		Active:       true,
	}
}

func TestLoginIssuesToken(t *testing.T) {
	repo := &authRepoStub{users: map[string]*models.User{"u1": testUser(t, "sup3rsecret")}}
	svc := NewAuthService(repo, nil, nil, testJWTConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, []string{"u1"}, repo.lastLogins)
	require.NotEmpty(t, repo.auditLogs)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := &authRepoStub{users: map[string]*models.User{"u1": testUser(t, "sup3rsecret")}}
	svc := NewAuthService(repo, nil, nil, testJWTConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "wrongpassword"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := NewAuthService(&authRepoStub{}, nil, nil, testJWTConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "sup3rsecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	user := testUser(t, "sup3rsecret")
	user.Active = false
	repo := &authRepoStub{users: map[string]*models.User{"u1": user}}
	svc := NewAuthService(repo, nil, nil, testJWTConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "sup3rsecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := &authRepoStub{users: map[string]*models.User{"u1": testUser(t, "sup3rsecret")}}
	issuer := NewAuthService(repo, nil, nil, testJWTConfig())

	res, err := issuer.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, config.JWTConfig{Secret: "other-secret", Expiration: time.Hour})
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
