package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	findByEmailErr   error
	findByIDErr      error
	created          []*models.User
	refreshTokens    map[string]*models.RefreshToken
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
	revokedAll       bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.userByEmail != nil && m.userByEmail.ID == id {
		m.userByEmail.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, digest string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[digest]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "sma-ipcrf-api",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password), Active: true, Role: models.RoleRater}}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RoleRater, res.User.Role)
	assert.True(t, repo.lastLoginUpdated)

	require.Len(t, repo.refreshTokens, 1)
	_, storedRaw := repo.refreshTokens[res.RefreshToken]
	assert.False(t, storedRaw, "raw refresh token must not be persisted")
	_, storedDigest := repo.refreshTokens[hashToken(res.RefreshToken)]
	assert.True(t, storedDigest)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", PasswordHash: string(password), Active: true}}

	_, err := newTestAuthService(repo).Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password), Active: false}}

	_, err := newTestAuthService(repo).Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@example.com", Active: true, Role: models.RoleAdmin}
	repo := &mockAuthRepo{userByEmail: user, refreshTokens: map[string]*models.RefreshToken{}}
	old := &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: hashToken("token"), ExpiresAt: time.Now().Add(time.Hour)}
	repo.refreshTokens[old.Token] = old
	svc := newTestAuthService(repo)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, old.Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		hashToken("token"): {ID: "rt1", UserID: "u1", Token: hashToken("token"), ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	_, err := newTestAuthService(repo).RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutForeignToken(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		hashToken("token"): {ID: "rt1", UserID: "owner", Token: hashToken("token"), ExpiresAt: time.Now().Add(time.Hour)},
	}}
	svc := newTestAuthService(repo)

	err := svc.Logout(context.Background(), "token", "someone-else", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), "token", "owner", models.LoginRequest{}))
	assert.True(t, repo.refreshTokens[hashToken("token")].Revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", PasswordHash: string(oldHash), Active: true}}
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "old-password", NewPassword: "newpassword"})
	require.NoError(t, err)
	assert.NotEqual(t, string(oldHash), repo.userByEmail.PasswordHash)
	assert.True(t, repo.revokedAll)

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong-password", NewPassword: "another-one"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceMe(t *testing.T) {
	repo := &mockAuthRepo{userByID: &models.User{ID: "u1", Email: "rater@example.com", FullName: "Rita Rater", Role: models.RoleRater}}
	info, err := newTestAuthService(repo).Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Rita Rater", info.FullName)

	_, err = newTestAuthService(&mockAuthRepo{}).Me(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceCreateUser(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newTestAuthService(repo)

	user, err := svc.CreateUser(context.Background(), models.CreateUserRequest{
		Email: " Admin@School.edu ", FullName: "Head Admin", Role: models.RoleAdmin, Password: "supersecret",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@school.edu", user.Email)
	assert.True(t, user.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("supersecret")))
	require.Len(t, repo.created, 1)

	_, err = svc.CreateUser(context.Background(), models.CreateUserRequest{Email: "x@school.edu", FullName: "X", Role: "JANITOR", Password: "supersecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateUser(context.Background(), models.CreateUserRequest{Email: "y@school.edu", FullName: "   ", Role: models.RoleRater, Password: "supersecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Len(t, repo.created, 1)
}

func TestAuthServiceCreateUserDuplicate(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "admin@school.edu"}}
	_, err := newTestAuthService(repo).CreateUser(context.Background(), models.CreateUserRequest{
		Email: "admin@school.edu", FullName: "Head Admin", Role: models.RoleAdmin, Password: "supersecret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{})
	user := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleAdmin}
	token, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "sma-ipcrf-api", claims.Issuer)

	_, err = svc.ValidateToken(token + "x")
	require.Error(t, err)
}

func TestAuthServiceLinksTeacherAccounts(t *testing.T) {
	userID := "u-teacher"
	teachers := &mockTeacherRepo{items: map[string]*models.Teacher{
		"t-1": {ID: "t-1", FullName: "Ana Cruz", UserID: &userID},
	}}
	repo := &mockAuthRepo{userByID: &models.User{ID: userID, Email: "ana@school.edu", Role: models.RoleTeacher, Active: true}}
	svc := newTestAuthService(repo).WithTeacherLookup(teachers)

	info, err := svc.Me(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, info.TeacherID)
	assert.Equal(t, "t-1", *info.TeacherID)
}

func TestAuthServiceTeacherLinkOnlyForTeachers(t *testing.T) {
	userID := "u-rater"
	teachers := &mockTeacherRepo{items: map[string]*models.Teacher{
		"t-1": {ID: "t-1", UserID: &userID},
	}}
	repo := &mockAuthRepo{userByID: &models.User{ID: userID, Role: models.RoleRater, Active: true}}

	info, err := newTestAuthService(repo).WithTeacherLookup(teachers).Me(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, info.TeacherID)

	repo.userByID.Role = models.RoleTeacher
	info, err = newTestAuthService(repo).WithTeacherLookup(&mockTeacherRepo{}).Me(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, info.TeacherID)
}
