package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

type memoryRepo struct {
	users    map[uuid.UUID]User
	hashes   map[string]string // email -> password hash
	byEmail  map[string]uuid.UUID
	sessions map[string]Session // token hash -> session
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:    map[uuid.UUID]User{},
		hashes:   map[string]string{},
		byEmail:  map[string]uuid.UUID{},
		sessions: map[string]Session{},
	}
}

func (m *memoryRepo) CreateUser(_ context.Context, name, email, passwordHash string, roles []string) (User, error) {
	if _, exists := m.byEmail[email]; exists {
		return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", 409, nil)
	}
	u := User{ID: uuid.New(), Name: name, Email: email, Roles: roles, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.users[u.ID] = u
	m.byEmail[email] = u.ID
	m.hashes[email] = passwordHash
	return u, nil
}

func (m *memoryRepo) UserByEmail(_ context.Context, email string) (User, string, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return User{}, "", common.NewAppError("USER_NOT_FOUND", "user not found", 404, nil)
	}
	return m.users[id], m.hashes[email], nil
}

func (m *memoryRepo) UserByID(_ context.Context, id uuid.UUID) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, common.NewAppError("USER_NOT_FOUND", "user not found", 404, nil)
	}
	return u, nil
}

func (m *memoryRepo) CreateSession(_ context.Context, s Session) error {
	m.sessions[s.TokenHash] = s
	return nil
}

func (m *memoryRepo) SessionByTokenHash(_ context.Context, hash string) (Session, bool, error) {
	s, ok := m.sessions[hash]
	return s, ok, nil
}

func (m *memoryRepo) RotateSession(_ context.Context, id uuid.UUID, newHash string, expiresAt time.Time) error {
	for hash, s := range m.sessions {
		if s.ID == id {
			delete(m.sessions, hash)
			s.TokenHash = newHash
			s.ExpiresAt = expiresAt
			m.sessions[newHash] = s
			return nil
		}
	}
	return common.NewAppError("UNAUTHORIZED", "session not found", 401, nil)
}

func (m *memoryRepo) DeleteSessionByTokenHash(_ context.Context, hash string) error {
	delete(m.sessions, hash)
	return nil
}

func newTestService(t *testing.T, repo Repo) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Repo:            repo,
		Secret:          "test-secret-please-rotate",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "accounting-api",
		Audience:        "accounting-web",
		ClockSkew:       30 * time.Second,
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, []string{"user"}, user.Roles)

	result, err := svc.Login(ctx, "a@example.com", "matkhau123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, user.ID, result.User.ID)

	subject, roles, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), subject)
	assert.Equal(t, []string{"user"}, roles)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@example.com", "sai-mat-khau")
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Nguyen Van B", "a@example.com", "matkhau456")
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "EMAIL_ALREADY_USED", appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "a@example.com", "matkhau123")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// old token is spent after rotation
	_, err = svc.Refresh(ctx, login.RefreshToken)
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)

	_, err = svc.Refresh(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "a@example.com", "matkhau123")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(2 * time.Hour) })

	_, err = svc.Refresh(ctx, login.RefreshToken)
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "a@example.com", "matkhau123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.RefreshToken))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestParseAccessTokenRejectsTampered(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "a@example.com", "matkhau123")
	require.NoError(t, err)

	parts := strings.Split(login.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	_, _, err = svc.ParseAccessToken(tampered)
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)
	login, err := svc.Login(ctx, "a@example.com", "matkhau123")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(time.Hour) })

	_, _, err = svc.ParseAccessToken(login.AccessToken)
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestParseAccessTokenRejectsForeignIssuer(t *testing.T) {
	repo := newMemoryRepo()
	other, err := NewService(Config{
		Repo:     repo,
		Secret:   "test-secret-please-rotate",
		Issuer:   "some-other-service",
		Audience: "accounting-web",
	})
	require.NoError(t, err)
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err = other.Register(ctx, "Nguyen Van A", "a@example.com", "matkhau123")
	require.NoError(t, err)
	login, err := other.Login(ctx, "a@example.com", "matkhau123")
	require.NoError(t, err)

	_, _, err = svc.ParseAccessToken(login.AccessToken)
	appErr, ok := common.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}
