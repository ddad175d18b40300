// Package auth implements user accounts, password login and JWT session
// management for the accounting API.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	rolesClaim = "roles"
)

// User is the safe subset of an account returned to clients.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is one refresh-token record. Token carries the sha256 hash, never
// the raw token.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}

// Repo captures account and session persistence.
type Repo interface {
	CreateUser(ctx context.Context, name, email, passwordHash string, roles []string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, string, error)
	UserByID(ctx context.Context, id uuid.UUID) (User, error)
	CreateSession(ctx context.Context, s Session) error
	SessionByTokenHash(ctx context.Context, hash string) (Session, bool, error)
	RotateSession(ctx context.Context, id uuid.UUID, newHash string, expiresAt time.Time) error
	DeleteSessionByTokenHash(ctx context.Context, hash string) error
}

// Service coordinates registration, login and token lifecycle.
type Service struct {
	repo       Repo
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	signer     jwa.SignatureAlgorithm
	validator  TokenValidator
	issuer     string
	audience   string
}

// Config configures the auth service.
type Config struct {
	Repo            Repo
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User          User      `json:"user"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// RefreshResult is the outcome of a refresh operation.
type RefreshResult struct {
	AccessToken   string    `json:"access_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshToken  string    `json:"refresh_token"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("auth: repo is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "accounting-api"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "accounting-web"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		repo:       cfg.Repo,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		signer:     jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:   issuer,
		audience: audience,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a new account with the operator role.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, common.NewAppError("VALIDATION", "name is required", http.StatusBadRequest, nil)
	}
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" {
		return User{}, common.NewAppError("VALIDATION", "email is required", http.StatusBadRequest, nil)
	}
	if len(password) < 8 {
		return User{}, common.NewAppError("VALIDATION", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, strings.TrimSpace(name), normalized, hash, []string{"user"})
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	invalid := common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)

	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" || password == "" {
		return LoginResult{}, invalid
	}
	user, passwordHash, err := s.repo.UserByEmail(ctx, normalized)
	if err != nil {
		return LoginResult{}, invalid
	}
	ok, err := argon2id.ComparePasswordAndHash(password, passwordHash)
	if err != nil || !ok {
		return LoginResult{}, invalid
	}

	accessToken, accessExpiry, err := s.signAccessToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, refreshExpiry, err := s.createSession(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	return LoginResult{
		User:          user,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.repo.DeleteSessionByTokenHash(ctx, hashRefreshToken(token))
}

// Refresh validates and rotates a refresh token, issuing a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	unauthorized := common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)

	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return RefreshResult{}, unauthorized
	}
	hashed := hashRefreshToken(token)
	session, ok, err := s.repo.SessionByTokenHash(ctx, hashed)
	if err != nil || !ok {
		return RefreshResult{}, unauthorized
	}
	if s.now().After(session.ExpiresAt) {
		_ = s.repo.DeleteSessionByTokenHash(ctx, hashed)
		return RefreshResult{}, unauthorized
	}

	user, err := s.repo.UserByID(ctx, session.UserID)
	if err != nil {
		_ = s.repo.DeleteSessionByTokenHash(ctx, hashed)
		return RefreshResult{}, unauthorized
	}

	accessToken, accessExpiry, err := s.signAccessToken(user)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("sign access token: %w", err)
	}

	newToken, newExpiry, err := s.newRefreshToken()
	if err != nil {
		return RefreshResult{}, err
	}
	if err := s.repo.RotateSession(ctx, session.ID, hashRefreshToken(newToken), newExpiry); err != nil {
		_ = s.repo.DeleteSessionByTokenHash(ctx, hashed)
		return RefreshResult{}, fmt.Errorf("rotate session: %w", err)
	}

	return RefreshResult{
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshToken:  newToken,
		RefreshExpiry: newExpiry,
	}, nil
}

// Me fetches the authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	unauthorized := common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return User{}, unauthorized
	}
	user, err := s.repo.UserByID(ctx, id)
	if err != nil {
		return User{}, unauthorized
	}
	return user, nil
}

// ParseAccessToken validates an access token and returns the subject and
// role claims.
func (s *Service) ParseAccessToken(token string) (string, []string, error) {
	unauthorized := func(err error) error {
		return common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", nil, common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", nil, unauthorized(err)
	}
	if algorithm != s.validator.Algorithm {
		return "", nil, unauthorized(fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", nil, unauthorized(err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", nil, unauthorized(err)
	}
	return parsed.Subject(), rolesFromToken(parsed), nil
}

func rolesFromToken(tok jwt.Token) []string {
	raw, ok := tok.Get(rolesClaim)
	if !ok {
		return nil
	}
	values, ok := raw.([]any)
	if !ok {
		return nil
	}
	var roles []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(user User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(user.ID.String()).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim(rolesClaim, user.Roles)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func (s *Service) createSession(ctx context.Context, userID uuid.UUID) (string, time.Time, error) {
	token, expiresAt, err := s.newRefreshToken()
	if err != nil {
		return "", time.Time{}, err
	}
	err = s.repo.CreateSession(ctx, Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hashRefreshToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *Service) newRefreshToken() (string, time.Time, error) {
	token, err := generateToken(48)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, s.now().Add(s.refreshTTL), nil
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
