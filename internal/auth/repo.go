package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// PgRepo persists accounts and refresh sessions in PostgreSQL.
type PgRepo struct {
	Pool *pgxpool.Pool
}

const userColumns = `id, name, email, roles, created_at, updated_at`

func (r *PgRepo) CreateUser(ctx context.Context, name, email, passwordHash string, roles []string) (User, error) {
	const query = `
		INSERT INTO users (id, name, email, password, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	row := r.Pool.QueryRow(ctx, query, uuid.New(), name, email, passwordHash, roles)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, err
	}
	return user, nil
}

func (r *PgRepo) UserByEmail(ctx context.Context, email string) (User, string, error) {
	const query = `
		SELECT ` + userColumns + `, password
		FROM users
		WHERE email = $1`

	var (
		u    User
		hash string
	)
	err := r.Pool.QueryRow(ctx, query, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Roles, &u.CreatedAt, &u.UpdatedAt, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, "", common.NewAppError("USER_NOT_FOUND", "user not found", http.StatusNotFound, err)
		}
		return User{}, "", err
	}
	return u, hash, nil
}

func (r *PgRepo) UserByID(ctx context.Context, id uuid.UUID) (User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	user, err := scanUser(r.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, common.NewAppError("USER_NOT_FOUND", "user not found", http.StatusNotFound, err)
		}
		return User{}, err
	}
	return user, nil
}

func (r *PgRepo) CreateSession(ctx context.Context, s Session) error {
	const query = `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.Pool.Exec(ctx, query, s.ID, s.UserID, s.TokenHash, s.ExpiresAt)
	return err
}

func (r *PgRepo) SessionByTokenHash(ctx context.Context, hash string) (Session, bool, error) {
	const query = `
		SELECT id, user_id, token_hash, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL`

	var s Session
	err := r.Pool.QueryRow(ctx, query, hash).
		Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	return s, true, nil
}

func (r *PgRepo) RotateSession(ctx context.Context, id uuid.UUID, newHash string, expiresAt time.Time) error {
	const query = `
		UPDATE refresh_tokens
		SET token_hash = $2, expires_at = $3
		WHERE id = $1 AND revoked_at IS NULL`

	tag, err := r.Pool.Exec(ctx, query, id, newHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("UNAUTHORIZED", "session not found", http.StatusUnauthorized, nil)
	}
	return nil
}

func (r *PgRepo) DeleteSessionByTokenHash(ctx context.Context, hash string) error {
	const query = `
		UPDATE refresh_tokens
		SET revoked_at = now()
		WHERE token_hash = $1 AND revoked_at IS NULL`

	_, err := r.Pool.Exec(ctx, query, hash)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
