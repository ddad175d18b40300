// Package health exposes liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Pinger probes a single dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

type poolPinger struct{ pool *pgxpool.Pool }

func (p poolPinger) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

// Handler serves /healthz and /readyz.
type Handler struct {
	DB      Pinger
	Redis   Pinger
	Timeout time.Duration
}

// NewHandler wires probes for the PostgreSQL pool and Redis client. Nil
// dependencies are skipped.
func NewHandler(pool *pgxpool.Pool, rdb *redis.Client) Handler {
	h := Handler{Timeout: 500 * time.Millisecond}
	if pool != nil {
		h.DB = poolPinger{pool}
	}
	if rdb != nil {
		h.Redis = redisPinger{rdb}
	}
	return h
}

// Live answers liveness checks. It never touches dependencies.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready answers readiness checks by pinging the database and Redis.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	status := map[string]string{
		"db":    probe(ctx, h.DB),
		"redis": probe(ctx, h.Redis),
	}

	code := http.StatusOK
	for _, v := range status {
		if v != "ok" && v != "skipped" {
			code = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "skipped"
	}
	if err := p.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
