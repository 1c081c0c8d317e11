package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Health describes the database's availability as seen by this process.
type Health struct {
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency_ms"`
	OpenConns int32         `json:"open_conns"`
	IdleConns int32         `json:"idle_conns"`
	Error     string        `json:"error,omitempty"`
}

// CheckHealth pings the pool with a short deadline and reports pool stats.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) Health {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := pool.Ping(ctx)
	latency := time.Since(start)

	stats := pool.Stat()
	h := Health{
		Healthy:   err == nil,
		Latency:   latency / time.Millisecond,
		OpenConns: stats.TotalConns(),
		IdleConns: stats.IdleConns(),
	}
	if err != nil {
		h.Error = err.Error()
	}
	return h
}
