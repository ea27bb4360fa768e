// Package ratelimit counts requests per key in fixed windows. The Redis
// limiter shares counts across server instances; the memory limiter is for
// a single process.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLimited = errors.New("rate limit exceeded")

// Rule allows Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

func (r Rule) String() string { return fmt.Sprintf("%d/%s", r.Limit, r.Window) }

type Limiter interface {
	// Allow counts one request for key and returns ErrLimited once the
	// rule's limit is exceeded within the current window.
	Allow(ctx context.Context, key string, rule Rule) error
}

type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
}

type window struct {
	count int
	reset time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, windows: make(map[string]*window)}
}

func (m *Memory) Allow(_ context.Context, key string, rule Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(rule.Window)}
		m.windows[key] = w
	}
	w.count++
	if w.count > rule.Limit {
		return ErrLimited
	}
	return nil
}

// Prune drops expired windows.
func (m *Memory) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for k, w := range m.windows {
		if !now.Before(w.reset) {
			delete(m.windows, k)
			n++
		}
	}
	return n
}

type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, key string, rule Rule) error {
	k := r.prefix + key
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("counting %s: %w", key, err)
	}
	if incr.Val() > int64(rule.Limit) {
		return ErrLimited
	}
	return nil
}
