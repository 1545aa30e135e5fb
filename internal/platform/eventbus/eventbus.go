package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ram-020998/nexusmerge/internal/platform/envutil"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

// SessionEvent is published on every merge session status transition.
type SessionEvent struct {
	ReferenceID  string `json:"reference_id"`
	Status       string `json:"status"`
	TotalChanges int    `json:"total_changes"`
	Detail       string `json:"detail,omitempty"`
}

type Bus interface {
	PublishSessionEvent(ctx context.Context, ev SessionEvent) error
	Close() error
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// New connects to Redis when REDIS_ADDR is set. Without it, or when the
// configured Redis cannot be reached, the returned bus only logs events, so
// the orchestrator never depends on Redis being up.
func New(log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return &logBus{log: log.With("service", "EventBus")}, nil
	}
	channel := envutil.String("REDIS_CHANNEL", "merge-sessions")

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		// Events are advisory; an unreachable Redis degrades to log-only
		// instead of blocking startup.
		log.Warn("redis unreachable, session events will only be logged", "addr", addr, "error", err)
		return &logBus{log: log.With("service", "EventBus")}, nil
	}
	return &redisBus{
		log:     log.With("service", "RedisEventBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisBus) PublishSessionEvent(ctx context.Context, ev SessionEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("event bus not initialized")
	}
	if strings.TrimSpace(ev.ReferenceID) == "" {
		return fmt.Errorf("missing reference_id")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	b.log.Debug("published session event", "reference_id", ev.ReferenceID, "status", ev.Status)
	return nil
}

func (b *redisBus) Close() error { return b.rdb.Close() }

// logBus is the no-Redis fallback.
type logBus struct {
	log *logger.Logger
}

func (b *logBus) PublishSessionEvent(_ context.Context, ev SessionEvent) error {
	b.log.Info("session event", "reference_id", ev.ReferenceID, "status", ev.Status, "total_changes", ev.TotalChanges)
	return nil
}

func (b *logBus) Close() error { return nil }
