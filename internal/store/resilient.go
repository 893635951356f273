package store

import (
	"context"
	"log/slog"

	"github.com/aerocl/aerobot/internal/funnel"
	"github.com/aerocl/aerobot/internal/logger"
)

// Resilient wraps a primary SessionStore with one retry and an in-memory
// fallback. When the primary fails twice the session is served from process
// memory so the user still gets a coherent conversation; the degradation is
// logged and the primary is retried again on the next message.
type Resilient struct {
	primary  SessionStore
	fallback *Memory
}

func NewResilient(primary SessionStore) *Resilient {
	return &Resilient{primary: primary, fallback: NewMemory()}
}

func (r *Resilient) GetOrCreate(ctx context.Context, channel, userID string) (*funnel.Session, error) {
	s, err := r.primary.GetOrCreate(ctx, channel, userID)
	if err == nil {
		return s, nil
	}
	if s, err = r.primary.GetOrCreate(ctx, channel, userID); err == nil {
		return s, nil
	}
	logger.Warn(ctx, "store", "session.degraded",
		slog.String("status", "fallback"),
		slog.String("channel", channel),
		slog.String("user_id", userID),
		slog.Any("err", err),
	)
	return r.fallback.GetOrCreate(ctx, channel, userID)
}

func (r *Resilient) Save(ctx context.Context, s *funnel.Session) error {
	err := r.primary.Save(ctx, s)
	if err == nil {
		return nil
	}
	if err = r.primary.Save(ctx, s); err == nil {
		return nil
	}
	logger.Warn(ctx, "store", "session.degraded",
		slog.String("status", "fallback"),
		slog.String("channel", s.Channel),
		slog.String("user_id", s.UserID),
		slog.Any("err", err),
	)
	return r.fallback.Save(ctx, s)
}
