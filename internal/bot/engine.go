// Package bot ties the funnel, stores and composer into the per-message
// processing pipeline shared by every channel.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aerocl/aerobot/internal/channel"
	"github.com/aerocl/aerobot/internal/composer"
	"github.com/aerocl/aerobot/internal/funnel"
	"github.com/aerocl/aerobot/internal/logger"
	"github.com/aerocl/aerobot/internal/store"
)

// ErrDuplicate marks a webhook delivery already processed; callers acknowledge
// the provider and send nothing.
var ErrDuplicate = errors.New("bot: duplicate delivery")

const dedupTTL = 10 * time.Minute

// Engine processes one normalized inbound message end to end: dedup, per-key
// lock, session load, funnel step, order emission, composing, session save.
type Engine struct {
	machine  *funnel.Machine
	sessions store.SessionStore
	orders   store.OrderStore
	leads    store.LeadStore
	comp     composer.Composer
	locks    *store.KeyLock
	dedup    *dedup
	baseURL  string
}

func NewEngine(
	machine *funnel.Machine,
	sessions store.SessionStore,
	orders store.OrderStore,
	leads store.LeadStore,
	comp composer.Composer,
	baseURL string,
) *Engine {
	return &Engine{
		machine:  machine,
		sessions: sessions,
		orders:   orders,
		leads:    leads,
		comp:     comp,
		locks:    store.NewKeyLock(),
		dedup:    newDedup(dedupTTL),
		baseURL:  baseURL,
	}
}

// Handle runs the pipeline for one message and returns the reply to deliver.
// The reply is always populated on nil error; composer failures degrade to
// the funnel's skeleton text and never fail the request.
func (e *Engine) Handle(ctx context.Context, in channel.Inbound) (channel.Outbound, error) {
	ctx = logger.WithMessageMeta(ctx, in.Channel, in.UserID)
	ctx = logger.WithRID(ctx, logger.BuildRID(in.Channel, in.UserID, in.MessageID))
	start := time.Now()

	if e.dedup.Seen(in.Channel, in.MessageID) {
		logger.Debug(ctx, "bot", "message.duplicate",
			slog.String("status", "dropped"),
		)
		return channel.Outbound{}, ErrDuplicate
	}

	unlock := e.locks.Lock(in.Channel, in.UserID)
	defer unlock()

	s, err := e.sessions.GetOrCreate(ctx, in.Channel, in.UserID)
	if err != nil {
		logger.Error(ctx, "bot", "session.load",
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
		return channel.Outbound{}, fmt.Errorf("bot: load session: %w", err)
	}

	intent := funnel.Classify(in.Text)
	res := e.machine.Advance(s, intent, in.Text)
	skeleton := res.Text

	if res.Checkout {
		skeleton += e.emitOrder(ctx, s)
	}

	text := skeleton
	if composed, err := e.comp.Compose(ctx, composer.Prompt{
		Channel:  in.Channel,
		State:    s.State,
		UserText: in.Text,
		Skeleton: skeleton,
	}); err != nil {
		logger.Warn(ctx, "bot", "compose.fallback",
			slog.String("status", "skeleton"),
			slog.String("state", string(s.State)),
			slog.String("err", err.Error()),
		)
	} else {
		text = composed
	}

	if err := e.sessions.Save(ctx, s); err != nil {
		logger.Error(ctx, "bot", "session.save",
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
		return channel.Outbound{}, fmt.Errorf("bot: save session: %w", err)
	}

	logger.Info(ctx, "bot", "message.handled",
		slog.String("status", "ok"),
		slog.String("state", string(s.State)),
		slog.String("intent", string(intent)),
		slog.Duration("duration", logger.Took(start)),
	)

	return channel.Outbound{Channel: in.Channel, UserID: in.UserID, Text: text, State: s.State}, nil
}

// emitOrder persists the order and lead for a completed data collection and
// returns the payment-link block to append to the reply. Persistence errors
// are logged but never block the reply: the link is generated regardless so
// the customer can still be invoiced manually.
func (e *Engine) emitOrder(ctx context.Context, s *funnel.Session) string {
	now := time.Now().UTC()
	order := &store.Order{
		ID:        uuid.NewString(),
		Channel:   s.Channel,
		UserID:    s.UserID,
		Items:     append([]funnel.CartItem(nil), s.Cart...),
		TotalCLP:  s.CartTotal(),
		Status:    "pending",
		CreatedAt: now,
	}
	if err := e.orders.CreateOrder(ctx, order); err != nil {
		logger.Error(ctx, "bot", "order.create",
			slog.String("status", "error"),
			slog.String("order_id", order.ID),
			slog.String("err", err.Error()),
		)
	} else {
		logger.Info(ctx, "bot", "order.create",
			slog.String("status", "ok"),
			slog.String("order_id", order.ID),
			slog.Int64("total_clp", order.TotalCLP),
		)
	}

	lead := &store.Lead{
		Channel:   s.Channel,
		UserID:    s.UserID,
		Name:      s.Customer.Name,
		City:      s.Customer.City,
		Phone:     s.Customer.Phone,
		Email:     s.Customer.Email,
		CreatedAt: now,
	}
	if err := e.leads.CreateLead(ctx, lead); err != nil {
		logger.Error(ctx, "bot", "lead.create",
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
	}

	link := fmt.Sprintf("%s/pagar?order=%s&monto=%d", e.baseURL, order.ID, order.TotalCLP)
	return "\n\nPara cerrar, te dejo link de pago seguro (demo): " + link +
		"\nUna vez confirmado, coordinamos despacho. ¿Deseas agregar otra unidad o accesorio?"
}
