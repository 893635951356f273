// Package store persists funnel sessions, leads, and orders.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/aerocl/aerobot/internal/funnel"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("store: not found")

// Lead is a captured sales contact.
type Lead struct {
	ID        int64     `db:"id" json:"id"`
	Channel   string    `db:"channel" json:"channel"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	City      string    `db:"city" json:"city"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order is an emitted order pending payment.
type Order struct {
	ID        string            `json:"id"`
	Channel   string            `json:"channel"`
	UserID    string            `json:"user_id"`
	Items     []funnel.CartItem `json:"items"`
	TotalCLP  int64             `json:"total_clp"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// SessionStore loads and saves per-(channel, user) conversation records.
// GetOrCreate returns a fresh START session when none exists yet.
type SessionStore interface {
	GetOrCreate(ctx context.Context, channel, userID string) (*funnel.Session, error)
	Save(ctx context.Context, s *funnel.Session) error
}

// OrderStore records emitted orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
}

// LeadStore records captured sales contacts.
type LeadStore interface {
	CreateLead(ctx context.Context, l *Lead) error
	ListLeads(ctx context.Context) ([]Lead, error)
}
