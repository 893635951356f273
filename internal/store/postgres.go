package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aerocl/aerobot/internal/funnel"
)

// Postgres implements SessionStore, OrderStore and LeadStore on a shared
// sqlx handle. Cart, customer and order items live in JSONB columns.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type sessionRow struct {
	Channel   string    `db:"channel"`
	UserID    string    `db:"user_id"`
	State     string    `db:"state"`
	Cart      []byte    `db:"cart"`
	Customer  []byte    `db:"customer"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetOrCreate loads the session for (channel, userID), inserting a START row
// on first contact.
func (p *Postgres) GetOrCreate(ctx context.Context, channel, userID string) (*funnel.Session, error) {
	var row sessionRow
	err := p.db.GetContext(ctx, &row,
		`SELECT channel, user_id, state, cart, customer, updated_at
		   FROM sessions WHERE channel = $1 AND user_id = $2`, channel, userID)
	if errors.Is(err, sql.ErrNoRows) {
		s := funnel.NewSession(channel, userID)
		if err := p.Save(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load session: %w", err)
	}

	s := &funnel.Session{
		Channel:   row.Channel,
		UserID:    row.UserID,
		State:     funnel.State(row.State),
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Cart) > 0 {
		if err := json.Unmarshal(row.Cart, &s.Cart); err != nil {
			return nil, fmt.Errorf("store: decode cart: %w", err)
		}
	}
	if len(row.Customer) > 0 {
		if err := json.Unmarshal(row.Customer, &s.Customer); err != nil {
			return nil, fmt.Errorf("store: decode customer: %w", err)
		}
	}
	if !s.State.Valid() {
		s.State = funnel.StateStart
	}
	return s, nil
}

// Save upserts the session row.
func (p *Postgres) Save(ctx context.Context, s *funnel.Session) error {
	cart, err := json.Marshal(s.Cart)
	if err != nil {
		return fmt.Errorf("store: encode cart: %w", err)
	}
	if s.Cart == nil {
		cart = []byte("[]")
	}
	customer, err := json.Marshal(s.Customer)
	if err != nil {
		return fmt.Errorf("store: encode customer: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO sessions (channel, user_id, state, cart, customer, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (channel, user_id) DO UPDATE
		    SET state = EXCLUDED.state,
		        cart = EXCLUDED.cart,
		        customer = EXCLUDED.customer,
		        updated_at = EXCLUDED.updated_at`,
		s.Channel, s.UserID, string(s.State), cart, customer, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: save session: %w", err)
	}
	return nil
}

type orderRow struct {
	ID        string    `db:"id"`
	Channel   string    `db:"channel"`
	UserID    string    `db:"user_id"`
	Items     []byte    `db:"items"`
	TotalCLP  int64     `db:"total_clp"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateOrder inserts an order row; o.ID must already be set.
func (p *Postgres) CreateOrder(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("store: encode order items: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO orders (id, channel, user_id, items, total_clp, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.Channel, o.UserID, items, o.TotalCLP, o.Status, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create order: %w", err)
	}
	return nil
}

// GetOrder fetches one order by id.
func (p *Postgres) GetOrder(ctx context.Context, id string) (*Order, error) {
	var row orderRow
	err := p.db.GetContext(ctx, &row,
		`SELECT id, channel, user_id, items, total_clp, status, created_at
		   FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load order: %w", err)
	}
	o := &Order{
		ID:        row.ID,
		Channel:   row.Channel,
		UserID:    row.UserID,
		TotalCLP:  row.TotalCLP,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Items) > 0 {
		if err := json.Unmarshal(row.Items, &o.Items); err != nil {
			return nil, fmt.Errorf("store: decode order items: %w", err)
		}
	}
	return o, nil
}

// CreateLead inserts a lead row and fills l.ID.
func (p *Postgres) CreateLead(ctx context.Context, l *Lead) error {
	err := p.db.QueryRowxContext(ctx,
		`INSERT INTO leads (channel, user_id, name, city, phone, email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		l.Channel, l.UserID, l.Name, l.City, l.Phone, l.Email, l.CreatedAt).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("store: create lead: %w", err)
	}
	return nil
}

// ListLeads returns all leads, newest first.
func (p *Postgres) ListLeads(ctx context.Context) ([]Lead, error) {
	var leads []Lead
	err := p.db.SelectContext(ctx, &leads,
		`SELECT id, channel, user_id, name, city, phone, email, created_at
		   FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list leads: %w", err)
	}
	return leads, nil
}
