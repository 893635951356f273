package store

import (
	"context"
	"sort"
	"sync"

	"github.com/aerocl/aerobot/internal/funnel"
)

// Memory is an in-process implementation of all three stores, used in tests,
// development, and as the degraded fallback when Postgres is unreachable.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*funnel.Session
	orders   map[string]*Order
	leads    []Lead
	nextLead int64
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*funnel.Session),
		orders:   make(map[string]*Order),
		nextLead: 1,
	}
}

func sessionKey(channel, userID string) string {
	return channel + "\x00" + userID
}

// GetOrCreate returns a copy of the stored session, creating a START session
// on first contact. Copies keep callers from mutating shared state before Save.
func (m *Memory) GetOrCreate(_ context.Context, channel, userID string) (*funnel.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionKey(channel, userID)]; ok {
		return copySession(s), nil
	}
	s := funnel.NewSession(channel, userID)
	m.sessions[sessionKey(channel, userID)] = copySession(s)
	return s, nil
}

// Save stores a copy of the session.
func (m *Memory) Save(_ context.Context, s *funnel.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(s.Channel, s.UserID)] = copySession(s)
	return nil
}

func copySession(s *funnel.Session) *funnel.Session {
	dup := *s
	dup.Cart = append([]funnel.CartItem(nil), s.Cart...)
	return &dup
}

// CreateOrder stores a copy of the order.
func (m *Memory) CreateOrder(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *o
	dup.Items = append([]funnel.CartItem(nil), o.Items...)
	m.orders[o.ID] = &dup
	return nil
}

// GetOrder fetches one order by id.
func (m *Memory) GetOrder(_ context.Context, id string) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	dup := *o
	dup.Items = append([]funnel.CartItem(nil), o.Items...)
	return &dup, nil
}

// CreateLead stores the lead and assigns a sequential id.
func (m *Memory) CreateLead(_ context.Context, l *Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.nextLead
	m.nextLead++
	m.leads = append(m.leads, *l)
	return nil
}

// ListLeads returns all leads, newest first.
func (m *Memory) ListLeads(_ context.Context) ([]Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]Lead(nil), m.leads...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
