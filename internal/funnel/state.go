// Package funnel implements the sales conversation as a pure state machine.
// It holds no I/O: the engine feeds it a session and classified intent, and
// it returns the mutated session plus the skeleton reply text.
package funnel

import "time"

// State is a position in the linear sales funnel.
type State string

const (
	StateStart       State = "START"
	StateQualify     State = "QUALIFY"
	StateHumanDetail State = "HUMAN_DETAIL"
	StatePetDetail   State = "PET_DETAIL"
	StateCollectData State = "COLLECT_DATA"
	StateClose       State = "CLOSE"
	StateDone        State = "DONE"
)

// States lists every valid funnel state in funnel order.
func States() []State {
	return []State{
		StateStart, StateQualify, StateHumanDetail, StatePetDetail,
		StateCollectData, StateClose, StateDone,
	}
}

// Valid reports whether st belongs to the funnel enumeration.
func (st State) Valid() bool {
	switch st {
	case StateStart, StateQualify, StateHumanDetail, StatePetDetail,
		StateCollectData, StateClose, StateDone:
		return true
	}
	return false
}

// CartItem is one selected product line. Prices are CLP at selection time.
type CartItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	PriceCLP int64  `json:"price_clp"`
	Qty      int    `json:"qty"`
}

// Customer is the contact record filled incrementally during COLLECT_DATA.
type Customer struct {
	Name  string `json:"name,omitempty"`
	City  string `json:"city,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Complete reports whether the order can be emitted: name, locality and at
// least one contact method.
func (c Customer) Complete() bool {
	return c.Name != "" && c.City != "" && (c.Phone != "" || c.Email != "")
}

// Contact returns the preferred contact method, phone first.
func (c Customer) Contact() string {
	if c.Phone != "" {
		return c.Phone
	}
	return c.Email
}

// Session is the per-(channel, user) conversation record.
type Session struct {
	Channel   string     `db:"channel"`
	UserID    string     `db:"user_id"`
	State     State      `db:"state"`
	Cart      []CartItem `db:"-"`
	Customer  Customer   `db:"-"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// NewSession returns a fresh session at START for the given key.
func NewSession(channel, userID string) *Session {
	return &Session{Channel: channel, UserID: userID, State: StateStart, UpdatedAt: time.Now().UTC()}
}

// CartTotal sums the cart in CLP.
func (s *Session) CartTotal() int64 {
	var total int64
	for _, it := range s.Cart {
		qty := it.Qty
		if qty < 1 {
			qty = 1
		}
		total += it.PriceCLP * int64(qty)
	}
	return total
}

// resetSale clears sale progress but keeps the session key.
func (s *Session) resetSale() {
	s.Cart = nil
	s.Customer = Customer{}
}
